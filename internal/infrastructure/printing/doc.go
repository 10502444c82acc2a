// Package printing renders receipts and reports. HTML comes from embedded
// html/template layouts with locale-aware money and date helpers; PDFs are
// printed by a headless Chrome driven through chromedp.
//
//	pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    return err
//	}
//	renderer, err := printing.NewRenderer(pdf, logger)
//	html, err := renderer.RenderHTML(ctx, "receipt", view)
//	doc, err := renderer.RenderPDF(ctx, html)
package printing
