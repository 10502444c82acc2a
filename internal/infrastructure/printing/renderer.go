package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"github.com/coretrack/backend/internal/domain/shared"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// PDFEngine prints an HTML document to PDF
type PDFEngine interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
	Close() error
}

// Localized is implemented by template data that carries tenant formatting settings
type Localized interface {
	FormatSettings() (locale, currency, timezone string)
}

// ErrPDFDisabled is returned when no PDF engine is configured
var ErrPDFDisabled = shared.NewDomainError("PDF_DISABLED", "PDF rendering is not enabled")

// Renderer executes the embedded layouts and hands HTML to the PDF engine
type Renderer struct {
	templates *template.Template
	pdf       PDFEngine
	logger    *zap.Logger
}

// NewRenderer parses the embedded layouts. pdf may be nil, in which case
// only HTML output is available.
func NewRenderer(pdf PDFEngine, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t, err := template.New("").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidTemplate, "failed to parse templates", err)
	}
	return &Renderer{templates: t, pdf: pdf, logger: logger}, nil
}

// RenderHTML executes the layout called name (file name without .html)
func (r *Renderer) RenderHTML(ctx context.Context, name string, data any) ([]byte, error) {
	base := r.templates.Lookup(name + ".html")
	if base == nil {
		return nil, NewRenderError(ErrCodeInvalidTemplate, "unknown template "+name, nil)
	}

	f := NewFormatter("en", "", "")
	if l, ok := data.(Localized); ok {
		f = NewFormatter(l.FormatSettings())
	}
	t, err := base.Clone()
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidTemplate, "failed to clone template", err)
	}
	t.Funcs(template.FuncMap{"fmt": func() *Formatter { return f }})

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		r.logger.Warn("template execution failed", zap.String("template", name), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.Bytes(), nil
}

// RenderPDF prints rendered HTML
func (r *Renderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	if r.pdf == nil {
		return nil, ErrPDFDisabled
	}
	return r.pdf.Render(ctx, html)
}

// Close releases the PDF engine
func (r *Renderer) Close() error {
	if r.pdf == nil {
		return nil
	}
	return r.pdf.Close()
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout   = "RENDER_TIMEOUT"
	ErrCodeRenderFailed    = "RENDER_FAILED"
	ErrCodeInvalidHTML     = "INVALID_HTML"
	ErrCodeInvalidTemplate = "INVALID_TEMPLATE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
