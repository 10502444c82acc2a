package printing

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats amounts and dates for one tenant's locale, currency and timezone
type Formatter struct {
	tag      language.Tag
	printer  *message.Printer
	currency string
	scale    int
	loc      *time.Location
}

// NewFormatter builds a formatter. Unknown locales fall back to English,
// unknown currencies print with two decimals and unknown zones use UTC.
func NewFormatter(locale, currencyCode, timezone string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	f := &Formatter{
		tag:      tag,
		printer:  message.NewPrinter(tag),
		currency: strings.ToUpper(strings.TrimSpace(currencyCode)),
		scale:    2,
		loc:      time.UTC,
	}
	if unit, err := currency.ParseISO(f.currency); err == nil {
		f.scale, _ = currency.Cash.Rounding(unit)
	}
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			f.loc = loc
		}
	}
	return f
}

// Number formats a value with locale grouping and the given decimals
func (f *Formatter) Number(v decimal.Decimal, decimals int) string {
	return f.printer.Sprint(number.Decimal(v.Round(int32(decimals)).InexactFloat64(), number.Scale(decimals)))
}

// Money formats an amount in the formatter's currency, e.g. "USD 1,234.50"
func (f *Formatter) Money(v decimal.Decimal) string {
	s := f.Number(v, f.scale)
	if f.currency == "" {
		return s
	}
	return f.currency + " " + s
}

// Quantity formats a stock quantity without trailing zeros
func (f *Formatter) Quantity(v decimal.Decimal) string {
	decimals := 0
	if _, frac, ok := strings.Cut(v.String(), "."); ok {
		decimals = len(frac)
	}
	return f.Number(v, decimals)
}

// Percent formats a fraction (0.15) as "15%"
func (f *Formatter) Percent(v decimal.Decimal) string {
	return f.Number(v.Mul(decimal.NewFromInt(100)), 1) + "%"
}

// Date formats t in the tenant's zone
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format("2006-01-02")
}

// DateTime formats t in the tenant's zone
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format("2006-01-02 15:04")
}

// Title capitalizes words using the locale's casing rules
func (f *Formatter) Title(s string) string {
	return cases.Title(f.tag).String(strings.ReplaceAll(s, "_", " "))
}

// funcMap exposes the formatter to templates. The "fmt" function must be
// rebound per render; the placeholder only makes templates parse.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"fmt": func() *Formatter { return NewFormatter("en", "", "") },
		"shortID": func(v fmt.Stringer) string {
			s := v.String()
			if len(s) > 8 {
				return s[:8]
			}
			return s
		},
		"inc": func(i int) int { return i + 1 },
	}
}
