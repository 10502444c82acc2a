package report

import (
	"time"

	"github.com/coretrack/backend/internal/domain/report"
)

// Query is the common report request
type Query struct {
	LocationID string    `form:"location_id" binding:"omitempty,location_id"`
	From       time.Time `form:"from" time_format:"2006-01-02"`
	To         time.Time `form:"to" time_format:"2006-01-02"`
}

// Document is the data handed to the report layout
type Document struct {
	Title        string
	BusinessName string
	LocationName string
	Locale       string
	Currency     string
	Timezone     string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	GeneratedAt  time.Time
	Dashboard    report.Dashboard
}

// FormatSettings returns the tenant's locale, currency and timezone
func (d Document) FormatSettings() (string, string, string) {
	return d.Locale, d.Currency, d.Timezone
}

// File is a rendered export
type File struct {
	ContentType string
	FileName    string
	Body        []byte
}
