package report

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportTemplate names the report layout
const ReportTemplate = "report"

// Renderer executes a named HTML layout and prints HTML to PDF
type Renderer interface {
	RenderHTML(ctx context.Context, template string, data any) ([]byte, error)
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// ReportService serves the owner reports
type ReportService struct {
	reports  report.Repository
	tenants  identity.TenantRepository
	branches location.Repository
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// ReportServiceConfig contains configuration for ReportService
type ReportServiceConfig struct {
	Reports  report.Repository
	Tenants  identity.TenantRepository
	Branches location.Repository
	Renderer Renderer
	Logger   *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(cfg ReportServiceConfig) *ReportService {
	return &ReportService{
		reports:  cfg.Reports,
		tenants:  cfg.Tenants,
		branches: cfg.Branches,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// filter validates the query. To is inclusive of its whole day.
func (s *ReportService) filter(actor identity.Actor, q Query) (report.Filter, error) {
	to := q.To
	if !to.IsZero() {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return report.NewFilter(actor.TenantID, q.LocationID, q.From, to, s.now().UTC())
}

func (s *ReportService) managerFilter(actor identity.Actor, q Query) (report.Filter, error) {
	if err := actor.RequireManager(); err != nil {
		return report.Filter{}, err
	}
	return s.filter(actor, q)
}

// SalesSummary reports completed sales over a period
func (s *ReportService) SalesSummary(ctx context.Context, actor identity.Actor, q Query) (*report.SalesSummary, error) {
	f, err := s.managerFilter(actor, q)
	if err != nil {
		return nil, err
	}
	return s.reports.SalesSummary(ctx, f)
}

// InventoryValuation reports current stock value
func (s *ReportService) InventoryValuation(ctx context.Context, actor identity.Actor, q Query) (*report.InventoryValuation, error) {
	f, err := s.managerFilter(actor, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.InventoryValuation(ctx, f)
	if err != nil {
		return nil, err
	}
	v := report.NewInventoryValuation(rows)
	return &v, nil
}

// LowStock lists items to reorder. Staff may run it for their own locations.
func (s *ReportService) LowStock(ctx context.Context, actor identity.Actor, q Query) ([]report.LowStockRow, error) {
	f, err := s.filter(actor, q)
	if err != nil {
		return nil, err
	}
	if f.LocationID.IsZero() {
		if err := actor.RequireManager(); err != nil {
			return nil, err
		}
	} else if err := actor.RequireLocation(f.LocationID); err != nil {
		return nil, err
	}
	return s.reports.LowStock(ctx, f)
}

// PurchaseSpend reports delivered purchases per supplier
func (s *ReportService) PurchaseSpend(ctx context.Context, actor identity.Actor, q Query) (*report.PurchaseSpend, error) {
	f, err := s.managerFilter(actor, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.PurchaseSpend(ctx, f)
	if err != nil {
		return nil, err
	}
	spend := report.NewPurchaseSpend(f, rows)
	return &spend, nil
}

// ShiftReport lists shifts with their cash variance
func (s *ReportService) ShiftReport(ctx context.Context, actor identity.Actor, q Query) (*report.ShiftReport, error) {
	f, err := s.managerFilter(actor, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.Shifts(ctx, f)
	if err != nil {
		return nil, err
	}
	r := report.NewShiftReport(rows)
	return &r, nil
}

// Dashboard runs every report concurrently; the first failure cancels the rest
func (s *ReportService) Dashboard(ctx context.Context, actor identity.Actor, q Query) (*report.Dashboard, error) {
	f, err := s.managerFilter(actor, q)
	if err != nil {
		return nil, err
	}
	return s.dashboard(ctx, f)
}

func (s *ReportService) dashboard(ctx context.Context, f report.Filter) (*report.Dashboard, error) {
	d := &report.Dashboard{GeneratedAt: s.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.reports.SalesSummary(gctx, f)
		if err != nil {
			return err
		}
		d.Sales = *summary
		return nil
	})
	g.Go(func() error {
		rows, err := s.reports.InventoryValuation(gctx, f)
		if err != nil {
			return err
		}
		d.Valuation = report.NewInventoryValuation(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := s.reports.LowStock(gctx, f)
		if err != nil {
			return err
		}
		if rows == nil {
			rows = []report.LowStockRow{}
		}
		d.LowStock = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.reports.PurchaseSpend(gctx, f)
		if err != nil {
			return err
		}
		d.PurchaseSpend = report.NewPurchaseSpend(f, rows)
		return nil
	})
	g.Go(func() error {
		rows, err := s.reports.Shifts(gctx, f)
		if err != nil {
			return err
		}
		d.Shifts = report.NewShiftReport(rows)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.L(ctx).Warn("dashboard query failed", zap.Error(err))
		return nil, err
	}
	return d, nil
}

// ExportPDF renders the dashboard for a period as a PDF document
func (s *ReportService) ExportPDF(ctx context.Context, actor identity.Actor, q Query) (*File, error) {
	f, err := s.managerFilter(actor, q)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	d, err := s.dashboard(ctx, f)
	if err != nil {
		return nil, err
	}

	doc := Document{
		Title:        "Business report",
		BusinessName: tenant.Name,
		Locale:       tenant.Locale,
		Currency:     tenant.Currency,
		Timezone:     tenant.Timezone,
		PeriodStart:  f.From,
		PeriodEnd:    f.To,
		GeneratedAt:  d.GeneratedAt,
		Dashboard:    *d,
	}
	if !f.LocationID.IsZero() {
		if branch, err := s.branches.FindByLocationID(ctx, actor.TenantID, f.LocationID); err == nil {
			doc.LocationName = branch.Name
		}
	}

	html, err := s.renderer.RenderHTML(ctx, ReportTemplate, doc)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("report exported",
		zap.String("from", f.From.Format(time.DateOnly)),
		zap.String("to", f.To.Format(time.DateOnly)),
		zap.Int("bytes", len(pdf)))
	return &File{
		ContentType: "application/pdf",
		FileName:    "report-" + f.From.Format("20060102") + "-" + f.To.Format("20060102") + ".pdf",
		Body:        pdf,
	}, nil
}
