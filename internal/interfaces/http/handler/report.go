package handler

import (
	"context"
	"fmt"
	"net/http"

	reportapp "github.com/coretrack/backend/internal/application/report"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/gin-gonic/gin"
)

// ReportService is the reporting API used by ReportHandler
type ReportService interface {
	SalesSummary(ctx context.Context, actor identity.Actor, q reportapp.Query) (*report.SalesSummary, error)
	InventoryValuation(ctx context.Context, actor identity.Actor, q reportapp.Query) (*report.InventoryValuation, error)
	LowStock(ctx context.Context, actor identity.Actor, q reportapp.Query) ([]report.LowStockRow, error)
	PurchaseSpend(ctx context.Context, actor identity.Actor, q reportapp.Query) (*report.PurchaseSpend, error)
	ShiftReport(ctx context.Context, actor identity.Actor, q reportapp.Query) (*report.ShiftReport, error)
	Dashboard(ctx context.Context, actor identity.Actor, q reportapp.Query) (*report.Dashboard, error)
	ExportPDF(ctx context.Context, actor identity.Actor, q reportapp.Query) (*reportapp.File, error)
}

// ReportHandler serves /reports
type ReportHandler struct {
	BaseHandler
	service ReportService
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// query binds the common report parameters and runs fn with them
func query[T any](h *ReportHandler, c *gin.Context, fn func(context.Context, identity.Actor, reportapp.Query) (T, error)) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q reportapp.Query
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := fn(c.Request.Context(), actor, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SalesSummary handles GET /reports/sales-summary
// @ID           reportsSalesSummary
// @Summary      Sales summary
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=report.SalesSummary}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/sales-summary [get]
func (h *ReportHandler) SalesSummary(c *gin.Context) {
	query(h, c, h.service.SalesSummary)
}

// InventoryValuation handles GET /reports/inventory-valuation
// @ID           reportsInventoryValuation
// @Summary      Inventory valuation
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=report.InventoryValuation}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/inventory-valuation [get]
func (h *ReportHandler) InventoryValuation(c *gin.Context) {
	query(h, c, h.service.InventoryValuation)
}

// LowStock handles GET /reports/low-stock
// @ID           reportsLowStock
// @Summary      Low stock
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=[]report.LowStockRow}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/low-stock [get]
func (h *ReportHandler) LowStock(c *gin.Context) {
	query(h, c, h.service.LowStock)
}

// PurchaseSpend handles GET /reports/purchase-spend
// @ID           reportsPurchaseSpend
// @Summary      Purchase spend
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=report.PurchaseSpend}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/purchase-spend [get]
func (h *ReportHandler) PurchaseSpend(c *gin.Context) {
	query(h, c, h.service.PurchaseSpend)
}

// Shifts handles GET /reports/shifts
// @ID           reportsShifts
// @Summary      Shift report
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=report.ShiftReport}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/shifts [get]
func (h *ReportHandler) Shifts(c *gin.Context) {
	query(h, c, h.service.ShiftReport)
}

// Dashboard handles GET /reports/dashboard
// @ID           reportsDashboard
// @Summary      Dashboard
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=report.Dashboard}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	query(h, c, h.service.Dashboard)
}

// ExportPDF handles GET /reports/export.pdf
// @ID           reportsExportPDF
// @Summary      Export a report as PDF
// @Tags         reports
// @Produce      pdf
// @Param        filter query reportapp.Query false "Filters"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/export.pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q reportapp.Query
	if !h.BindQuery(c, &q) {
		return
	}
	file, err := h.service.ExportPDF(c.Request.Context(), actor, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
