// Package pos implements point-of-sale tickets: ringing up sales against a
// shift, deducting recipe ingredients, voids, receipts and hosted payments.
package pos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// numberAttempts bounds retries when two sales race for the same number
const numberAttempts = 3

// ReceiptTemplate names the receipt layout
const ReceiptTemplate = "receipt"

// ReceiptRenderer executes a named HTML template and turns HTML into PDF
type ReceiptRenderer interface {
	RenderHTML(ctx context.Context, template string, data any) ([]byte, error)
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Repositories groups the stores the sale service works with
type Repositories struct {
	Sales     pos.Repository
	Shifts    shift.Repository
	Menu      menu.ItemRepository
	Items     inventory.ItemRepository
	Movements inventory.MovementRepository
	Branches  location.Repository
	Tenants   identity.TenantRepository
	Payments  payment.Repository
}

// SaleService handles POS sales
type SaleService struct {
	tx       shared.TransactionScope
	repos    Repositories
	invoices payment.InvoiceIssuer
	receipts ReceiptRenderer
	events   shared.EventPublisher
	now      func() time.Time
	logger   *zap.Logger
}

// NewSaleService creates a new SaleService. invoices may be nil when no
// hosted payment provider is configured.
func NewSaleService(
	tx shared.TransactionScope,
	repos Repositories,
	invoices payment.InvoiceIssuer,
	receipts ReceiptRenderer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		tx:       tx,
		repos:    repos,
		invoices: invoices,
		receipts: receipts,
		events:   events,
		now:      time.Now,
		logger:   logger,
	}
}

// Create rings up a sale in the caller's open shift. Recipe ingredients are
// deducted from inventory and the shift totals updated in the same
// transaction; any shortage aborts the sale.
func (s *SaleService) Create(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	loc, err := shared.ParseLocationID(req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(loc); err != nil {
		return nil, err
	}
	method := pos.PaymentMethod(req.PaymentMethod)
	if method == pos.PaymentXendit && s.invoices == nil {
		return nil, shared.NewDomainError("PAYMENT_PROVIDER_DISABLED", "Online payments are not configured")
	}

	var (
		order   *pos.SaleOrder
		touched []*inventory.InventoryItem
	)
	for attempt := 1; ; attempt++ {
		err = s.tx.Execute(ctx, func(ctx context.Context) error {
			touched = nil

			if _, err := location.LoadOperational(ctx, s.repos.Branches, actor.TenantID, loc); err != nil {
				return err
			}
			open, err := s.repos.Shifts.FindOpen(ctx, actor.TenantID, loc, actor.UserID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			menuItems, err := s.menuItems(ctx, actor.TenantID, loc, req.Lines)
			if err != nil {
				return err
			}
			lines := make([]pos.LineInput, len(req.Lines))
			for i, l := range req.Lines {
				m := menuItems[l.MenuItemID]
				lines[i] = pos.LineInput{MenuItemID: m.ID, Name: m.Name, Quantity: l.Quantity, UnitPrice: m.Price}
			}
			number, err := s.repos.Sales.NextNumber(ctx, actor.TenantID, loc, s.now())
			if err != nil {
				return err
			}
			if order, err = pos.NewSaleOrder(actor.TenantID, open, number, lines, req.Discount, req.TaxRate, method); err != nil {
				return err
			}

			usage := ingredientUsage(order.MenuQuantities(), menuItems)
			touched, err = s.consume(ctx, actor, usage, order.Number)
			if err != nil {
				return err
			}
			if err := open.RecordSale(method.Bucket(), order.Total); err != nil {
				return err
			}
			if err := s.repos.Shifts.Save(ctx, open); err != nil {
				return err
			}
			return s.repos.Sales.Save(ctx, order)
		})
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt == numberAttempts {
			break
		}
		logger.L(ctx).Debug("sale number taken, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order, touched)
	resp := ToSaleResponse(order)
	if order.PaymentStatus == pos.PaymentPending {
		url, err := s.issueInvoice(ctx, actor, order)
		if err != nil {
			logger.L(ctx).Warn("create sale invoice", zap.String("sale_id", order.ID.String()), zap.Error(err))
		}
		resp.PaymentURL = url
		resp.PaymentStatus = string(order.PaymentStatus)
	}
	return &resp, nil
}

// RequestPayment issues a new hosted invoice for a pending sale
func (s *SaleService) RequestPayment(ctx context.Context, actor identity.Actor, id uuid.UUID) (*SaleResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != pos.PaymentPending || order.Status != pos.StatusCompleted {
		return nil, shared.WrapDomainError(shared.ErrInvalidState.Code, "Sale is not awaiting payment", shared.ErrInvalidState)
	}
	if s.invoices == nil {
		return nil, shared.NewDomainError("PAYMENT_PROVIDER_DISABLED", "Online payments are not configured")
	}
	url, err := s.issueInvoice(ctx, actor, order)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(order)
	resp.PaymentURL = url
	return &resp, nil
}

// Get returns one sale
func (s *SaleService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*SaleResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(order)
	return &resp, nil
}

// List returns sales, newest first
func (s *SaleService) List(ctx context.Context, actor identity.Actor, f SaleListFilter) ([]SaleResponse, int64, error) {
	filter := pos.Filter{
		Filter:  shared.DefaultFilter(),
		ShiftID: f.ShiftID,
		Status:  pos.Status(f.Status),
		From:    f.From,
		To:      f.To,
	}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.LocationID != "" {
		loc, err := shared.ParseLocationID(f.LocationID)
		if err != nil {
			return nil, 0, err
		}
		if err := actor.RequireLocation(loc); err != nil {
			return nil, 0, err
		}
		filter.LocationID = loc
	} else if !actor.Role.CanManage() {
		if len(actor.LocationIDs) != 1 {
			return nil, 0, shared.WrapDomainError(shared.ErrInvalidInput.Code, "location_id is required", shared.ErrInvalidInput)
		}
		filter.LocationID = actor.LocationIDs[0]
	}

	orders, total, err := s.repos.Sales.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SaleResponse, len(orders))
	for i := range orders {
		out[i] = ToSaleResponse(&orders[i])
	}
	return out, total, nil
}

// Void cancels a sale, returns its ingredients to stock and takes it off
// the shift totals while the shift is still open. Managers can void any
// sale; cashiers only their own within the open shift.
func (s *SaleService) Void(ctx context.Context, actor identity.Actor, id uuid.UUID, req VoidSaleRequest) (*SaleResponse, error) {
	var (
		order   *pos.SaleOrder
		touched []*inventory.InventoryItem
	)
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		touched = nil
		var err error
		if order, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		sh, err := s.repos.Shifts.FindByID(ctx, actor.TenantID, order.ShiftID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		shiftOpen := sh != nil && sh.IsOpen()
		if !actor.Role.CanManage() && (order.CashierID != actor.UserID || !shiftOpen) {
			return shared.WrapDomainError(shared.ErrForbidden.Code,
				"Only a manager can void this sale", shared.ErrForbidden)
		}
		if err := order.Void(req.Reason); err != nil {
			return err
		}

		menuItems, err := s.soldMenuItems(ctx, actor.TenantID, order)
		if err != nil {
			return err
		}
		usage := ingredientUsage(order.MenuQuantities(), menuItems)
		if touched, err = s.restock(ctx, actor, usage, order.Number); err != nil {
			return err
		}
		if shiftOpen {
			if err := sh.RecordSale(order.PaymentMethod.Bucket(), order.Total.Neg()); err != nil {
				return err
			}
			if err := s.repos.Shifts.Save(ctx, sh); err != nil {
				return err
			}
		}
		return s.repos.Sales.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order, touched)
	logger.L(ctx).Info("sale voided",
		zap.String("sale_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("reason", order.VoidReason))
	resp := ToSaleResponse(order)
	return &resp, nil
}

// Receipt renders a sale receipt as HTML or PDF
func (s *SaleService) Receipt(ctx context.Context, actor identity.Actor, id uuid.UUID, format ReceiptFormat) (*Receipt, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	tenant, err := s.repos.Tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	view := ReceiptView{
		BusinessName: tenant.Name,
		Currency:     tenant.Currency,
		Locale:       tenant.Locale,
		Timezone:     tenant.Timezone,
		Sale:         ToSaleResponse(order),
	}
	if branch, err := s.repos.Branches.FindByLocationID(ctx, actor.TenantID, order.LocationID); err == nil {
		view.BranchName = branch.Name
		view.Address = branch.Address
		view.Phone = branch.Phone
	}

	html, err := s.receipts.RenderHTML(ctx, ReceiptTemplate, view)
	if err != nil {
		return nil, err
	}
	switch format {
	case ReceiptPDF:
		pdf, err := s.receipts.RenderPDF(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Receipt{ContentType: "application/pdf", FileName: order.Number + ".pdf", Body: pdf}, nil
	case ReceiptHTML, "":
		return &Receipt{ContentType: "text/html; charset=utf-8", FileName: order.Number + ".html", Body: html}, nil
	}
	return nil, shared.WrapDomainError(shared.ErrInvalidInput.Code, "Unknown receipt format "+string(format), shared.ErrInvalidInput)
}

// menuItems loads the requested menu items and checks they can be sold at loc
func (s *SaleService) menuItems(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, lines []SaleLineRequest) (map[uuid.UUID]*menu.MenuItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MenuItemID)
	}
	found, err := s.repos.Menu.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*menu.MenuItem, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		m, ok := byID[id]
		if !ok || m.LocationID != loc {
			return nil, shared.WrapDomainError(shared.ErrNotFound.Code, "Menu item "+id.String()+" not found", shared.ErrNotFound)
		}
		if !m.Available {
			return nil, shared.NewDomainError("MENU_ITEM_UNAVAILABLE", m.Name+" is not available")
		}
	}
	return byID, nil
}

// soldMenuItems loads the menu items of a sale, skipping ones deleted since
func (s *SaleService) soldMenuItems(ctx context.Context, tenantID uuid.UUID, order *pos.SaleOrder) (map[uuid.UUID]*menu.MenuItem, error) {
	quantities := order.MenuQuantities()
	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	found, err := s.repos.Menu.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*menu.MenuItem, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return byID, nil
}

// consume deducts ingredient usage in a stable order
func (s *SaleService) consume(ctx context.Context, actor identity.Actor, usage map[uuid.UUID]decimal.Decimal, reference string) ([]*inventory.InventoryItem, error) {
	return s.applyStock(ctx, actor, usage, func(item *inventory.InventoryItem, qty decimal.Decimal) (*inventory.StockMovement, error) {
		return item.Consume(qty, reference)
	}, true)
}

// restock returns ingredient usage of a voided sale
func (s *SaleService) restock(ctx context.Context, actor identity.Actor, usage map[uuid.UUID]decimal.Decimal, reference string) ([]*inventory.InventoryItem, error) {
	return s.applyStock(ctx, actor, usage, func(item *inventory.InventoryItem, qty decimal.Decimal) (*inventory.StockMovement, error) {
		return item.Restock(qty, reference)
	}, false)
}

func (s *SaleService) applyStock(ctx context.Context, actor identity.Actor, usage map[uuid.UUID]decimal.Decimal,
	apply func(*inventory.InventoryItem, decimal.Decimal) (*inventory.StockMovement, error), strict bool) ([]*inventory.InventoryItem, error) {
	if len(usage) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	// lock rows in a fixed order so concurrent sales cannot deadlock
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	found, err := s.repos.Items.FindByIDs(ctx, actor.TenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inventory.InventoryItem, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	touched := make([]*inventory.InventoryItem, 0, len(ids))
	by := actor.UserID
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			if strict {
				return nil, shared.WrapDomainError(shared.ErrNotFound.Code,
					fmt.Sprintf("Ingredient %s no longer exists", id), shared.ErrNotFound)
			}
			continue
		}
		movement, err := apply(item, usage[id])
		if err != nil {
			return nil, err
		}
		if err := s.repos.Items.Save(ctx, item); err != nil {
			return nil, err
		}
		movement.CreatedBy = &by
		if err := s.repos.Movements.Save(ctx, movement); err != nil {
			return nil, err
		}
		touched = append(touched, item)
	}
	return touched, nil
}

func (s *SaleService) issueInvoice(ctx context.Context, actor identity.Actor, order *pos.SaleOrder) (string, error) {
	if s.invoices == nil {
		return "", nil
	}
	tenant, err := s.repos.Tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return "", err
	}
	invoice, err := s.invoices.CreateInvoice(ctx, payment.InvoiceRequest{
		ExternalID:  "sale-" + order.ID.String(),
		Description: tenant.Name + " " + order.Number,
		PayerEmail:  tenant.Email,
		Amount:      order.Total,
		Currency:    tenant.Currency,
	})
	if err != nil {
		return "", err
	}

	record, err := payment.NewRecord(actor.TenantID, identity.ProviderXendit, invoice.ID,
		payment.PurposeSale, order.ID.String(), order.Total, tenant.Currency)
	if err != nil {
		return "", err
	}
	record.CheckoutURL = invoice.URL
	if err := s.repos.Payments.Save(ctx, record); err != nil {
		return "", err
	}
	if err := order.AttachPaymentReference(invoice.ID); err != nil {
		return "", err
	}
	if err := s.repos.Sales.Save(ctx, order); err != nil {
		return "", err
	}
	return invoice.URL, nil
}

func (s *SaleService) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*pos.SaleOrder, error) {
	order, err := s.repos.Sales.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(order.LocationID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *SaleService) publish(ctx context.Context, order *pos.SaleOrder, touched []*inventory.InventoryItem) {
	if err := shared.PublishAndClear(ctx, s.events, order); err != nil {
		logger.L(ctx).Warn("publish sale events", zap.String("sale_id", order.ID.String()), zap.Error(err))
	}
	for _, item := range touched {
		if err := shared.PublishAndClear(ctx, s.events, item); err != nil {
			logger.L(ctx).Warn("publish inventory events", zap.String("item_id", item.ID.String()), zap.Error(err))
		}
	}
}

// ingredientUsage multiplies each recipe by the portions sold and sums the
// result per inventory item
func ingredientUsage(portions map[uuid.UUID]int, menuItems map[uuid.UUID]*menu.MenuItem) map[uuid.UUID]decimal.Decimal {
	usage := make(map[uuid.UUID]decimal.Decimal)
	for menuID, qty := range portions {
		m, ok := menuItems[menuID]
		if !ok {
			continue
		}
		for _, ing := range m.Ingredients {
			usage[ing.InventoryItemID] = usage[ing.InventoryItemID].Add(ing.Quantity.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	return usage
}
