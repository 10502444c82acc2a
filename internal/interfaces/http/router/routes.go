package router

import (
	"github.com/coretrack/backend/internal/interfaces/http/handler"
	"github.com/coretrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers holds every HTTP handler of the API
type Handlers struct {
	Auth       *handler.AuthHandler
	Tenant     *handler.TenantHandler
	Branch     *handler.BranchHandler
	Inventory  *handler.InventoryHandler
	Menu       *handler.MenuHandler
	Purchasing *handler.PurchasingHandler
	Shift      *handler.ShiftHandler
	Sale       *handler.SaleHandler
	Sync       *handler.SyncHandler
	Report     *handler.ReportHandler
	Assistant  *handler.AssistantHandler
	Webhook    *handler.WebhookHandler
}

// Guards are the middleware chains wrapped around route groups
type Guards struct {
	// Public runs before unauthenticated auth endpoints
	Public []gin.HandlerFunc
	// Protected runs before every authenticated endpoint
	Protected []gin.HandlerFunc
}

// Groups builds the CoreTrack domain groups
func Groups(h Handlers, g Guards) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	public := auth.Group("public", "").Use(g.Public...)
	public.POST("/signup", h.Auth.SignUp).
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh)
	session := auth.Group("session", "").Use(g.Protected...)
	session.POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)

	users := NewDomainGroup("users", "/users").Use(g.Protected...).Use(middleware.RequireManager())
	users.POST("", h.Auth.InviteUser).
		GET("", h.Auth.ListUsers).
		PATCH("/:id", h.Auth.UpdateUser).
		DELETE("/:id", h.Auth.DeactivateUser)

	tenant := NewDomainGroup("tenant", "/tenant").Use(g.Protected...)
	tenant.GET("", h.Tenant.Get).
		PATCH("", middleware.RequireOwner(), h.Tenant.UpdateSettings).
		GET("/subscription", h.Tenant.Subscription).
		POST("/checkout", middleware.RequireOwner(), h.Tenant.Checkout)

	branches := NewDomainGroup("branches", "/branches").Use(g.Protected...)
	branches.POST("", h.Branch.Create).
		GET("", h.Branch.List).
		GET("/:id", h.Branch.Get).
		PUT("/:id", h.Branch.Update).
		POST("/:id/deactivate", h.Branch.Deactivate).
		POST("/:id/reactivate", h.Branch.Reactivate)

	inventory := NewDomainGroup("inventory", "/inventory").Use(g.Protected...)
	inventory.POST("", h.Inventory.Create).
		GET("", h.Inventory.List).
		GET("/:id", h.Inventory.Get).
		PUT("/:id", h.Inventory.Update).
		DELETE("/:id", h.Inventory.Delete).
		POST("/:id/adjust", h.Inventory.Adjust).
		POST("/:id/receive", h.Inventory.Receive).
		POST("/:id/consume", h.Inventory.Consume).
		GET("/:id/movements", h.Inventory.Movements)

	menu := NewDomainGroup("menu", "/menu").Use(g.Protected...)
	menu.Group("categories", "/categories").
		GET("", h.Menu.ListCategories).
		POST("", h.Menu.CreateCategory).
		PUT("/:id", h.Menu.UpdateCategory).
		DELETE("/:id", h.Menu.DeleteCategory)
	menu.Group("items", "/items").
		POST("", h.Menu.Create).
		GET("", h.Menu.List).
		GET("/:id", h.Menu.Get).
		PUT("/:id", h.Menu.Update).
		DELETE("/:id", h.Menu.Delete).
		PATCH("/:id/availability", h.Menu.SetAvailability).
		GET("/:id/costing", h.Menu.Costing).
		POST("/:id/image", h.Menu.UploadImage).
		POST("/:id/image/upload-url", h.Menu.ImageUploadURL).
		POST("/:id/image/confirm", h.Menu.ConfirmImage)

	suppliers := NewDomainGroup("suppliers", "/suppliers").Use(g.Protected...)
	suppliers.POST("", h.Purchasing.CreateSupplier).
		GET("", h.Purchasing.ListSuppliers).
		GET("/:id", h.Purchasing.GetSupplier).
		PUT("/:id", h.Purchasing.UpdateSupplier).
		DELETE("/:id", h.Purchasing.DeactivateSupplier)

	orders := NewDomainGroup("purchase-orders", "/purchase-orders").Use(g.Protected...)
	orders.POST("", h.Purchasing.CreateOrder).
		GET("", h.Purchasing.ListOrders).
		GET("/:id", h.Purchasing.GetOrder).
		PUT("/:id", h.Purchasing.UpdateOrder).
		DELETE("/:id", h.Purchasing.DeleteOrder).
		POST("/:id/submit", h.Purchasing.SubmitOrder).
		POST("/:id/cancel", h.Purchasing.CancelOrder).
		POST("/:id/deliver", h.Purchasing.DeliverOrder)

	shifts := NewDomainGroup("shifts", "/shifts").Use(g.Protected...)
	shifts.POST("", h.Shift.Open).
		GET("", h.Shift.List).
		GET("/current", h.Shift.Current).
		GET("/:id", h.Shift.Get).
		POST("/:id/close", h.Shift.Close)

	sales := NewDomainGroup("sales", "/sales").Use(g.Protected...)
	sales.POST("", h.Sale.Create).
		GET("", h.Sale.List).
		GET("/:id", h.Sale.Get).
		POST("/:id/void", h.Sale.Void).
		POST("/:id/payment", h.Sale.RequestPayment).
		GET("/:id/receipt", h.Sale.Receipt)

	sync := NewDomainGroup("sync", "/sync").Use(g.Protected...)
	sync.POST("/push", h.Sync.Push).
		GET("/pull", h.Sync.Pull).
		GET("/conflicts", h.Sync.ListConflicts).
		POST("/conflicts/:id/resolve", h.Sync.ResolveConflict).
		POST("/heartbeat", h.Sync.Heartbeat).
		GET("/sessions", h.Sync.Sessions).
		GET("/stream", h.Sync.Stream).
		GET("/ws", h.Sync.WebSocket)

	reports := NewDomainGroup("reports", "/reports").Use(g.Protected...)
	reports.GET("/sales-summary", h.Report.SalesSummary).
		GET("/inventory-valuation", h.Report.InventoryValuation).
		GET("/low-stock", h.Report.LowStock).
		GET("/purchase-spend", h.Report.PurchaseSpend).
		GET("/shifts", h.Report.Shifts).
		GET("/dashboard", h.Report.Dashboard).
		GET("/export.pdf", h.Report.ExportPDF)

	assistant := NewDomainGroup("assistant", "/assistant").Use(g.Protected...)
	assistant.POST("/ask", h.Assistant.Ask).
		GET("/conversations", h.Assistant.ListConversations).
		GET("/conversations/:id", h.Assistant.GetConversation)

	webhooks := NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/stripe", h.Webhook.Stripe).
		POST("/paypal", h.Webhook.PayPal).
		POST("/xendit", h.Webhook.Xendit)

	return []*DomainGroup{
		auth, users, tenant, branches, inventory, menu, suppliers, orders,
		shifts, sales, sync, reports, assistant, webhooks,
	}
}

// RegisterAll adds the CoreTrack groups to r
func RegisterAll(r *Router, h Handlers, g Guards) *Router {
	for _, group := range Groups(h, g) {
		r.Register(group)
	}
	return r
}
