package router

import "github.com/ledgerly/backend/internal/interfaces/http/handler"

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	System        *handler.SystemHandler
	Retailers     *handler.RetailerHandler
	Invoices      *handler.InvoiceHandler
	Payments      *handler.PaymentHandler
	Notifications *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler
}

// LedgerGroups returns the route groups of the receivables API
func LedgerGroups(h Handlers) []*DomainGroup {
	retailers := NewDomainGroup("retailers", "/retailers").
		POST("", h.Retailers.Create).
		GET("", h.Retailers.List).
		GET("/:id", h.Retailers.GetByID).
		PUT("/:id", h.Retailers.Update).
		DELETE("/:id", h.Retailers.Delete).
		GET("/:id/statement.xlsx", h.Retailers.StatementXLSX).
		GET("/:id/statement.pdf", h.Retailers.StatementPDF)

	invoices := NewDomainGroup("invoices", "/invoices").
		POST("", h.Invoices.Create).
		GET("", h.Invoices.List).
		GET("/:id", h.Invoices.GetByID).
		PUT("/:id", h.Invoices.Update).
		DELETE("/:id", h.Invoices.Delete).
		POST("/:id/mark-paid", h.Invoices.MarkPaid)

	payments := NewDomainGroup("payments", "/payments").
		POST("", h.Payments.Record).
		POST("/allocate", h.Payments.Allocate).
		GET("", h.Payments.List).
		GET("/:id", h.Payments.GetByID).
		DELETE("/:id", h.Payments.Delete)

	notifications := NewDomainGroup("notifications", "/notifications").
		GET("", h.Notifications.List).
		GET("/unread-count", h.Notifications.UnreadCount).
		POST("/read-all", h.Notifications.MarkAllRead).
		POST("/due-check", h.Notifications.DueCheck).
		POST("/:id/read", h.Notifications.MarkRead).
		DELETE("/:id", h.Notifications.Delete)

	dashboard := NewDomainGroup("dashboard", "/dashboard").
		GET("/summary", h.Dashboard.Summary)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{retailers, invoices, payments, notifications, dashboard, system}
}
