package router

import (
	"github.com/invoicing/backend/internal/interfaces/http/handler"
)

// PersonRoutes registers the person API under /persons
func PersonRoutes(h *handler.PersonHandler) *DomainGroup {
	g := NewDomainGroup("persons", "/persons")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/statistics", h.Statistics)
	g.GET("/lookup", h.AllLookups)
	g.GET("/lookup/:id", h.LookupByID)
	g.GET("/invoice-related", h.RelatedPersons)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return g
}

// InvoiceRoutes registers the invoice API under /invoices. Document
// routes are skipped when d is nil.
func InvoiceRoutes(h *handler.InvoiceHandler, d *handler.DocumentHandler) *DomainGroup {
	g := NewDomainGroup("invoices", "/invoices")
	g.POST("", h.Create)
	g.GET("/summary", h.Summaries)
	g.GET("/statistics", h.Statistics)
	g.GET("/identification/:ic/sales", h.Sales)
	g.GET("/identification/:ic/purchases", h.Purchases)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	if d != nil {
		g.GET("/:id/document", d.HTML)
		g.GET("/:id/pdf", d.PDF)
		g.POST("/:id/archive", d.Archive)
	}
	return g
}

// SystemRoutes registers /system/info and /system/ping
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	g.GET("/ping", h.Ping)
	return g
}
