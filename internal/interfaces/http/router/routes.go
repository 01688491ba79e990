package router

import (
	"github.com/clinicstock/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the handlers mounted under the API prefix
type Handlers struct {
	Products    *handler.ProductHandler
	Batches     *handler.BatchHandler
	Stock       *handler.StockHandler
	Requests    *handler.RequestHandler
	Holdings    *handler.HoldingHandler
	Corrections *handler.CorrectionHandler
}

// InventoryGroups builds the route groups of the inventory API.
// idempotent guards the create commands; pass nil to mount them unguarded.
func InventoryGroups(h Handlers, idempotent gin.HandlerFunc) []RouteRegistrar {
	guard := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if idempotent == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{idempotent, fn}
	}

	products := NewDomainGroup("products", "/products").
		POST("", guard(h.Products.Create)...).
		GET("", h.Products.List).
		GET("/:id", h.Products.Get).
		PUT("/:id", h.Products.Update).
		GET("/:id/units", h.Products.ListUnits).
		POST("/:id/units", guard(h.Products.CreateUnit)...).
		GET("/:id/units/:unitId/convert", h.Products.Convert).
		GET("/:id/batches", h.Batches.ListByProduct)

	units := NewDomainGroup("units", "/units").
		PUT("/:id", h.Products.UpdateUnit).
		DELETE("/:id", h.Products.DeleteUnit)

	batches := NewDomainGroup("batches", "/batches").
		POST("", guard(h.Batches.Create)...).
		GET("/expiring", h.Batches.ListExpiring).
		GET("/expiring/export", h.Batches.ExportExpiring).
		POST("/expiring/archive", h.Batches.ArchiveExpiring).
		GET("/:id", h.Batches.Get).
		PUT("/:id", h.Batches.Update).
		PATCH("/:id/expiry", h.Batches.CorrectExpiry)

	stock := NewDomainGroup("stock", "/stock").
		GET("", h.Stock.Quantity).
		GET("/lines", h.Stock.ListLines).
		GET("/movements", h.Stock.Movements)

	requests := NewDomainGroup("requests", "/requests").
		POST("/inventory", guard(h.Requests.CreateInventory)...).
		POST("/withdrawal", guard(h.Requests.CreateWithdrawal)...).
		POST("/purchase", guard(h.Requests.CreatePurchase)...).
		GET("", h.Requests.List).
		GET("/:id", h.Requests.Get).
		POST("/:id/approve", h.Requests.Approve).
		POST("/:id/reject", h.Requests.Reject).
		POST("/:id/issue", h.Requests.Issue)

	holdings := NewDomainGroup("holdings", "/holdings").
		GET("", h.Holdings.ListActive).
		GET("/:id", h.Holdings.Get).
		GET("/:id/reconcile", h.Holdings.Reconcile).
		POST("/items/:itemId/return", h.Holdings.MarkReturned).
		POST("/items/:itemId/lost", h.Holdings.MarkLost)

	corrections := NewDomainGroup("corrections", "/corrections").
		POST("", guard(h.Corrections.Create)...).
		GET("", h.Corrections.List).
		GET("/:id", h.Corrections.Get).
		POST("/:id/approve", h.Corrections.Approve).
		POST("/:id/reject", h.Corrections.Reject)

	return []RouteRegistrar{products, units, batches, stock, requests, holdings, corrections}
}

// RegisterHealthRoutes mounts the health endpoints at the engine root
func RegisterHealthRoutes(engine *gin.Engine, health *handler.HealthHandler) {
	engine.GET("/health", health.Health)
	engine.GET("/ready", health.Ready)
}
