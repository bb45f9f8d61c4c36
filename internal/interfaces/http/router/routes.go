package router

import (
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// AnalyticsRoutes builds the /analytics group
func AnalyticsRoutes(h *handler.AnalyticsHandler, middleware ...gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("analytics", "/analytics").
		Use(middleware...).
		GET("/revenue", h.GetRevenue).
		GET("/forecast", h.GetForecast).
		GET("/inventory", h.GetInventory).
		GET("/restock", h.GetRestock).
		GET("/products", h.GetProducts).
		GET("/segments", h.GetSegments).
		GET("/customers", h.GetCustomers).
		GET("/unified-customers", h.GetUnifiedCustomers).
		GET("/cohorts", h.GetCohorts).
		GET("/briefing", h.GetBriefing).
		POST("/refresh", h.Refresh)
}
