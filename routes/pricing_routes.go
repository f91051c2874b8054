package routes

import (
	"groundlink/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPricingRoutes wires the public pricing catalog.
func SetupPricingRoutes(r *gin.RouterGroup, pricingHandler *handlers.PricingHandler) {
	pricing := r.Group("/pricing")
	{
		pricing.GET("/service-types", pricingHandler.ListServiceTypes)
		pricing.GET("/service-types/:id", pricingHandler.GetServiceType)
		pricing.GET("/vehicles", pricingHandler.ListVehicles)
	}
}
