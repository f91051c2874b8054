package handlers

import (
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PricingHandler serves the read-only pricing catalog the booking form
// is built from.
type PricingHandler struct {
	pricingRepo interfaces.PricingRepository
}

func NewPricingHandler(pricingRepo interfaces.PricingRepository) *PricingHandler {
	return &PricingHandler{
		pricingRepo: pricingRepo,
	}
}

func (h *PricingHandler) ListServiceTypes(c *gin.Context) {
	serviceTypes, err := h.pricingRepo.ListServiceTypes(c.Request.Context(), true)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Service types retrieved", serviceTypes)
}

func (h *PricingHandler) GetServiceType(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid service type ID")
		return
	}

	serviceType, err := h.pricingRepo.GetServiceType(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Service type retrieved", serviceType)
}

func (h *PricingHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.pricingRepo.ListVehicles(c.Request.Context(), true)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Vehicles retrieved", vehicles)
}
