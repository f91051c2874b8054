package handlers

import (
	"groundlink/internal/middleware"
	"groundlink/internal/services"
	"groundlink/internal/utils"
	"groundlink/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentHandler struct {
	assignmentService services.AssignmentService
}

func NewAssignmentHandler(assignmentService services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

// AssignDriver sets or replaces the booking's driver and vehicle unit.
func (h *AssignmentHandler) AssignDriver(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.AssignRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	input, err := request.ToAssignInput(bookingID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	assignment, err := h.assignmentService.Assign(c.Request.Context(), actor, input)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver assigned", assignment)
}

func (h *AssignmentHandler) UnassignDriver(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), actor, bookingID); err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver unassigned", nil)
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	assignment, err := h.assignmentService.GetForBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Assignment retrieved", assignment)
}
