package handlers

import (
	"groundlink/internal/middleware"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/services"
	"groundlink/internal/utils"
	"groundlink/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// CreateBooking submits a new booking request. Works for signed-in
// customers and guests alike; guests get a claim token back.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var request validators.BookingCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateBookingCreate(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	actor, authenticated := middleware.GetActor(c)

	var userID *primitive.ObjectID
	if authenticated {
		userID = &actor.ID
	}

	input, err := request.ToCreateInput(userID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	view, err := h.bookingService.Create(c.Request.Context(), actor, input)
	if err != nil {
		renderError(c, err)
		return
	}

	response := gin.H{"booking": view}
	if view.Booking.IsGuest() {
		response["claim_token"] = view.Booking.GuestClaimToken
	}

	utils.CreatedResponse(c, "Booking created successfully", response)
}

// Estimate returns a live fare estimate without creating anything.
func (h *BookingHandler) Estimate(c *gin.Context) {
	var request validators.EstimateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	input, err := request.ToEstimateInput()
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	quote, err := h.bookingService.Estimate(c.Request.Context(), input)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Estimate calculated", quote)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
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

	view, err := h.bookingService.Get(c.Request.Context(), actor, bookingID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved", view)
}

// GetBookingByClaimToken is the guest tracking endpoint; the token is
// the only credential.
func (h *BookingHandler) GetBookingByClaimToken(c *gin.Context) {
	view, err := h.bookingService.GetByClaimToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved", view)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	filter := interfaces.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if serviceTypeID := c.Query("service_type_id"); serviceTypeID != "" {
		id, err := primitive.ObjectIDFromHex(serviceTypeID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid service type ID")
			return
		}
		filter.ServiceTypeID = &id
	}

	params := utils.GetPaginationParams(c)
	views, total, err := h.bookingService.List(c.Request.Context(), actor, filter, params)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved", views, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(views),
	})
}

// ListDriverBookings lists the bookings assigned to a driver.
func (h *BookingHandler) ListDriverBookings(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	driverID := actor.ID
	if param := c.Query("driver_id"); param != "" {
		id, err := primitive.ObjectIDFromHex(param)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid driver ID")
			return
		}
		driverID = id
	}

	views, err := h.bookingService.ListAssignedToDriver(c.Request.Context(), actor, driverID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Bookings retrieved", views)
}

func (h *BookingHandler) GetStatusEvents(c *gin.Context) {
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

	events, err := h.bookingService.StatusEvents(c.Request.Context(), actor, bookingID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Status history retrieved", events)
}

// ApproveBooking sets the reviewed price and moves the booking forward.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.PriceApprovalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	view, err := h.bookingService.ApproveWithPrice(c.Request.Context(), actor, bookingID, request.ToPriceInput())
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking approved", view)
}

// UpdatePrice edits the price of an already-approved booking.
func (h *BookingHandler) UpdatePrice(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.PriceApprovalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	view, err := h.bookingService.UpdatePrice(c.Request.Context(), actor, bookingID, request.ToPriceInput())
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Price updated", view)
}

func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.DeclineRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	view, err := h.bookingService.Decline(c.Request.Context(), actor, bookingID, validators.SanitizeInput(request.Reason))
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking declined", view)
}

func (h *BookingHandler) ReopenBooking(c *gin.Context) {
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

	view, err := h.bookingService.Reopen(c.Request.Context(), actor, bookingID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking reopened", view)
}

func (h *BookingHandler) DuplicateBooking(c *gin.Context) {
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

	view, err := h.bookingService.Duplicate(c.Request.Context(), actor, bookingID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.CreatedResponse(c, "Booking duplicated", view)
}

// ChangeStatus applies an operational quick action (en route, arrived,
// completed, no show, cancelled).
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.StatusChangeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	view, err := h.bookingService.ChangeStatus(c.Request.Context(), actor, bookingID, models.BookingStatus(request.Status))
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Status updated", view)
}

func (h *BookingHandler) AddInternalNote(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.InternalNoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.bookingService.AddInternalNote(c.Request.Context(), actor, bookingID, validators.SanitizeInput(request.Body)); err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Note added", nil)
}
