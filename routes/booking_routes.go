package routes

import (
	"groundlink/internal/handlers"
	"groundlink/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes wires the booking lifecycle endpoints.
func SetupBookingRoutes(
	r *gin.RouterGroup,
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
	assignmentHandler *handlers.AssignmentHandler,
	jwtSecret string,
) {
	// Public webhook route (signature-verified, no auth)
	r.POST("/webhooks/stripe", paymentHandler.HandleWebhook)

	// Public guest routes: the claim token is the credential.
	guest := r.Group("/guest/bookings")
	{
		guest.POST("/", bookingHandler.CreateBooking)
		guest.POST("/estimate", bookingHandler.Estimate)
		guest.GET("/:token", bookingHandler.GetBookingByClaimToken)
		guest.POST("/:token/checkout", paymentHandler.CreateGuestCheckout)
	}

	// Customer routes (require authentication)
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthRequired(jwtSecret))
	{
		bookings.POST("/", bookingHandler.CreateBooking)
		bookings.POST("/estimate", bookingHandler.Estimate)
		bookings.GET("/", bookingHandler.ListBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.GET("/:id/events", bookingHandler.GetStatusEvents)
		bookings.POST("/:id/checkout", paymentHandler.CreateCheckout)
	}

	// Driver routes
	driver := r.Group("/driver")
	driver.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		driver.GET("/bookings", bookingHandler.ListDriverBookings)
		driver.PUT("/bookings/:id/status", bookingHandler.ChangeStatus)
		driver.GET("/bookings/:id/assignment", assignmentHandler.GetAssignment)
	}

	// Admin routes for the full review and money flow
	admin := r.Group("/admin/bookings")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/", bookingHandler.ListBookings)
		admin.GET("/:id", bookingHandler.GetBooking)
		admin.GET("/:id/events", bookingHandler.GetStatusEvents)
		admin.POST("/", bookingHandler.CreateBooking)

		admin.PUT("/:id/approve", bookingHandler.ApproveBooking)
		admin.PUT("/:id/price", bookingHandler.UpdatePrice)
		admin.PUT("/:id/decline", bookingHandler.DeclineBooking)
		admin.PUT("/:id/reopen", bookingHandler.ReopenBooking)
		admin.POST("/:id/duplicate", bookingHandler.DuplicateBooking)
		admin.PUT("/:id/status", bookingHandler.ChangeStatus)
		admin.POST("/:id/notes", bookingHandler.AddInternalNote)

		admin.POST("/:id/checkout", paymentHandler.CreateCheckout)
		admin.POST("/:id/refund", paymentHandler.IssueRefund)

		admin.PUT("/:id/assignment", assignmentHandler.AssignDriver)
		admin.DELETE("/:id/assignment", assignmentHandler.UnassignDriver)
		admin.GET("/:id/assignment", assignmentHandler.GetAssignment)
	}
}
