package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"groundlink/internal/apperrors"
	"groundlink/internal/middleware"
	"groundlink/internal/services"
	"groundlink/internal/utils"
	"groundlink/internal/validators"
	"groundlink/pkg/logger"
	"groundlink/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentHandler struct {
	bookingService services.BookingService
	provider       payment.Provider
	logger         *logger.Logger
}

func NewPaymentHandler(bookingService services.BookingService, provider payment.Provider, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		bookingService: bookingService,
		provider:       provider,
		logger:         log,
	}
}

// CreateCheckout returns the hosted checkout for whatever the booking
// still owes, reusing a live artifact when one exists.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
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

	artifact, err := h.bookingService.CreateCheckout(c.Request.Context(), actor, bookingID)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Checkout ready", artifact)
}

// CreateGuestCheckout is the claim-token variant for guests.
func (h *PaymentHandler) CreateGuestCheckout(c *gin.Context) {
	artifact, err := h.bookingService.CreateCheckoutByClaimToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Checkout ready", artifact)
}

// IssueRefund returns money to the customer, admin only.
func (h *PaymentHandler) IssueRefund(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}

	var request validators.RefundRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateRefund(&request); len(errs) > 0 {
		renderValidationErrors(c, errs)
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	view, err := h.bookingService.IssueRefund(c.Request.Context(), actor, bookingID, request.AmountCents, request.Reason)
	if err != nil {
		renderError(c, err)
		return
	}

	utils.SuccessResponse(c, "Refund issued", view)
}

// HandleWebhook receives processor notifications. The signature check
// happens before anything else; unhandled event types are acknowledged
// so the processor stops retrying them.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	event, err := h.provider.ValidateWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.WithError(err).Warn("webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.EventType {
	case "payment_intent.succeeded":
		h.handleIntentSucceeded(c, event)
	case "payment_intent.payment_failed":
		h.handleIntentFailed(c, event)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (h *PaymentHandler) handleIntentSucceeded(c *gin.Context, event *payment.WebhookEvent) {
	intent, ok := h.parseIntent(c, event)
	if !ok {
		return
	}

	// The payment is resolved by intent id, never by metadata the caller
	// could have planted; replayed deliveries are no-ops inside MarkPaid.
	if err := h.bookingService.MarkPaid(c.Request.Context(), intent.ID, intent.AmountReceived); err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			// An intent this service did not create, or one superseded by
			// a newer checkout; acknowledge so the processor stops retrying.
			h.logger.WithField("intent_id", intent.ID).Warn("webhook intent matches no payment")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		h.logger.WithError(err).WithField("intent_id", intent.ID).Error("failed to record capture from webhook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentHandler) handleIntentFailed(c *gin.Context, event *payment.WebhookEvent) {
	intent, ok := h.parseIntent(c, event)
	if !ok {
		return
	}

	reason := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Message != "" {
		reason = intent.LastPaymentError.Message
	}

	if err := h.bookingService.MarkPaymentFailed(c.Request.Context(), intent.ID, reason); err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			h.logger.WithField("intent_id", intent.ID).Warn("webhook intent matches no payment")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		h.logger.WithError(err).WithField("intent_id", intent.ID).Error("failed to record payment failure from webhook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentHandler) parseIntent(c *gin.Context, event *payment.WebhookEvent) (*payment.IntentEventData, bool) {
	var intent payment.IntentEventData
	if err := json.Unmarshal(event.Raw, &intent); err != nil {
		h.logger.WithError(err).Warn("failed to parse webhook payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return nil, false
	}
	if intent.ID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return nil, false
	}

	return &intent, true
}
