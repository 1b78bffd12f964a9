package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/Moe-hub814/Academy/internal/metrics"
	"github.com/Moe-hub814/Academy/internal/service"
	"github.com/Moe-hub814/Academy/pkg/logger"
)

const contextEventType = "billing_event_type"

// WebhookHandler handles billing processor webhook events
type WebhookHandler struct {
	billingService *service.BillingService
	webhookSecret  string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(billingService *service.BillingService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		billingService: billingService,
		webhookSecret:  webhookSecret,
	}
}

// HandleBillingWebhook verifies and dispatches incoming billing events.
// Signature failures are 400 so the processor gives up; processing
// failures are 500 so it retries with the same event ID and the
// payment log dedup absorbs the replay.
// POST /api/v1/webhooks/billing
func (h *WebhookHandler) HandleBillingWebhook(c *gin.Context) {
	log := logger.Get()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		log.Warn("missing Stripe-Signature header")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Stripe-Signature header"})
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, h.webhookSecret)
	if err != nil {
		log.Error("failed to verify webhook signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	log.Info("received billing webhook event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)))
	metrics.RecordWebhookReceived(c.Request.Context(), string(event.Type))
	c.Set(contextEventType, string(event.Type))

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(c, event)
	case "invoice.payment_failed":
		h.handleInvoicePaymentFailed(c, event)
	case "invoice.payment_succeeded":
		h.handleInvoicePaymentSucceeded(c, event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(c, event)
	case "customer.subscription.updated":
		h.handleSubscriptionUpdated(c, event)
	default:
		log.Info("unhandled event type", zap.String("type", string(event.Type)))
		c.JSON(http.StatusOK, gin.H{"received": true, "message": "Event type not handled"})
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(c *gin.Context, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		logger.Get().Error("failed to parse checkout.session.completed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return
	}

	evt := &service.CheckoutCompleted{
		SessionID: session.ID,
		Email:     session.CustomerEmail,
	}
	if session.Customer != nil {
		evt.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		evt.SubscriptionID = session.Subscription.ID
	}
	if session.CustomerDetails != nil {
		if session.CustomerDetails.Email != "" {
			evt.Email = session.CustomerDetails.Email
		}
		evt.Name = session.CustomerDetails.Name
	}

	h.finish(c, h.billingService.HandleCheckoutCompleted(c.Request.Context(), evt))
}

func (h *WebhookHandler) handleInvoicePaymentFailed(c *gin.Context, event stripe.Event) {
	evt, ok := h.parseInvoice(c, event, "invoice.payment_failed")
	if !ok {
		return
	}
	h.finish(c, h.billingService.HandleInvoicePaymentFailed(c.Request.Context(), evt))
}

func (h *WebhookHandler) handleInvoicePaymentSucceeded(c *gin.Context, event stripe.Event) {
	evt, ok := h.parseInvoice(c, event, "invoice.payment_succeeded")
	if !ok {
		return
	}
	h.finish(c, h.billingService.HandleInvoicePaymentSucceeded(c.Request.Context(), evt))
}

func (h *WebhookHandler) handleSubscriptionDeleted(c *gin.Context, event stripe.Event) {
	sub, ok := h.parseSubscription(c, event, "customer.subscription.deleted")
	if !ok {
		return
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	h.finish(c, h.billingService.HandleSubscriptionDeleted(c.Request.Context(), customerID))
}

func (h *WebhookHandler) handleSubscriptionUpdated(c *gin.Context, event stripe.Event) {
	sub, ok := h.parseSubscription(c, event, "customer.subscription.updated")
	if !ok {
		return
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	h.finish(c, h.billingService.HandleSubscriptionUpdated(c.Request.Context(), customerID, string(sub.Status)))
}

func (h *WebhookHandler) parseInvoice(c *gin.Context, event stripe.Event, eventType string) (*service.InvoiceEvent, bool) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		logger.Get().Error("failed to parse "+eventType, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return nil, false
	}

	evt := &service.InvoiceEvent{
		InvoiceID:   invoice.ID,
		Description: invoice.Description,
	}
	if invoice.Customer != nil {
		evt.CustomerID = invoice.Customer.ID
	}
	if eventType == "invoice.payment_succeeded" {
		evt.AmountMinor = invoice.AmountPaid
	} else {
		evt.AmountMinor = invoice.AmountDue
	}
	return evt, true
}

func (h *WebhookHandler) parseSubscription(c *gin.Context, event stripe.Event, eventType string) (*stripe.Subscription, bool) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		logger.Get().Error("failed to parse "+eventType, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return nil, false
	}
	return &sub, true
}

func (h *WebhookHandler) finish(c *gin.Context, err error) {
	if err != nil {
		logger.Get().Error("failed to process billing event", zap.Error(err))
		metrics.RecordWebhookFailed(c.Request.Context(), c.GetString(contextEventType))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
