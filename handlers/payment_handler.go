package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"favordesk/config"
	"favordesk/models"
	"favordesk/payment"
	"favordesk/services"
)

type PaymentHandler struct {
	app      *pocketbase.PocketBase
	payments *services.PaymentService
	cfg      *config.Config
}

func NewPaymentHandler(app *pocketbase.PocketBase, payments *services.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		app:      app,
		payments: payments,
		cfg:      cfg,
	}
}

// Webhook - gateway settlement callback, secret-gated
func (h *PaymentHandler) Webhook(e *core.RequestEvent) error {
	secret := e.Request.Header.Get("X-Webhook-Secret")
	if !payment.VerifyWebhookSecret(h.cfg.PaymentWebhookSecret, secret) {
		return apis.NewUnauthorizedError("Invalid webhook secret", nil)
	}

	var n models.PaymentNotification
	if err := e.BindBody(&n); err != nil {
		return apis.NewBadRequestError("Invalid notification", err)
	}

	if err := h.payments.HandleNotification(e.Request.Context(), n); err != nil {
		return apis.NewBadRequestError("Failed to process notification", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}

// Status - poll a payment session
func (h *PaymentHandler) Status(e *core.RequestEvent) error {
	paymentID := e.Request.PathValue("paymentId")

	fields, err := h.payments.SessionStatus(e.Request.Context(), paymentID)
	if err != nil {
		return apis.NewNotFoundError("Payment session not found", err)
	}

	return e.JSON(http.StatusOK, fields)
}

// Simulate - development-only settlement trigger
func (h *PaymentHandler) Simulate(e *core.RequestEvent) error {
	var n models.PaymentNotification
	if err := e.BindBody(&n); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if n.Status == "" {
		n.Status = "success"
	}

	if err := h.payments.HandleNotification(e.Request.Context(), n); err != nil {
		return apis.NewBadRequestError("Failed to simulate payment", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}
