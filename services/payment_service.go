package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"

	"favordesk/models"
	"favordesk/payment"
)

// paymentNotifyChannel is the realtime channel the gateway reports
// settled transactions on.
const paymentNotifyChannel = "favordesk-payment-notifications"

// ConfirmFunc moves a favor ticket out of the payment gate once its tip
// settles.
type ConfirmFunc func(ctx context.Context, reference string) error

// PaymentService keeps payment sessions in Redis, asks the gateway for
// QR codes and listens for settlement notifications.
type PaymentService struct {
	Redis   *redis.Client
	PubNub  *pubnub.PubNub
	gateway payment.Gateway
	timeout time.Duration
	confirm ConfirmFunc
}

func NewPaymentService(redisClient *redis.Client, pn *pubnub.PubNub, gateway payment.Gateway, timeout time.Duration) *PaymentService {
	return &PaymentService{
		Redis:   redisClient,
		PubNub:  pn,
		gateway: gateway,
		timeout: timeout,
	}
}

// BindConfirmer wires the favor lifecycle in after construction; the
// favor service itself needs the payment service for submissions.
func (s *PaymentService) BindConfirmer(confirm ConfirmFunc) {
	s.confirm = confirm
}

func sessionKey(paymentID string) string {
	return fmt.Sprintf("favordesk:payment:%s", paymentID)
}

// CreateSession opens the payment window for a priority submission: a
// Redis session with the gateway QR code, expiring with the window.
func (s *PaymentService) CreateSession(ctx context.Context, ticket *models.Ticket) (*models.PaymentSession, error) {
	now := time.Now().UTC()
	session := &models.PaymentSession{
		ID:        fmt.Sprintf("pay_%s_%d", ticket.Reference, now.Unix()),
		Reference: ticket.Reference,
		Requester: ticket.Requester,
		Amount:    ticket.TipAmount,
		Status:    "pending",
		CreatedAt: now,
		ExpiresAt: now.Add(s.timeout),
	}

	qr, err := s.gateway.GenerateQR(ctx, &payment.QRRequest{
		Reference: ticket.Reference,
		PaymentID: session.ID,
		Amount:    ticket.TipAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("generate qr: %w", err)
	}
	session.QRCode = qr

	if s.Redis != nil {
		key := sessionKey(session.ID)
		s.Redis.HSet(ctx, key, map[string]any{
			"reference":  session.Reference,
			"requester":  session.Requester,
			"amount":     session.Amount.String(),
			"status":     session.Status,
			"created_at": session.CreatedAt.Unix(),
		})
		s.Redis.Expire(ctx, key, s.timeout)
	}

	return session, nil
}

// SessionStatus reports the current session fields for display polling.
func (s *PaymentService) SessionStatus(ctx context.Context, paymentID string) (map[string]string, error) {
	if s.Redis == nil {
		return nil, ErrNotFound
	}
	fields, err := s.Redis.HGetAll(ctx, sessionKey(paymentID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fields, nil
}

// HandleNotification settles one payment: marks the session completed,
// confirms the ticket and tells the requester.
func (s *PaymentService) HandleNotification(ctx context.Context, n models.PaymentNotification) error {
	if n.Status != "success" {
		slog.Info("ignoring non-success payment notification", "payment_id", n.PaymentID, "status", n.Status)
		return nil
	}

	reference := n.Reference
	if s.Redis != nil && n.PaymentID != "" {
		key := sessionKey(n.PaymentID)
		if reference == "" {
			reference = s.Redis.HGet(ctx, key, "reference").Val()
		}
		s.Redis.HSet(ctx, key, "status", "completed")
	}
	if reference == "" {
		return fmt.Errorf("payment notification %s carries no reference", n.PaymentID)
	}

	if s.confirm != nil {
		if err := s.confirm(ctx, reference); err != nil {
			return fmt.Errorf("confirm payment for %s: %w", reference, err)
		}
	}

	if s.PubNub != nil && s.Redis != nil && n.PaymentID != "" {
		requester := s.Redis.HGet(ctx, sessionKey(n.PaymentID), "requester").Val()
		if requester != "" {
			s.PubNub.Publish().
				Channel(fmt.Sprintf("requester-%s", requester)).
				Message(map[string]any{
					"type":       "payment_success",
					"payment_id": n.PaymentID,
					"reference":  reference,
				}).
				Execute()
		}
	}

	return nil
}

// SubscribeToNotifications blocks on the gateway's realtime channel and
// settles payments as they arrive. Run as a goroutine.
func (s *PaymentService) SubscribeToNotifications(ctx context.Context) {
	if s.PubNub == nil {
		return
	}

	listener := pubnub.NewListener()
	s.PubNub.AddListener(listener)
	s.PubNub.Subscribe().
		Channels([]string{paymentNotifyChannel}).
		Execute()

	for {
		select {
		case message := <-listener.Message:
			go s.handleMessage(ctx, message)
		case <-ctx.Done():
			s.PubNub.Unsubscribe().Channels([]string{paymentNotifyChannel}).Execute()
			return
		}
	}
}

func (s *PaymentService) handleMessage(ctx context.Context, message *pubnub.PNMessage) {
	data, ok := message.Message.(map[string]any)
	if !ok {
		return
	}

	raw, _ := json.Marshal(data)
	var n models.PaymentNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		slog.Error("parse payment notification", "error", err)
		return
	}

	if err := s.HandleNotification(ctx, n); err != nil {
		slog.Error("handle payment notification", "payment_id", n.PaymentID, "error", err)
	}
}
