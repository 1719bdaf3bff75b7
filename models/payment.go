package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSession is the short-lived payment window opened for a
// priority lane submission.
type PaymentSession struct {
	ID        string          `json:"payment_id"`
	Reference string          `json:"reference"`
	Requester string          `json:"requester"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"` // pending, completed, failed, expired
	QRCode    string          `json:"qr_code,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// PaymentNotification is what the gateway reports back, either over the
// webhook or the realtime notification channel.
type PaymentNotification struct {
	PaymentID     string `json:"payment_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Timestamp     int64  `json:"timestamp"`
}
