// Package payment abstracts the third-party tip processor. The engine
// only ever sees the Gateway interface; capture and refund mechanics
// live on the provider side.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"favordesk/config"
)

type Provider string

const (
	ProviderQRPay Provider = "qrpay"
	ProviderNone  Provider = "none"
)

var ErrUnknownProvider = errors.New("payment: unknown provider")

// QRRequest asks the gateway for a scannable payment code tied to one
// favor reference.
type QRRequest struct {
	Reference string          `json:"reference"`
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// Gateway is the common surface of all tip processors.
type Gateway interface {
	Provider() Provider
	GenerateQR(ctx context.Context, req *QRRequest) (string, error)
	Close(ctx context.Context) error
}

// New builds the configured gateway. Development setups run without a
// processor and get a no-op gateway.
func New(provider string, cfg config.QRPayConfig) (Gateway, error) {
	switch Provider(provider) {
	case ProviderQRPay:
		return NewQRPayGateway(cfg), nil
	case ProviderNone, "":
		return &NoopGateway{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// NoopGateway accepts everything and issues placeholder codes.
type NoopGateway struct{}

func (g *NoopGateway) Provider() Provider { return ProviderNone }

func (g *NoopGateway) GenerateQR(_ context.Context, req *QRRequest) (string, error) {
	return fmt.Sprintf("noop://%s/%s", req.Reference, req.Amount.String()), nil
}

func (g *NoopGateway) Close(context.Context) error { return nil }
