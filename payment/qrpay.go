package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"favordesk/config"
	"favordesk/utils"
)

// QRPayGateway talks to the QR payment backend over HTTP. Requests are
// HMAC-signed; calls run through a circuit breaker so a misbehaving
// processor cannot stall every submission.
type QRPayGateway struct {
	baseURL   string
	partnerID string
	clientID  string
	clientKey string
	hmacKey   string
	currency  string

	// accessToken authenticates with the backend; refreshed lazily.
	accessToken string
	mu          sync.Mutex

	breaker *utils.CircuitBreaker
	hc      *http.Client
}

func NewQRPayGateway(cfg config.QRPayConfig) *QRPayGateway {
	return &QRPayGateway{
		baseURL:   cfg.BaseURL,
		partnerID: cfg.PartnerID,
		clientID:  cfg.ClientID,
		clientKey: cfg.ClientKey,
		hmacKey:   cfg.HMACKey,
		currency:  cfg.Currency,
		breaker:   utils.NewCircuitBreaker("qrpay", utils.BreakerSettings{}),
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *QRPayGateway) Provider() Provider { return ProviderQRPay }

func (g *QRPayGateway) GenerateQR(ctx context.Context, req *QRRequest) (string, error) {
	if req.Currency == "" {
		req.Currency = g.currency
	}

	result, err := g.breaker.Execute(ctx, func() (any, error) {
		return g.postQR(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (g *QRPayGateway) postQR(ctx context.Context, req *QRRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/qr", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Partner-Id", g.partnerID)
	httpReq.Header.Set("X-Client-Id", g.clientID)
	httpReq.Header.Set("X-Signature", Hmac256(body, []byte(g.hmacKey)))

	token, err := g.token(ctx)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.hc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("qrpay: generate qr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token expired server-side; drop it so the next call renews.
		g.mu.Lock()
		g.accessToken = ""
		g.mu.Unlock()
		return "", fmt.Errorf("qrpay: unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qrpay: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		QRCode string `json:"qr_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("qrpay: decode response: %w", err)
	}
	return out.QRCode, nil
}

// token returns the cached access token, connecting when absent.
func (g *QRPayGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" {
		return g.accessToken, nil
	}

	body, err := json.Marshal(map[string]string{
		"client_id":  g.clientID,
		"client_key": g.clientKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Partner-Id", g.partnerID)

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("qrpay: connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("qrpay: connect failed with status %d: %s", resp.StatusCode, payload)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("qrpay: decode token: %w", err)
	}

	g.accessToken = out.AccessToken
	return g.accessToken, nil
}

func (g *QRPayGateway) Close(context.Context) error {
	g.hc.CloseIdleConnections()
	return nil
}

// Hmac256 signs a request body for the gateway.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifyWebhookSecret checks a presented webhook secret against the
// bcrypt hash kept in configuration, so the plain secret never sits in
// the environment.
func VerifyWebhookSecret(hashed, presented string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(presented)) == nil
}
