package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"favordesk/config"
)

func newQRPayServer(t *testing.T, tokenCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/token":
			tokenCalls.Add(1)
			assert.Equal(t, "partner-1", r.Header.Get("X-Partner-Id"))
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/v1/qr":
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			assert.Equal(t, "partner-1", r.Header.Get("X-Partner-Id"))
			assert.Equal(t, "client-1", r.Header.Get("X-Client-Id"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, Hmac256(body, []byte("hmac-key")), r.Header.Get("X-Signature"))

			var req QRRequest
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "LAK", req.Currency)

			json.NewEncoder(w).Encode(map[string]string{"qr_code": "qr://" + req.Reference})
		default:
			http.NotFound(w, r)
		}
	}))
}

func testGateway(baseURL string) *QRPayGateway {
	return NewQRPayGateway(config.QRPayConfig{
		BaseURL:   baseURL,
		PartnerID: "partner-1",
		ClientID:  "client-1",
		ClientKey: "client-key",
		HMACKey:   "hmac-key",
		Currency:  "LAK",
	})
}

func TestQRPayGateway_GenerateQR(t *testing.T) {
	var tokenCalls atomic.Int32
	server := newQRPayServer(t, &tokenCalls)
	defer server.Close()

	gateway := testGateway(server.URL)
	defer gateway.Close(context.Background())

	code, err := gateway.GenerateQR(context.Background(), &QRRequest{
		Reference: "FAV-AB12CD34",
		PaymentID: "pay_FAV-AB12CD34_1",
		Amount:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "qr://FAV-AB12CD34", code)
}

func TestQRPayGateway_ReusesAccessToken(t *testing.T) {
	var tokenCalls atomic.Int32
	server := newQRPayServer(t, &tokenCalls)
	defer server.Close()

	gateway := testGateway(server.URL)
	defer gateway.Close(context.Background())

	for i := 0; i < 3; i++ {
		_, err := gateway.GenerateQR(context.Background(), &QRRequest{
			Reference: "FAV-AB12CD34",
			Amount:    decimal.NewFromInt(10),
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestQRPayGateway_DropsTokenOnUnauthorized(t *testing.T) {
	var tokenCalls atomic.Int32
	var reject atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/token":
			tokenCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/v1/qr":
			if reject.Load() {
				reject.Store(false)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"qr_code": "qr://ok"})
		}
	}))
	defer server.Close()

	gateway := testGateway(server.URL)
	defer gateway.Close(context.Background())

	reject.Store(true)
	_, err := gateway.GenerateQR(context.Background(), &QRRequest{Reference: "FAV-1", Amount: decimal.NewFromInt(5)})
	require.Error(t, err)

	// The stale token was discarded, so the retry reconnects and succeeds.
	code, err := gateway.GenerateQR(context.Background(), &QRRequest{Reference: "FAV-1", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "qr://ok", code)
	assert.Equal(t, int32(2), tokenCalls.Load())
}

func TestHmac256_Deterministic(t *testing.T) {
	body := []byte(`{"reference":"FAV-AB12CD34"}`)
	first := Hmac256(body, []byte("key"))
	assert.Equal(t, first, Hmac256(body, []byte("key")))
	assert.NotEqual(t, first, Hmac256(body, []byte("other-key")))
	assert.Len(t, first, 64)
}

func TestVerifyWebhookSecret(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyWebhookSecret(string(hashed), "s3cret"))
	assert.False(t, VerifyWebhookSecret(string(hashed), "wrong"))
	assert.False(t, VerifyWebhookSecret("", "s3cret"))
}

func TestNew_SelectsProvider(t *testing.T) {
	gateway, err := New("none", config.QRPayConfig{})
	require.NoError(t, err)
	assert.Equal(t, ProviderNone, gateway.Provider())

	gateway, err = New("qrpay", config.QRPayConfig{BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, ProviderQRPay, gateway.Provider())

	_, err = New("stripe", config.QRPayConfig{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNoopGateway(t *testing.T) {
	gateway := &NoopGateway{}
	code, err := gateway.GenerateQR(context.Background(), &QRRequest{
		Reference: "FAV-AB12CD34",
		Amount:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "noop://FAV-AB12CD34/10", code)
}
