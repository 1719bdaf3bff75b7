package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favordesk/models"
	"favordesk/payment"
)

func TestCreateSession_FillsWindowAndQR(t *testing.T) {
	service := NewPaymentService(nil, nil, &payment.NoopGateway{}, 15*time.Minute)

	ticket := makeTicket("FAV-AB12CD34", models.LanePriority, 1)
	ticket.TipAmount = decimal.NewFromInt(10)

	session, err := service.CreateSession(context.Background(), &ticket)
	require.NoError(t, err)

	assert.Contains(t, session.ID, "pay_FAV-AB12CD34_")
	assert.Equal(t, "FAV-AB12CD34", session.Reference)
	assert.Equal(t, "pending", session.Status)
	assert.Equal(t, "noop://FAV-AB12CD34/10", session.QRCode)
	assert.Equal(t, 15*time.Minute, session.ExpiresAt.Sub(session.CreatedAt))
}

func TestHandleNotification_ResolvesReferenceFromSession(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := NewPaymentService(db, nil, &payment.NoopGateway{}, 15*time.Minute)

	var confirmed string
	service.BindConfirmer(func(_ context.Context, reference string) error {
		confirmed = reference
		return nil
	})

	key := "favordesk:payment:pay_FAV-AB12CD34_1"
	mock.ExpectHGet(key, "reference").SetVal("FAV-AB12CD34")
	mock.ExpectHSet(key, "status", "completed").SetVal(1)

	err := service.HandleNotification(context.Background(), models.PaymentNotification{
		PaymentID: "pay_FAV-AB12CD34_1",
		Status:    "success",
	})
	require.NoError(t, err)
	assert.Equal(t, "FAV-AB12CD34", confirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleNotification_IgnoresNonSuccess(t *testing.T) {
	service := NewPaymentService(nil, nil, &payment.NoopGateway{}, 15*time.Minute)

	called := false
	service.BindConfirmer(func(context.Context, string) error {
		called = true
		return nil
	})

	err := service.HandleNotification(context.Background(), models.PaymentNotification{
		PaymentID: "pay_X_1",
		Status:    "failed",
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestHandleNotification_ErrorsWithoutReference(t *testing.T) {
	service := NewPaymentService(nil, nil, &payment.NoopGateway{}, 15*time.Minute)

	err := service.HandleNotification(context.Background(), models.PaymentNotification{
		PaymentID: "pay_X_1",
		Status:    "success",
	})
	assert.Error(t, err)
}

func TestSessionStatus_MissingSession(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := NewPaymentService(db, nil, &payment.NoopGateway{}, 15*time.Minute)

	mock.ExpectHGetAll("favordesk:payment:pay_X_1").SetVal(map[string]string{})

	_, err := service.SessionStatus(context.Background(), "pay_X_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
