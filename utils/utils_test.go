package utils

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]+$`), code)
}

func TestGenerateRefCode(t *testing.T) {
	ref, err := GenerateRefCode()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^FAV-[0-9A-F]{8}$`), ref)

	other, err := GenerateRefCode()
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerSettings{})

	result, err := cb.Execute(context.Background(), func() (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_TripsAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerSettings{
		MaxRequests:  4,
		FailureRatio: 0.5,
	})
	boom := errors.New("gateway down")

	for i := 0; i < 4; i++ {
		_, err := cb.Execute(context.Background(), func() (any, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(context.Background(), func() (any, error) {
		return "unreachable", nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_PropagatesError(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerSettings{})
	boom := errors.New("one-off failure")

	_, err := cb.Execute(context.Background(), func() (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateClosed, cb.State())
}
