package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favordesk/models"
)

func setupNumbers(t *testing.T) (*memTicketStore, *memCounterStore, *NumberService) {
	t.Helper()
	tickets := newMemTicketStore()
	counters := newMemCounterStore()
	service := NewNumberService(&memTxRunner{tickets: tickets, counters: counters}, nil)
	return tickets, counters, service
}

func TestAssignNumbers_SequentialApprovals(t *testing.T) {
	tickets, _, service := setupNumbers(t)
	ctx := context.Background()

	lanes := []models.Lane{
		models.LanePriority, models.LanePersonal, models.LanePriority,
		models.LanePriority, models.LanePersonal,
	}
	var ids []string
	for i, lane := range lanes {
		ticket := tickets.add(makeTicket(fmt.Sprintf("T%d", i), lane, i))
		ids = append(ids, ticket.ID)
	}

	for _, id := range ids {
		require.NoError(t, service.AssignNumbers(ctx, id))
	}

	// Global numbers are exactly 1..N in approval order.
	for i, id := range ids {
		ticket, err := tickets.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i+1, ticket.TicketNumber)
	}

	// Lane-local numbers are 1..k per lane.
	wantQueue := []int{1, 1, 2, 3, 2}
	for i, id := range ids {
		ticket, err := tickets.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, wantQueue[i], ticket.QueueNumber, "queue number of %s", ticket.Reference)
	}
}

func TestAssignNumbers_LazilyCreatesCounter(t *testing.T) {
	tickets, counters, service := setupNumbers(t)
	ctx := context.Background()

	ticket := tickets.add(makeTicket("A", models.LanePriority, 1))
	_, err := counters.GetByCreator(ctx, "creator-1")
	require.Error(t, err)

	require.NoError(t, service.AssignNumbers(ctx, ticket.ID))

	counter, err := counters.GetByCreator(ctx, "creator-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counter.NextTicketNumber)
	assert.Equal(t, 2, counter.NextPriorityNumber)
	assert.Equal(t, 1, counter.NextPersonalNumber)
}

func TestAssignNumbers_Idempotent(t *testing.T) {
	tickets, counters, service := setupNumbers(t)
	ctx := context.Background()

	ticket := tickets.add(makeTicket("A", models.LanePersonal, 1))
	require.NoError(t, service.AssignNumbers(ctx, ticket.ID))
	require.NoError(t, service.AssignNumbers(ctx, ticket.ID))

	got, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TicketNumber)
	assert.Equal(t, 1, got.QueueNumber)

	counter, err := counters.GetByCreator(ctx, "creator-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counter.NextTicketNumber)
	assert.Equal(t, 2, counter.NextPersonalNumber)
}

func TestAssignNumbers_TicketNotFound(t *testing.T) {
	_, _, service := setupNumbers(t)
	err := service.AssignNumbers(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignNumbers_AbortsWhenCounterUnreadable(t *testing.T) {
	tickets, counters, service := setupNumbers(t)
	ctx := context.Background()

	counters.refuseReads = true
	ticket := tickets.add(makeTicket("A", models.LanePriority, 1))

	err := service.AssignNumbers(ctx, ticket.ID)
	assert.ErrorIs(t, err, ErrCounterUnavailable)

	// No phantom numbers were handed out.
	got, getErr := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, getErr)
	assert.Zero(t, got.TicketNumber)
	assert.Zero(t, got.QueueNumber)
}
