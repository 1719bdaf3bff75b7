package services

import (
	"context"
	"errors"
	"fmt"

	"favordesk/models"
	"favordesk/monitoring"
	"favordesk/store"
)

// NumberService assigns the global ticket number and the lane-local
// queue number exactly once, at the moment a ticket is approved.
//
// The whole read-increment-write runs inside one store transaction so
// two concurrent approvals for the same creator cannot both read the
// same counter value.
type NumberService struct {
	stores  store.TxRunner
	monitor *monitoring.Monitor
}

func NewNumberService(stores store.TxRunner, monitor *monitoring.Monitor) *NumberService {
	return &NumberService{stores: stores, monitor: monitor}
}

func (s *NumberService) AssignNumbers(ctx context.Context, ticketID string) error {
	err := s.stores.RunInTx(ctx, func(tickets store.TicketStore, counters store.CounterStore) error {
		ticket, err := tickets.GetByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Retries and duplicate invocations are no-ops.
		if ticket.TicketNumber > 0 {
			return nil
		}

		counter, err := counters.GetByCreator(ctx, ticket.Creator)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := counters.Insert(ctx, models.NewCounter(ticket.Creator)); err != nil {
				return fmt.Errorf("create counter for %s: %w", ticket.Creator, err)
			}
			counter, err = counters.GetByCreator(ctx, ticket.Creator)
			if err != nil {
				return ErrCounterUnavailable
			}
		}

		laneField := "next_personal_number"
		if ticket.Lane == models.LanePriority {
			laneField = "next_priority_number"
		}

		if err := tickets.Patch(ctx, ticket.ID, map[string]any{
			"ticket_number": counter.NextTicketNumber,
			"queue_number":  counter.NextForLane(ticket.Lane),
		}); err != nil {
			return err
		}

		return counters.Patch(ctx, counter.ID, map[string]any{
			"next_ticket_number": counter.NextTicketNumber + 1,
			laneField:            counter.NextForLane(ticket.Lane) + 1,
		})
	})

	if s.monitor != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.monitor.TrackEngineOp("assign_numbers", outcome)
	}
	return err
}
