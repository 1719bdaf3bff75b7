package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"favordesk/models"
	"favordesk/monitoring"
	"favordesk/store"
)

// TagSyncService recomputes and persists workflow tags for a creator's
// tickets. It is idempotent: with no input changes a second pass writes
// nothing.
type TagSyncService struct {
	tickets store.TicketStore
	ratio   Ratio
	monitor *monitoring.Monitor
}

func NewTagSyncService(tickets store.TicketStore, ratio Ratio, monitor *monitoring.Monitor) *TagSyncService {
	return &TagSyncService{
		tickets: tickets,
		ratio:   ratio,
		monitor: monitor,
	}
}

// Synchronize brings every ticket of the creator in line with the
// computed serving order. Called after every operation that changes the
// approved set or lane composition.
func (s *TagSyncService) Synchronize(ctx context.Context, creator string) error {
	started := time.Now()

	tickets, err := s.tickets.ListByCreator(ctx, creator)
	if err != nil {
		return fmt.Errorf("synchronize %s: %w", creator, err)
	}

	ordered := BuildSchedule(tickets, s.ratio)
	positions := AssignTags(ordered)

	desired := make(map[string]string, len(positions))
	for _, pos := range positions {
		desired[pos.Reference] = pos.Tag
	}

	var writeErr error
	for _, t := range tickets {
		tag := desired[t.Reference] // empty for tickets outside the active set

		// Manual feedback state always wins over recomputation, even
		// for tickets that briefly fell out of the active set. The tag
		// assigner protects awaiting-feedback entries already; this
		// second check is kept deliberately.
		if t.HasTag(models.TagAwaitingFeedback) && tag != models.TagAwaitingFeedback {
			continue
		}

		next := models.StripEngineTags(t.Tags)
		if tag != "" {
			next = append(next, tag)
		}
		if slices.Equal(next, t.Tags) {
			continue
		}

		if err := s.tickets.Patch(ctx, t.ID, map[string]any{"tags": next}); err != nil {
			// Keep going; the next synchronize call heals stragglers.
			slog.Error("tag sync write failed", "creator", creator, "reference", t.Reference, "error", err)
			writeErr = err
		}
	}

	if s.monitor != nil {
		s.monitor.TrackSyncDuration(time.Since(started))
		outcome := "success"
		if writeErr != nil {
			outcome = "error"
		}
		s.monitor.TrackEngineOp("synchronize", outcome)
	}

	if writeErr != nil {
		return fmt.Errorf("synchronize %s: %w", creator, writeErr)
	}
	return nil
}
