package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"favordesk/models"
	"favordesk/monitoring"
	"favordesk/store"
	"favordesk/utils"
)

// FavorService owns the ticket lifecycle: submission, the payment gate
// on the priority lane, approval, rejection, finishing and the manual
// current/awaiting-feedback toggle. Every operation that changes the
// approved set ends with a tag synchronization pass.
type FavorService struct {
	tickets        store.TicketStore
	sync           *TagSyncService
	numbers        *NumberService
	snapshots      *SnapshotService
	payments       *PaymentService
	minPriorityTip decimal.Decimal
	paymentTimeout time.Duration
	monitor        *monitoring.Monitor
}

func NewFavorService(
	tickets store.TicketStore,
	sync *TagSyncService,
	numbers *NumberService,
	snapshots *SnapshotService,
	payments *PaymentService,
	minPriorityTip decimal.Decimal,
	paymentTimeout time.Duration,
	monitor *monitoring.Monitor,
) *FavorService {
	return &FavorService{
		tickets:        tickets,
		sync:           sync,
		numbers:        numbers,
		snapshots:      snapshots,
		payments:       payments,
		minPriorityTip: minPriorityTip,
		paymentTimeout: paymentTimeout,
		monitor:        monitor,
	}
}

type SubmitRequest struct {
	Creator   string          `json:"creator"`
	Requester string          `json:"requester"`
	Lane      models.Lane     `json:"lane"`
	Title     string          `json:"title"`
	Details   string          `json:"details"`
	TipAmount decimal.Decimal `json:"tip_amount"`
}

// Submit creates a favor ticket. Personal lane tickets open
// immediately; priority lane tickets are min-tip gated and wait in
// pending_payment until the tip clears.
func (s *FavorService) Submit(ctx context.Context, req SubmitRequest) (*models.Ticket, *models.PaymentSession, error) {
	if req.Creator == "" || req.Requester == "" || req.Title == "" {
		return nil, nil, fmt.Errorf("%w: creator, requester and title are required", ErrInvalidTransition)
	}
	if req.Lane != models.LanePriority && req.Lane != models.LanePersonal {
		return nil, nil, fmt.Errorf("%w: unknown lane %q", ErrInvalidTransition, req.Lane)
	}

	status := models.StatusOpen
	if req.Lane == models.LanePriority {
		if req.TipAmount.LessThan(s.minPriorityTip) {
			if s.monitor != nil {
				s.monitor.TrackSubmission(string(req.Lane), "tip_too_low")
			}
			return nil, nil, ErrTipTooLow
		}
		status = models.StatusPendingPayment
	}

	reference, err := utils.GenerateRefCode()
	if err != nil {
		return nil, nil, fmt.Errorf("generate reference: %w", err)
	}

	ticket := &models.Ticket{
		Reference: reference,
		Creator:   req.Creator,
		Requester: req.Requester,
		Lane:      req.Lane,
		Status:    status,
		Title:     req.Title,
		Details:   req.Details,
		TipAmount: req.TipAmount,
		Tags:      []string{},
	}

	id, err := s.tickets.Insert(ctx, ticket)
	if err != nil {
		return nil, nil, err
	}

	// Re-read so the returned ticket carries the store-assigned
	// creation time, which is the scheduling key.
	ticket, err = s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var session *models.PaymentSession
	if status == models.StatusPendingPayment && s.payments != nil {
		session, err = s.payments.CreateSession(ctx, ticket)
		if err != nil {
			return nil, nil, fmt.Errorf("create payment session for %s: %w", reference, err)
		}
	}

	if s.monitor != nil {
		s.monitor.TrackSubmission(string(req.Lane), "accepted")
	}
	return ticket, session, nil
}

// ConfirmPayment moves a priority ticket out of the payment gate.
// Confirming an already-open ticket is a no-op so gateway retries and
// duplicate webhooks are harmless.
func (s *FavorService) ConfirmPayment(ctx context.Context, reference string) error {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		return ErrNotFound
	}

	switch ticket.Status {
	case models.StatusPendingPayment:
		return s.tickets.Patch(ctx, ticket.ID, map[string]any{"status": string(models.StatusOpen)})
	case models.StatusOpen, models.StatusApproved:
		return nil
	default:
		return fmt.Errorf("%w: cannot confirm payment on %s ticket", ErrInvalidTransition, ticket.Status)
	}
}

// Approve accepts an open ticket into the active set: status flips to
// approved, numbers are assigned, then tags are recomputed — in that
// order. A numbering failure does not roll the status back; the status
// is source of truth and numbering is retried.
func (s *FavorService) Approve(ctx context.Context, reference string) error {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		return ErrNotFound
	}
	if ticket.Status == models.StatusApproved {
		return nil
	}
	if ticket.Status != models.StatusOpen {
		return fmt.Errorf("%w: cannot approve %s ticket", ErrInvalidTransition, ticket.Status)
	}

	if err := s.tickets.Patch(ctx, ticket.ID, map[string]any{"status": string(models.StatusApproved)}); err != nil {
		return err
	}

	if err := s.numbers.AssignNumbers(ctx, ticket.ID); err != nil {
		return err
	}

	if err := s.sync.Synchronize(ctx, ticket.Creator); err != nil {
		return err
	}

	s.publish(ctx, ticket.Creator)
	return nil
}

// Reject drops a ticket out of the queue. Rejecting a missing ticket
// reports ok=false; rejecting an already-terminal ticket is an
// idempotent ok=true no-op.
func (s *FavorService) Reject(ctx context.Context, reference string) (bool, error) {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		return false, nil
	}

	switch ticket.Status {
	case models.StatusRejected, models.StatusClosed:
		return true, nil
	case models.StatusApproved:
		return false, fmt.Errorf("%w: approved tickets are finished, not rejected", ErrInvalidTransition)
	}

	tags := models.StripEngineTags(ticket.Tags)
	if !slices.Contains(tags, models.TagRejected) {
		tags = append(tags, models.TagRejected)
	}

	if err := s.tickets.Patch(ctx, ticket.ID, map[string]any{
		"status": string(models.StatusRejected),
		"tags":   tags,
	}); err != nil {
		return false, err
	}

	if err := s.sync.Synchronize(ctx, ticket.Creator); err != nil {
		return false, err
	}

	s.publish(ctx, ticket.Creator)
	return true, nil
}

// Finish closes an approved ticket for good: the finished marker is
// terminal and the ticket never re-enters scheduling.
func (s *FavorService) Finish(ctx context.Context, reference string) (bool, error) {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		return false, nil
	}

	if ticket.Status == models.StatusClosed {
		return true, nil
	}
	if ticket.Status != models.StatusApproved {
		return false, fmt.Errorf("%w: cannot finish %s ticket", ErrInvalidTransition, ticket.Status)
	}

	tags := models.StripEngineTags(ticket.Tags)
	if !slices.Contains(tags, models.TagFinished) {
		tags = append(tags, models.TagFinished)
	}

	if err := s.tickets.Patch(ctx, ticket.ID, map[string]any{
		"status": string(models.StatusClosed),
		"tags":   tags,
	}); err != nil {
		return false, err
	}

	if err := s.sync.Synchronize(ctx, ticket.Creator); err != nil {
		return false, err
	}

	s.publish(ctx, ticket.Creator)
	return true, nil
}

// ToggleTag flips a ticket between current and awaiting-feedback. This
// is the only way a ticket enters or leaves awaiting-feedback short of
// being finished. Tickets in neither state are not toggleable.
func (s *FavorService) ToggleTag(ctx context.Context, reference string) error {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		return ErrNotFound
	}
	if ticket.Status != models.StatusApproved {
		return fmt.Errorf("%w: tags mutate only while approved", ErrInvalidTransition)
	}

	var tags []string
	switch {
	case ticket.HasTag(models.TagAwaitingFeedback):
		tags = removeTags(ticket.Tags, models.TagAwaitingFeedback)
		if !slices.Contains(tags, models.TagCurrent) {
			tags = append(tags, models.TagCurrent)
		}
		// The manual pick owns the current slot. Whatever the
		// synchronizer promoted in the meantime is demoted first, so
		// the age tie-break cannot hand the slot back to it.
		if err := s.demoteActive(ctx, ticket.Creator, ticket.ID); err != nil {
			return err
		}
	case ticket.HasTag(models.TagCurrent):
		tags = removeTags(ticket.Tags, models.TagCurrent, models.TagNextUp)
		tags = append(tags, models.TagAwaitingFeedback)
	default:
		return fmt.Errorf("%w: ticket is neither current nor awaiting feedback", ErrInvalidTransition)
	}

	if err := s.tickets.Patch(ctx, ticket.ID, map[string]any{"tags": tags}); err != nil {
		return err
	}

	if err := s.sync.Synchronize(ctx, ticket.Creator); err != nil {
		return err
	}

	s.publish(ctx, ticket.Creator)
	return nil
}

// ExpireUnpaid rejects priority tickets whose payment window lapsed.
func (s *FavorService) ExpireUnpaid(ctx context.Context) error {
	pending, err := s.tickets.ListByStatus(ctx, models.StatusPendingPayment)
	if err != nil {
		return fmt.Errorf("expire unpaid: %w", err)
	}

	cutoff := time.Now().Add(-s.paymentTimeout)
	expired := 0
	for _, t := range pending {
		if t.CreatedAt.After(cutoff) {
			continue
		}
		if _, err := s.Reject(ctx, t.Reference); err != nil {
			slog.Error("expire unpaid: reject failed", "reference", t.Reference, "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		slog.Info("expired unpaid favors", "count", expired)
	}
	return nil
}

// RunCleanup sweeps expired payment windows until the context ends.
func (s *FavorService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.ExpireUnpaid(ctx); err != nil {
				slog.Error("cleanup sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// GetByReference exposes point lookup for handlers.
func (s *FavorService) GetByReference(ctx context.Context, reference string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *FavorService) publish(ctx context.Context, creator string) {
	if s.snapshots != nil {
		s.snapshots.PublishPositions(ctx, creator)
	}
}

// demoteActive strips current and next-up from every other ticket of
// the creator; the synchronizer reassigns them on the next pass.
func (s *FavorService) demoteActive(ctx context.Context, creator, exceptID string) error {
	tickets, err := s.tickets.ListByCreator(ctx, creator)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if t.ID == exceptID {
			continue
		}
		if !t.HasTag(models.TagCurrent) && !t.HasTag(models.TagNextUp) {
			continue
		}
		next := removeTags(t.Tags, models.TagCurrent, models.TagNextUp)
		if err := s.tickets.Patch(ctx, t.ID, map[string]any{"tags": next}); err != nil {
			return err
		}
	}
	return nil
}

func removeTags(tags []string, remove ...string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !slices.Contains(remove, tag) {
			out = append(out, tag)
		}
	}
	return out
}
