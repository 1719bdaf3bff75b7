package store

import (
	"context"
	"errors"

	"favordesk/models"
)

// ErrNotFound is returned by point lookups when no record matches.
var ErrNotFound = errors.New("store: record not found")

// TicketStore is the durable record of favor tickets.
type TicketStore interface {
	ListByCreator(ctx context.Context, creator string) ([]models.Ticket, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Ticket, error)
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByReference(ctx context.Context, reference string) (*models.Ticket, error)
	Insert(ctx context.Context, ticket *models.Ticket) (string, error)
	Patch(ctx context.Context, id string, fields map[string]any) error
}

// CounterStore holds one monotonic counter row per creator.
type CounterStore interface {
	GetByCreator(ctx context.Context, creator string) (*models.Counter, error)
	Insert(ctx context.Context, counter models.Counter) error
	Patch(ctx context.Context, id string, fields map[string]any) error
}

// TxRunner executes fn with ticket and counter stores bound to a single
// serialized transaction. Used by the number assigner so the counter
// read-increment-write cannot race with a concurrent approval.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tickets TicketStore, counters CounterStore) error) error
}
