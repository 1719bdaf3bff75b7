package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"favordesk/models"
)

const (
	CollectionFavors   = "favors"
	CollectionCounters = "favor_counters"
)

// PBTicketStore reads and writes favor tickets as PocketBase records.
type PBTicketStore struct {
	app core.App
}

func NewPBTicketStore(app core.App) *PBTicketStore {
	return &PBTicketStore{app: app}
}

func (s *PBTicketStore) ListByCreator(_ context.Context, creator string) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionFavors,
		"creator = {:creator}",
		"created",
		0,
		0,
		dbx.Params{"creator": creator},
	)
	if err != nil {
		return nil, fmt.Errorf("list favors for %s: %w", creator, err)
	}

	tickets := make([]models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFromRecord(record))
	}
	return tickets, nil
}

func (s *PBTicketStore) ListByStatus(_ context.Context, status models.Status) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionFavors,
		"status = {:status}",
		"created",
		0,
		0,
		dbx.Params{"status": string(status)},
	)
	if err != nil {
		return nil, fmt.Errorf("list favors by status %s: %w", status, err)
	}

	tickets := make([]models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFromRecord(record))
	}
	return tickets, nil
}

func (s *PBTicketStore) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById(CollectionFavors, id)
	if err != nil {
		return nil, ErrNotFound
	}
	ticket := ticketFromRecord(record)
	return &ticket, nil
}

func (s *PBTicketStore) GetByReference(_ context.Context, reference string) (*models.Ticket, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionFavors,
		"reference = {:reference}",
		dbx.Params{"reference": reference},
	)
	if err != nil {
		return nil, ErrNotFound
	}
	ticket := ticketFromRecord(record)
	return &ticket, nil
}

func (s *PBTicketStore) Insert(_ context.Context, ticket *models.Ticket) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId(CollectionFavors)
	if err != nil {
		return "", fmt.Errorf("find favors collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("reference", ticket.Reference)
	record.Set("creator", ticket.Creator)
	record.Set("requester", ticket.Requester)
	record.Set("lane", string(ticket.Lane))
	record.Set("status", string(ticket.Status))
	record.Set("title", ticket.Title)
	record.Set("details", ticket.Details)
	record.Set("tip_amount", ticket.TipAmount.String())
	record.Set("tags", ticket.Tags)

	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert favor %s: %w", ticket.Reference, err)
	}
	return record.Id, nil
}

func (s *PBTicketStore) Patch(_ context.Context, id string, fields map[string]any) error {
	record, err := s.app.FindRecordById(CollectionFavors, id)
	if err != nil {
		return ErrNotFound
	}

	for name, value := range fields {
		record.Set(name, value)
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("patch favor %s: %w", id, err)
	}
	return nil
}

func ticketFromRecord(record *core.Record) models.Ticket {
	tip, err := decimal.NewFromString(record.GetString("tip_amount"))
	if err != nil {
		tip = decimal.Zero
	}

	return models.Ticket{
		ID:           record.Id,
		Reference:    record.GetString("reference"),
		Creator:      record.GetString("creator"),
		Requester:    record.GetString("requester"),
		Lane:         models.Lane(record.GetString("lane")),
		Status:       models.Status(record.GetString("status")),
		Title:        record.GetString("title"),
		Details:      record.GetString("details"),
		TipAmount:    tip,
		TicketNumber: record.GetInt("ticket_number"),
		QueueNumber:  record.GetInt("queue_number"),
		Tags:         record.GetStringSlice("tags"),
		CreatedAt:    record.GetDateTime("created").Time(),
	}
}

// PBCounterStore keeps the per-creator sequence counters.
type PBCounterStore struct {
	app core.App
}

func NewPBCounterStore(app core.App) *PBCounterStore {
	return &PBCounterStore{app: app}
}

func (s *PBCounterStore) GetByCreator(_ context.Context, creator string) (*models.Counter, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionCounters,
		"creator = {:creator}",
		dbx.Params{"creator": creator},
	)
	if err != nil {
		return nil, ErrNotFound
	}

	return &models.Counter{
		ID:                 record.Id,
		Creator:            record.GetString("creator"),
		NextTicketNumber:   record.GetInt("next_ticket_number"),
		NextPersonalNumber: record.GetInt("next_personal_number"),
		NextPriorityNumber: record.GetInt("next_priority_number"),
	}, nil
}

func (s *PBCounterStore) Insert(_ context.Context, counter models.Counter) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionCounters)
	if err != nil {
		return fmt.Errorf("find counters collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("creator", counter.Creator)
	record.Set("next_ticket_number", counter.NextTicketNumber)
	record.Set("next_personal_number", counter.NextPersonalNumber)
	record.Set("next_priority_number", counter.NextPriorityNumber)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("insert counter for %s: %w", counter.Creator, err)
	}
	return nil
}

func (s *PBCounterStore) Patch(_ context.Context, id string, fields map[string]any) error {
	record, err := s.app.FindRecordById(CollectionCounters, id)
	if err != nil {
		return ErrNotFound
	}

	for name, value := range fields {
		record.Set(name, value)
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("patch counter %s: %w", id, err)
	}
	return nil
}

// PBTxRunner binds both stores to one PocketBase transaction. SQLite
// serializes the write transaction, which closes the counter
// read-increment race between concurrent approvals.
type PBTxRunner struct {
	app core.App
}

func NewPBTxRunner(app core.App) *PBTxRunner {
	return &PBTxRunner{app: app}
}

func (r *PBTxRunner) RunInTx(_ context.Context, fn func(tickets TicketStore, counters CounterStore) error) error {
	return r.app.RunInTransaction(func(txApp core.App) error {
		return fn(NewPBTicketStore(txApp), NewPBCounterStore(txApp))
	})
}

var _ TicketStore = (*PBTicketStore)(nil)
var _ CounterStore = (*PBCounterStore)(nil)
var _ TxRunner = (*PBTxRunner)(nil)
