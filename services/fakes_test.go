package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"favordesk/models"
	"favordesk/store"
)

// memTicketStore is an in-memory TicketStore for service tests.
type memTicketStore struct {
	mu         sync.Mutex
	seq        int
	tickets    map[string]*models.Ticket
	patchCount int
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: map[string]*models.Ticket{}}
}

func (s *memTicketStore) add(t models.Ticket) *models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		s.seq++
		t.ID = fmt.Sprintf("tk%04d", s.seq)
	}
	// Mimic the store's autodate: freshly inserted tickets get a
	// creation timestamp.
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := t
	s.tickets[cp.ID] = &cp
	return &cp
}

func (s *memTicketStore) ListByCreator(_ context.Context, creator string) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ticket
	for _, t := range s.tickets {
		if t.Creator == creator {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memTicketStore) ListByStatus(_ context.Context, status models.Status) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ticket
	for _, t := range s.tickets {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memTicketStore) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTicketStore) GetByReference(_ context.Context, reference string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memTicketStore) Insert(_ context.Context, ticket *models.Ticket) (string, error) {
	t := s.add(*ticket)
	return t.ID, nil
}

func (s *memTicketStore) Patch(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return store.ErrNotFound
	}
	s.patchCount++
	for name, value := range fields {
		switch name {
		case "status":
			t.Status = models.Status(value.(string))
		case "tags":
			t.Tags = append([]string(nil), value.([]string)...)
		case "ticket_number":
			t.TicketNumber = value.(int)
		case "queue_number":
			t.QueueNumber = value.(int)
		}
	}
	return nil
}

// memCounterStore is an in-memory CounterStore. With refuseReads set it
// simulates a counter row that cannot be read back after insertion.
type memCounterStore struct {
	mu          sync.Mutex
	seq         int
	counters    map[string]*models.Counter
	refuseReads bool
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{counters: map[string]*models.Counter{}}
}

func (s *memCounterStore) GetByCreator(_ context.Context, creator string) (*models.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuseReads {
		return nil, store.ErrNotFound
	}
	c, ok := s.counters[creator]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCounterStore) Insert(_ context.Context, counter models.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	counter.ID = fmt.Sprintf("cn%04d", s.seq)
	s.counters[counter.Creator] = &counter
	return nil
}

func (s *memCounterStore) Patch(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.counters {
		if c.ID != id {
			continue
		}
		for name, value := range fields {
			switch name {
			case "next_ticket_number":
				c.NextTicketNumber = value.(int)
			case "next_personal_number":
				c.NextPersonalNumber = value.(int)
			case "next_priority_number":
				c.NextPriorityNumber = value.(int)
			}
		}
		return nil
	}
	return store.ErrNotFound
}

// memTxRunner hands both fakes to the callback; tests do not exercise
// real transaction isolation.
type memTxRunner struct {
	tickets  *memTicketStore
	counters *memCounterStore
}

func (r *memTxRunner) RunInTx(ctx context.Context, fn func(store.TicketStore, store.CounterStore) error) error {
	return fn(r.tickets, r.counters)
}

var _ store.TicketStore = (*memTicketStore)(nil)
var _ store.CounterStore = (*memCounterStore)(nil)
var _ store.TxRunner = (*memTxRunner)(nil)
