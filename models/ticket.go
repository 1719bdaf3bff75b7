package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Lane string

const (
	LanePriority Lane = "priority"
	LanePersonal Lane = "personal"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusOpen           Status = "open"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusClosed         Status = "closed"
)

// Engine tags are the workflow labels owned by the tag synchronizer.
// TagFinished and TagRejected are terminal markers, written once and
// never recomputed.
const (
	TagCurrent          = "current"
	TagNextUp           = "next-up"
	TagPending          = "pending"
	TagAwaitingFeedback = "awaiting-feedback"
	TagFinished         = "finished"
	TagRejected         = "rejected"
)

var engineTags = []string{TagCurrent, TagNextUp, TagPending, TagAwaitingFeedback}

var terminalTags = []string{TagFinished, TagRejected}

// Ticket is one favor request in a creator's queue.
type Ticket struct {
	ID           string          `json:"id"`
	Reference    string          `json:"reference"`
	Creator      string          `json:"creator"`
	Requester    string          `json:"requester"`
	Lane         Lane            `json:"lane"`
	Status       Status          `json:"status"`
	Title        string          `json:"title"`
	Details      string          `json:"details,omitempty"`
	TipAmount    decimal.Decimal `json:"tip_amount"`
	TicketNumber int             `json:"ticket_number,omitempty"`
	QueueNumber  int             `json:"queue_number,omitempty"`
	Tags         []string        `json:"tags"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (t *Ticket) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// EngineTag returns the workflow tag carried by the ticket, if any.
// A well-formed ticket carries at most one.
func (t *Ticket) EngineTag() (string, bool) {
	for _, tag := range t.Tags {
		if slices.Contains(engineTags, tag) {
			return tag, true
		}
	}
	return "", false
}

func IsEngineTag(tag string) bool {
	return slices.Contains(engineTags, tag)
}

// StripEngineTags returns tags with every workflow label removed,
// keeping free-form labels and terminal markers in their original order.
func StripEngineTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !slices.Contains(engineTags, tag) {
			out = append(out, tag)
		}
	}
	return out
}

type WorkflowKind int

const (
	WorkflowNone WorkflowKind = iota
	WorkflowActive
	WorkflowTerminal
)

// WorkflowState is a tagged-union view over a ticket's labels: one
// active engine tag, one terminal marker, or nothing.
type WorkflowState struct {
	Kind WorkflowKind
	Tag  string
}

// Workflow classifies the ticket. Terminal markers win over stale
// engine tags so a closed ticket never reads as active.
func (t *Ticket) Workflow() WorkflowState {
	for _, tag := range t.Tags {
		if slices.Contains(terminalTags, tag) {
			return WorkflowState{Kind: WorkflowTerminal, Tag: tag}
		}
	}
	if tag, ok := t.EngineTag(); ok {
		return WorkflowState{Kind: WorkflowActive, Tag: tag}
	}
	return WorkflowState{}
}
