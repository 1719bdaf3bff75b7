package models

import "time"

// TicketPosition is one entry of the computed serving order: the
// workflow tag a ticket should carry plus how many tickets sit before
// it in the full ordered sequence.
type TicketPosition struct {
	Reference       string `json:"reference"`
	Tag             string `json:"tag"`
	ActiveBeforeYou int    `json:"active_before_you"`
}

// LaneMetrics is what a lane's display needs: the number being served,
// the number up next, how many tickets are active and a rough wait.
// Numbers are nil when the slot is empty or the ticket has not been
// numbered yet.
type LaneMetrics struct {
	CurrentNumber *int `json:"current_number"`
	NextNumber    *int `json:"next_number"`
	ActiveCount   int  `json:"active_count"`
	EtaMins       *int `json:"eta_mins"`
}

// QueueSnapshot aggregates the display metrics for both lanes plus the
// combined view. General numbers are global ticket numbers; lane
// numbers are lane-local queue numbers.
type QueueSnapshot struct {
	Creator     string      `json:"creator"`
	Personal    LaneMetrics `json:"personal"`
	Priority    LaneMetrics `json:"priority"`
	General     LaneMetrics `json:"general"`
	GeneratedAt time.Time   `json:"generated_at"`
}
