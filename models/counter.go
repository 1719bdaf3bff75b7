package models

// Counter holds the per-creator monotonic sequence numbers. One row per
// creator, lazily created on first approval and only ever incremented.
type Counter struct {
	ID                 string `json:"id"`
	Creator            string `json:"creator"`
	NextTicketNumber   int    `json:"next_ticket_number"`
	NextPersonalNumber int    `json:"next_personal_number"`
	NextPriorityNumber int    `json:"next_priority_number"`
}

// NewCounter returns the initial counter state for a creator.
func NewCounter(creator string) Counter {
	return Counter{
		Creator:            creator,
		NextTicketNumber:   1,
		NextPersonalNumber: 1,
		NextPriorityNumber: 1,
	}
}

// NextForLane returns the lane-local sequence number for the given lane.
func (c *Counter) NextForLane(lane Lane) int {
	if lane == LanePriority {
		return c.NextPriorityNumber
	}
	return c.NextPersonalNumber
}
