package services

import (
	"sort"

	"favordesk/models"
)

// Ratio controls how many tickets each lane contributes per interleave
// cycle. The default serves three paid requests for every free one.
type Ratio struct {
	PriorityPerCycle int
	PersonalPerCycle int
}

var DefaultRatio = Ratio{PriorityPerCycle: 3, PersonalPerCycle: 1}

func (r Ratio) normalized() Ratio {
	if r.PriorityPerCycle <= 0 && r.PersonalPerCycle <= 0 {
		return DefaultRatio
	}
	if r.PriorityPerCycle < 0 {
		r.PriorityPerCycle = 0
	}
	if r.PersonalPerCycle < 0 {
		r.PersonalPerCycle = 0
	}
	return r
}

// BuildSchedule produces the serving order for one creator's tickets.
// Only approved tickets appear. The manually chosen current ticket goes
// first, awaiting-feedback tickets follow in creation order, and the
// rest interleave lane by lane per the ratio, FIFO within each lane.
//
// The output is deterministic for a fixed input set: ordering depends
// only on createdAt with the reference code as final tie-break, never
// on input order.
func BuildSchedule(tickets []models.Ticket, ratio Ratio) []models.Ticket {
	ratio = ratio.normalized()

	var current *models.Ticket
	var awaiting []models.Ticket
	var priority []models.Ticket
	var personal []models.Ticket

	for _, t := range tickets {
		if t.Status != models.StatusApproved {
			continue
		}
		switch {
		case t.HasTag(models.TagCurrent):
			// A ticket tagged both current and awaiting-feedback can
			// only come from corrupt data; current wins placement and
			// the ticket is not placed twice.
			if current == nil || byAge(t, *current) {
				if current != nil {
					awaiting, priority, personal = place(*current, awaiting, priority, personal)
				}
				cp := t
				current = &cp
			} else {
				awaiting, priority, personal = place(t, awaiting, priority, personal)
			}
		case t.HasTag(models.TagAwaitingFeedback):
			awaiting = append(awaiting, t)
		case t.Lane == models.LanePriority:
			priority = append(priority, t)
		default:
			personal = append(personal, t)
		}
	}

	sortByAge(awaiting)
	sortByAge(priority)
	sortByAge(personal)

	ordered := make([]models.Ticket, 0, len(awaiting)+len(priority)+len(personal)+1)
	if current != nil {
		ordered = append(ordered, *current)
	}
	ordered = append(ordered, awaiting...)

	// Repeating cycle: up to PriorityPerCycle priority tickets, then up
	// to PersonalPerCycle personal ones, until both lanes drain.
	for len(priority) > 0 || len(personal) > 0 {
		fromPriority := min(ratio.PriorityPerCycle, len(priority))
		ordered = append(ordered, priority[:fromPriority]...)
		priority = priority[fromPriority:]

		fromPersonal := min(ratio.PersonalPerCycle, len(personal))
		ordered = append(ordered, personal[:fromPersonal]...)
		personal = personal[fromPersonal:]

		// A lane with a zero share contributes nothing once the other
		// lane drains; flush the remainder FIFO instead of cycling
		// without progress.
		if fromPriority == 0 && fromPersonal == 0 {
			ordered = append(ordered, priority...)
			ordered = append(ordered, personal...)
			break
		}
	}

	return ordered
}

// place routes a demoted duplicate "current" ticket back into the group
// it would otherwise belong to.
func place(t models.Ticket, awaiting, priority, personal []models.Ticket) ([]models.Ticket, []models.Ticket, []models.Ticket) {
	switch {
	case t.HasTag(models.TagAwaitingFeedback):
		awaiting = append(awaiting, t)
	case t.Lane == models.LanePriority:
		priority = append(priority, t)
	default:
		personal = append(personal, t)
	}
	return awaiting, priority, personal
}

func byAge(a, b models.Ticket) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.Reference < b.Reference
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func sortByAge(tickets []models.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return byAge(tickets[i], tickets[j])
	})
}
