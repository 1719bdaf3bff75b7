package services

import "favordesk/models"

// AssignTags walks the serving order and derives the workflow tag each
// ticket should carry. The active index counts only tickets that are
// actually in line: awaiting-feedback entries keep their tag and do not
// consume a slot, so the creator's "current" and "next-up" always point
// at workable tickets.
//
// Every position also reports how many tickets sit before it in the
// full ordered sequence, for "N tickets before you" displays.
func AssignTags(ordered []models.Ticket) []models.TicketPosition {
	positions := make([]models.TicketPosition, 0, len(ordered))

	activeIndex := 0
	for i, t := range ordered {
		pos := models.TicketPosition{
			Reference:       t.Reference,
			ActiveBeforeYou: i,
		}

		if t.HasTag(models.TagAwaitingFeedback) {
			pos.Tag = models.TagAwaitingFeedback
			positions = append(positions, pos)
			continue
		}

		switch activeIndex {
		case 0:
			pos.Tag = models.TagCurrent
		case 1:
			pos.Tag = models.TagNextUp
		default:
			pos.Tag = models.TagPending
			// Only replace a tag this pass owns. Anything else on the
			// ticket (corrupt or foreign state) is left as is.
			if existing, ok := t.EngineTag(); ok &&
				existing != models.TagCurrent && existing != models.TagNextUp {
				pos.Tag = existing
			}
		}
		activeIndex++
		positions = append(positions, pos)
	}

	return positions
}
