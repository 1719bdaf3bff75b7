package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"

	"favordesk/models"
	"favordesk/monitoring"
	"favordesk/store"
)

// SnapshotService turns the serving order into the display metrics each
// lane's UI needs. It recomputes from the full ticket set on every call;
// Redis only caches the rendered snapshot for a few seconds to absorb
// display polling.
type SnapshotService struct {
	tickets      store.TicketStore
	redis        *redis.Client
	pubnub       *pubnub.PubNub
	ratio        Ratio
	etaPerTicket time.Duration
	cacheTTL     time.Duration
	monitor      *monitoring.Monitor
}

func NewSnapshotService(
	tickets store.TicketStore,
	redisClient *redis.Client,
	pn *pubnub.PubNub,
	ratio Ratio,
	etaPerTicket time.Duration,
	cacheTTL time.Duration,
	monitor *monitoring.Monitor,
) *SnapshotService {
	return &SnapshotService{
		tickets:      tickets,
		redis:        redisClient,
		pubnub:       pn,
		ratio:        ratio,
		etaPerTicket: etaPerTicket,
		cacheTTL:     cacheTTL,
		monitor:      monitor,
	}
}

func snapshotCacheKey(creator string) string {
	return fmt.Sprintf("favordesk:snapshot:%s", creator)
}

// Snapshot builds the per-lane and combined queue metrics for a
// creator. General numbers come from global ticket numbers; each lane
// reports its own lane-local queue numbers so its display stays
// self-consistent.
func (s *SnapshotService) Snapshot(ctx context.Context, creator string) (*models.QueueSnapshot, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, snapshotCacheKey(creator)).Result()
		if err == nil {
			var snapshot models.QueueSnapshot
			if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
				if s.monitor != nil {
					s.monitor.TrackSnapshotCache("hit")
				}
				return &snapshot, nil
			}
		}
		if s.monitor != nil {
			s.monitor.TrackSnapshotCache("miss")
		}
	}

	tickets, err := s.tickets.ListByCreator(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", creator, err)
	}

	ordered := BuildSchedule(tickets, s.ratio)

	snapshot := &models.QueueSnapshot{
		Creator:     creator,
		General:     s.laneMetrics(ordered, func(t models.Ticket) int { return t.TicketNumber }),
		Priority:    s.laneMetrics(filterLane(ordered, models.LanePriority), func(t models.Ticket) int { return t.QueueNumber }),
		Personal:    s.laneMetrics(filterLane(ordered, models.LanePersonal), func(t models.Ticket) int { return t.QueueNumber }),
		GeneratedAt: time.Now().UTC(),
	}

	if s.monitor != nil {
		s.monitor.SetQueueActive(creator, string(models.LanePriority), snapshot.Priority.ActiveCount)
		s.monitor.SetQueueActive(creator, string(models.LanePersonal), snapshot.Personal.ActiveCount)
	}

	if s.redis != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			if err := s.redis.Set(ctx, snapshotCacheKey(creator), data, s.cacheTTL).Err(); err != nil {
				slog.Warn("snapshot cache write failed", "creator", creator, "error", err)
			}
		}
	}

	return snapshot, nil
}

// Positions returns the full computed serving order with display tags.
func (s *SnapshotService) Positions(ctx context.Context, creator string) ([]models.TicketPosition, error) {
	tickets, err := s.tickets.ListByCreator(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("positions %s: %w", creator, err)
	}
	return AssignTags(BuildSchedule(tickets, s.ratio)), nil
}

// PublishPositions pushes each requester's place in line to their
// realtime channel and the full snapshot to the creator's channel.
func (s *SnapshotService) PublishPositions(ctx context.Context, creator string) {
	if s.pubnub == nil {
		return
	}

	tickets, err := s.tickets.ListByCreator(ctx, creator)
	if err != nil {
		slog.Error("publish positions: list failed", "creator", creator, "error", err)
		return
	}

	ordered := BuildSchedule(tickets, s.ratio)
	positions := AssignTags(ordered)

	for i, pos := range positions {
		channel := fmt.Sprintf("requester-%s", ordered[i].Requester)
		s.pubnub.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":              "queue_position",
				"reference":         pos.Reference,
				"tag":               pos.Tag,
				"active_before_you": pos.ActiveBeforeYou,
			}).
			Execute()
	}

	snapshot, err := s.Snapshot(ctx, creator)
	if err != nil {
		slog.Error("publish positions: snapshot failed", "creator", creator, "error", err)
		return
	}

	s.pubnub.Publish().
		Channel(fmt.Sprintf("creator-%s", creator)).
		Message(map[string]any{
			"type":     "queue_snapshot",
			"snapshot": snapshot,
		}).
		Execute()
}

func (s *SnapshotService) laneMetrics(ordered []models.Ticket, number func(models.Ticket) int) models.LaneMetrics {
	metrics := models.LaneMetrics{ActiveCount: len(ordered)}

	if len(ordered) > 0 {
		metrics.CurrentNumber = displayNumber(number(ordered[0]))
		eta := int(time.Duration(len(ordered)) * s.etaPerTicket / time.Minute)
		metrics.EtaMins = &eta
	}
	if len(ordered) > 1 {
		metrics.NextNumber = displayNumber(number(ordered[1]))
	}

	return metrics
}

// displayNumber treats an unassigned number as "not yet numbered"
// rather than zero: approval numbering can lag the status change.
func displayNumber(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func filterLane(tickets []models.Ticket, lane models.Lane) []models.Ticket {
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Lane == lane {
			out = append(out, t)
		}
	}
	return out
}
