package meeting

import (
	"fmt"
	"sync"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

// Extractor computes per-event meeting context with a short-lived cache
// keyed by (event id, start), so repeated lookups within a polling cycle
// do not recompute the regex scans.
type Extractor struct {
	horizon  time.Duration
	cacheTTL time.Duration
	maxPrep  int

	mu    sync.Mutex
	cache map[string]cachedContext
}

type cachedContext struct {
	ctx models.MeetingContext
	at  time.Time
}

// NewExtractor builds an extractor from config.
func NewExtractor(cfg models.MeetingsConfig) *Extractor {
	return &Extractor{
		horizon:  time.Duration(cfg.UpcomingHorizonMin) * time.Minute,
		cacheTTL: time.Duration(cfg.ContextCacheTTLMin) * time.Minute,
		maxPrep:  cfg.MaxPreparationTasks,
		cache:    map[string]cachedContext{},
	}
}

// Context returns the meeting context for one event, cached briefly.
func (x *Extractor) Context(event models.Event, now time.Time) models.MeetingContext {
	key := event.ID + "|" + event.Start.Format(time.RFC3339)

	x.mu.Lock()
	if entry, ok := x.cache[key]; ok && now.Sub(entry.at) < x.cacheTTL {
		x.mu.Unlock()
		return entry.ctx
	}
	x.mu.Unlock()

	ctx := BuildContext(event, x.maxPrep)

	x.mu.Lock()
	x.cache[key] = cachedContext{ctx: ctx, at: now}
	// Lazy sweep: drop anything stale while we hold the lock.
	for k, entry := range x.cache {
		if now.Sub(entry.at) >= x.cacheTTL {
			delete(x.cache, k)
		}
	}
	x.mu.Unlock()

	return ctx
}

// EventContext pairs an event with its enrichment.
type EventContext struct {
	Event   models.Event
	Context models.MeetingContext
}

// UpcomingWithContext returns events starting within the horizon (default
// 4 hours), each with its meeting context, sorted by start time. All-day
// events carry no meeting context and are skipped.
func (x *Extractor) UpcomingWithContext(events []models.Event, now time.Time) []EventContext {
	out := []EventContext{}
	for _, event := range events {
		if event.AllDay {
			continue
		}
		until := event.Start.Sub(now)
		if until < -time.Minute || until > x.horizon {
			continue
		}
		out = append(out, EventContext{Event: event, Context: x.Context(event, now)})
	}
	// Input is already sorted by start within day buckets; a horizon this
	// short never spans buckets out of order, so order is preserved.
	return out
}

// Summarize reduces the upcoming meetings to the compact signal consumed
// by the arbiter and the advisory prompt.
func (x *Extractor) Summarize(events []models.Event, now time.Time) models.MeetingSummary {
	upcoming := x.UpcomingWithContext(events, now)
	if len(upcoming) == 0 {
		return models.MeetingSummary{}
	}

	first := upcoming[0]
	minutesUntil := int(first.Event.Start.Sub(now).Minutes())
	if minutesUntil < 0 {
		minutesUntil = 0
	}

	next := &models.NextMeeting{
		Title:              first.Event.Title,
		MinutesUntil:       minutesUntil,
		Urgency:            first.Context.Urgency,
		HasLink:            len(first.Context.Links) > 0,
		HasPreparation:     len(first.Context.PreparationTasks) > 0,
		PreparationMinutes: first.Context.PreparationMinutes,
		MeetingType:        first.Context.MeetingType,
	}

	human := fmt.Sprintf("Next: %s in %dm", next.Title, next.MinutesUntil)
	if next.MinutesUntil == 0 {
		human = fmt.Sprintf("Next: %s now", next.Title)
	}
	if next.HasPreparation {
		human += fmt.Sprintf(" (prep %dm)", next.PreparationMinutes)
	}
	if len(upcoming) > 1 {
		human += fmt.Sprintf(", %d more upcoming", len(upcoming)-1)
	}

	return models.MeetingSummary{
		HasMeetings:   true,
		Next:          next,
		TotalUpcoming: len(upcoming),
		Human:         human,
	}
}
