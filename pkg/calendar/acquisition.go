package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// Window is the time range a tier is asked to cover.
type Window struct {
	Since time.Time
	Until time.Time
}

// Tier is one acquisition strategy in the ordered fallback chain. A tier
// that cannot work on this machine reports Available()==false once and is
// skipped without being treated as an error.
type Tier interface {
	Name() string
	Available() bool
	TryAcquire(ctx context.Context, w Window) ([]models.Event, error)
}

// Acquirer runs the tier chain: tiers are tried strictly in order until
// one yields at least one event, or all are exhausted. An empty result is
// a valid outcome, not an error.
type Acquirer struct {
	tiers   []Tier
	filter  *Filter
	combine bool

	horizonDays int
	maxEvents   int
	cacheTTL    time.Duration

	mu       sync.Mutex
	cached   []models.Event
	cachedAt time.Time

	now func() time.Time
}

// NewAcquirer builds the acquisition chain from the configured tiers.
func NewAcquirer(tiers []Tier, filter *Filter, cfg models.CalendarConfig) *Acquirer {
	return &Acquirer{
		tiers:       tiers,
		filter:      filter,
		combine:     cfg.CombineTiers,
		horizonDays: cfg.HorizonDays,
		maxEvents:   cfg.MaxEvents,
		cacheTTL:    time.Duration(cfg.CacheTTLMin) * time.Minute,
		now:         time.Now,
	}
}

// Events returns the merged, filtered, sorted event list for the horizon
// starting at now. Results are cached for a short TTL so repeated calls
// within one polling interval do not rescan the tiers.
func (a *Acquirer) Events(ctx context.Context) []models.Event {
	now := a.now()

	a.mu.Lock()
	if a.cached != nil && now.Sub(a.cachedAt) < a.cacheTTL {
		cached := a.cached
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	w := Window{Since: startOfDay(now), Until: startOfDay(now).AddDate(0, 0, a.horizonDays)}
	merged := map[string]models.Event{}

	for _, tier := range a.tiers {
		if !tier.Available() {
			log.WithField("tier", tier.Name()).Debug("tier unavailable, skipping")
			continue
		}

		events, err := tier.TryAcquire(ctx, w)
		if err != nil {
			log.WithField("tier", tier.Name()).WithError(err).Warn("tier failed, falling through")
			continue
		}

		kept := a.merge(merged, events, w)
		log.WithFields(log.Fields{"tier": tier.Name(), "yield": len(events), "kept": kept}).
			Debug("tier consulted")

		if len(merged) > 0 && !a.combine {
			break
		}
	}

	result := sortEvents(mapValues(merged), now)
	if len(result) > a.maxEvents {
		result = result[:a.maxEvents]
	}

	a.mu.Lock()
	a.cached = result
	a.cachedAt = now
	a.mu.Unlock()

	return result
}

// Invalidate drops the cached result so the next call rescans the tiers.
func (a *Acquirer) Invalidate() {
	a.mu.Lock()
	a.cached = nil
	a.mu.Unlock()
}

// merge screens a tier's raw yield and folds it into the candidate map,
// deduplicating by (title, start) and preferring the higher-confidence
// copy when tiers disagree.
func (a *Acquirer) merge(merged map[string]models.Event, events []models.Event, w Window) int {
	kept := 0
	for _, event := range events {
		if !event.End.After(w.Since) || !event.Start.Before(w.Until) {
			continue
		}
		if a.filter.ShouldExclude(event) {
			log.WithField("title", event.Title).Debug("excluded by pattern")
			continue
		}
		event.Categories = []models.Category{a.filter.Categorize(event)}

		key := event.Key()
		if existing, ok := merged[key]; ok && existing.Confidence >= event.Confidence {
			continue
		}
		merged[key] = event
		kept++
	}
	return kept
}

// sortEvents orders events by day bucket (today, tomorrow, rest of the
// horizon), ascending by start within each bucket.
func sortEvents(events []models.Event, now time.Time) []models.Event {
	sort.SliceStable(events, func(i, j int) bool {
		bi, bj := dayBucket(events[i].Start, now), dayBucket(events[j].Start, now)
		if bi != bj {
			return bi < bj
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

func dayBucket(t, now time.Time) int {
	today := startOfDay(now)
	switch {
	case t.Before(today.AddDate(0, 0, 1)):
		return 0 // today (and anything already running)
	case t.Before(today.AddDate(0, 0, 2)):
		return 1 // tomorrow
	default:
		return 2
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func mapValues(m map[string]models.Event) []models.Event {
	out := make([]models.Event, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	// Deterministic base order before the stable sort.
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
