package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

// fakeTier is a scripted acquisition tier for chain tests.
type fakeTier struct {
	name      string
	available bool
	events    []models.Event
	err       error
	calls     int
}

func (f *fakeTier) Name() string    { return f.name }
func (f *fakeTier) Available() bool { return f.available }
func (f *fakeTier) TryAcquire(ctx context.Context, w Window) ([]models.Event, error) {
	f.calls++
	return f.events, f.err
}

func testConfig() models.CalendarConfig {
	cfg := models.DefaultConfig().Calendar
	return cfg
}

func newTestAcquirer(t *testing.T, tiers []Tier, cfg models.CalendarConfig) (*Acquirer, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	a := NewAcquirer(tiers, NewFilter(cfg), cfg)
	a.now = func() time.Time { return now }
	return a, now
}

func eventAt(title string, start time.Time, confidence float64) models.Event {
	return models.Event{
		ID:         title,
		Title:      title,
		Start:      start,
		End:        start.Add(30 * time.Minute),
		Confidence: confidence,
	}
}

func TestTierFallbackOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	broker := &fakeTier{name: "broker", available: true, err: errors.New("timeout")}
	store := &fakeTier{name: "store", available: true,
		events: []models.Event{eventAt("From Store", now.Add(time.Hour), 0.7)}}
	file := &fakeTier{name: "file", available: true,
		events: []models.Event{eventAt("From File", now.Add(time.Hour), 0.5)}}

	a, _ := newTestAcquirer(t, []Tier{broker, store, file}, testConfig())
	events := a.Events(context.Background())

	if len(events) != 1 || events[0].Title != "From Store" {
		t.Fatalf("Events = %+v, want single From Store", events)
	}
	if file.calls != 0 {
		t.Error("file tier consulted although store tier already yielded")
	}
}

func TestUnavailableTierSkippedSilently(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	broker := &fakeTier{name: "broker", available: false}
	file := &fakeTier{name: "file", available: true,
		events: []models.Event{eventAt("From File", now.Add(time.Hour), 0.5)}}

	a, _ := newTestAcquirer(t, []Tier{broker, file}, testConfig())
	events := a.Events(context.Background())

	if broker.calls != 0 {
		t.Error("unavailable tier should never be tried")
	}
	if len(events) != 1 {
		t.Fatalf("Events = %d, want 1", len(events))
	}
}

func TestAllTiersFailingYieldsEmptyList(t *testing.T) {
	broker := &fakeTier{name: "broker", available: true, err: errors.New("timeout")}
	store := &fakeTier{name: "store", available: true, err: errors.New("locked")}

	a, _ := newTestAcquirer(t, []Tier{broker, store}, testConfig())
	events := a.Events(context.Background())

	if len(events) != 0 {
		t.Fatalf("Events = %d, want 0 (valid empty result)", len(events))
	}
}

func TestCrossTierDedupePrefersConfidence(t *testing.T) {
	cfg := testConfig()
	cfg.CombineTiers = true

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	start := now.Add(2 * time.Hour)
	broker := &fakeTier{name: "broker", available: true,
		events: []models.Event{eventAt("Team Sync", start, 0.9)}}
	store := &fakeTier{name: "store", available: true,
		events: []models.Event{eventAt("Team Sync", start, 0.7)}}

	a, _ := newTestAcquirer(t, []Tier{broker, store}, cfg)
	events := a.Events(context.Background())

	if len(events) != 1 {
		t.Fatalf("Events = %d, want exactly 1 after dedupe", len(events))
	}
	if events[0].Confidence != 0.9 {
		t.Errorf("kept confidence %v, want the higher copy (0.9)", events[0].Confidence)
	}
}

func TestExcludedEventsNeverSurface(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	store := &fakeTier{name: "store", available: true, events: []models.Event{
		eventAt("Jane's Birthday", now.Add(time.Hour), 0.7),
		eventAt("Team Sync", now.Add(2*time.Hour), 0.7),
	}}

	a, _ := newTestAcquirer(t, []Tier{store}, testConfig())
	events := a.Events(context.Background())

	for _, ev := range events {
		if ev.Title == "Jane's Birthday" {
			t.Error("suppressed event surfaced in acquisition output")
		}
	}
	if len(events) != 1 {
		t.Fatalf("Events = %d, want 1", len(events))
	}
}

func TestDayBucketOrdering(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	today := time.Date(2026, 3, 10, 16, 0, 0, 0, time.Local)
	tomorrowEarly := time.Date(2026, 3, 11, 7, 0, 0, 0, time.Local)
	nextWeek := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	store := &fakeTier{name: "store", available: true, events: []models.Event{
		eventAt("Next Week", nextWeek, 0.7),
		eventAt("Tomorrow Early", tomorrowEarly, 0.7),
		eventAt("Today Late", today, 0.7),
		eventAt("Today Morning", now.Add(time.Hour), 0.7),
	}}

	a, _ := newTestAcquirer(t, []Tier{store}, testConfig())
	events := a.Events(context.Background())

	want := []string{"Today Morning", "Today Late", "Tomorrow Early", "Next Week"}
	if len(events) != len(want) {
		t.Fatalf("Events = %d, want %d", len(events), len(want))
	}
	for i, title := range want {
		if events[i].Title != title {
			t.Errorf("position %d = %q, want %q", i, events[i].Title, title)
		}
	}
}

func TestResultCachedWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	store := &fakeTier{name: "store", available: true,
		events: []models.Event{eventAt("Team Sync", now.Add(time.Hour), 0.7)}}

	a, _ := newTestAcquirer(t, []Tier{store}, testConfig())
	a.Events(context.Background())
	a.Events(context.Background())

	if store.calls != 1 {
		t.Errorf("tier consulted %d times within TTL, want 1", store.calls)
	}

	a.Invalidate()
	a.Events(context.Background())
	if store.calls != 2 {
		t.Errorf("tier consulted %d times after invalidate, want 2", store.calls)
	}
}

func TestTruncationToMaxEvents(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEvents = 3

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	events := []models.Event{}
	for i := 0; i < 6; i++ {
		events = append(events, eventAt(
			string(rune('A'+i))+" meeting", now.Add(time.Duration(i+1)*time.Hour), 0.7))
	}
	store := &fakeTier{name: "store", available: true, events: events}

	a, _ := newTestAcquirer(t, []Tier{store}, cfg)
	got := a.Events(context.Background())
	if len(got) != 3 {
		t.Fatalf("Events = %d, want truncation to 3", len(got))
	}
}
