package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/arbiter"
	"github.com/heytcass/gnome-at-a-glance/pkg/calendar"
	"github.com/heytcass/gnome-at-a-glance/pkg/meeting"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

type stubTier struct {
	events []models.Event
}

func (s *stubTier) Name() string    { return "stub" }
func (s *stubTier) Available() bool { return true }
func (s *stubTier) TryAcquire(ctx context.Context, w calendar.Window) ([]models.Event, error) {
	return s.events, nil
}

type stubWeather struct{ w models.Weather }

func (s stubWeather) Fetch(ctx context.Context) models.Weather { return s.w }

type stubTasks struct{ tasks []models.Task }

func (s stubTasks) Fetch(ctx context.Context) []models.Task { return s.tasks }

type stubSystem struct{ status models.SystemStatus }

func (s stubSystem) Fetch(ctx context.Context) models.SystemStatus { return s.status }

func newTestPipeline(t *testing.T, cfg *models.Config, events []models.Event) *Pipeline {
	t.Helper()
	acq := calendar.NewAcquirer(
		[]calendar.Tier{&stubTier{events: events}},
		calendar.NewFilter(cfg.Calendar), cfg.Calendar)

	p := New(cfg, acq,
		meeting.NewExtractor(cfg.Meetings),
		arbiter.New(nil, nil, cfg),
		stubWeather{w: models.Weather{Temp: "68°F", Condition: "Clear"}},
		stubTasks{},
		stubSystem{status: models.SystemStatus{BatteryPercent: -1}})
	return p
}

func TestRunOnceAlwaysYieldsSnapshot(t *testing.T) {
	cfg := models.DefaultConfig()
	p := newTestPipeline(t, cfg, nil)

	snapshot := p.RunOnce(context.Background())
	if snapshot == nil {
		t.Fatal("RunOnce returned nil")
	}
	if snapshot.TopLine == "" {
		t.Error("snapshot has an empty top line")
	}
	if snapshot.ID == "" {
		t.Error("snapshot has no id")
	}
	if snapshot.TopSource != "weather" {
		t.Errorf("TopSource = %q, want weather with no events or tasks", snapshot.TopSource)
	}
	if got := p.Current(); got != snapshot {
		t.Error("Current does not return the published snapshot")
	}
}

func TestRunOnceCarriesEventsThrough(t *testing.T) {
	cfg := models.DefaultConfig()
	// Relative to the wall clock: the acquirer windows on real time.
	start := time.Now().Add(10*time.Minute + 30*time.Second)
	events := []models.Event{{
		ID:    "ev-1",
		Title: "Standup",
		Start: start,
		End:   start.Add(15 * time.Minute),
	}}
	p := newTestPipeline(t, cfg, events)

	snapshot := p.RunOnce(context.Background())
	if len(snapshot.Events) != 1 {
		t.Fatalf("snapshot has %d events, want 1", len(snapshot.Events))
	}
	if snapshot.TopLine != "Standup in 10m" {
		t.Errorf("TopLine = %q, want imminent-event line", snapshot.TopLine)
	}
	if !snapshot.Meetings.HasMeetings || snapshot.Meetings.Next == nil {
		t.Errorf("meeting summary missing: %+v", snapshot.Meetings)
	}
}

func TestCycleNumbersIncrease(t *testing.T) {
	cfg := models.DefaultConfig()
	p := newTestPipeline(t, cfg, nil)

	first := p.RunOnce(context.Background())
	second := p.RunOnce(context.Background())
	if first.Cycle != 0 || second.Cycle != 1 {
		t.Errorf("cycles = %d, %d; want 0, 1", first.Cycle, second.Cycle)
	}
}

func TestPublishDiscardsStaleCycle(t *testing.T) {
	cfg := models.DefaultConfig()
	p := newTestPipeline(t, cfg, nil)

	newer := &models.StatusSnapshot{TopLine: "new", Cycle: 5}
	older := &models.StatusSnapshot{TopLine: "old", Cycle: 3}

	if !p.publish(newer) {
		t.Fatal("publishing the newer snapshot failed")
	}
	if p.publish(older) {
		t.Error("stale snapshot was published over a newer one")
	}
	if got := p.Current(); got.TopLine != "new" {
		t.Errorf("Current = %q, want the newer snapshot retained", got.TopLine)
	}
}

func TestStateFileWrittenAtomically(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.StatePath = filepath.Join(t.TempDir(), "state", "snapshot.json")
	p := newTestPipeline(t, cfg, nil)

	snapshot := p.RunOnce(context.Background())

	data, err := os.ReadFile(cfg.StatePath)
	if err != nil {
		t.Fatalf("state file not written: %v", err)
	}
	var onDisk models.StatusSnapshot
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if onDisk.TopLine != snapshot.TopLine {
		t.Errorf("state TopLine = %q, want %q", onDisk.TopLine, snapshot.TopLine)
	}
	if _, err := os.Stat(cfg.StatePath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after rename")
	}
}

func TestStateWriteKeepsNewestCycle(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.StatePath = filepath.Join(t.TempDir(), "snapshot.json")
	p := newTestPipeline(t, cfg, nil)

	newer := &models.StatusSnapshot{TopLine: "new", Cycle: 5}
	older := &models.StatusSnapshot{TopLine: "old", Cycle: 4}

	// The older cycle's write arrives after the newer one, as happens
	// when a slow cycle finishes late; it must not overwrite the file.
	p.writeStateOrdered(newer)
	p.writeStateOrdered(older)

	data, err := os.ReadFile(cfg.StatePath)
	if err != nil {
		t.Fatalf("reading state file: %v", err)
	}
	var onDisk models.StatusSnapshot
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if onDisk.Cycle != 5 || onDisk.TopLine != "new" {
		t.Errorf("state file holds cycle %d (%q), want the newer cycle 5", onDisk.Cycle, onDisk.TopLine)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.UpdateIntervalSec = 1
	p := newTestPipeline(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// The initial synchronous cycle publishes before Run starts ticking.
	deadline := time.After(2 * time.Second)
	for p.Current() == nil {
		select {
		case <-deadline:
			t.Fatal("no snapshot published before deadline")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
