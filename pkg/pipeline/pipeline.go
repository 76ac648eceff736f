// Package pipeline runs the periodic status cycle: fan out to the data
// collaborators, enrich, arbitrate, publish one StatusSnapshot.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heytcass/gnome-at-a-glance/pkg/arbiter"
	"github.com/heytcass/gnome-at-a-glance/pkg/calendar"
	"github.com/heytcass/gnome-at-a-glance/pkg/meeting"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// WeatherFetcher, TaskFetcher, and SystemFetcher are the opaque
// request/response collaborators. Their implementations live in
// pkg/sources; the pipeline only needs the contract.
type WeatherFetcher interface {
	Fetch(ctx context.Context) models.Weather
}

type TaskFetcher interface {
	Fetch(ctx context.Context) []models.Task
}

type SystemFetcher interface {
	Fetch(ctx context.Context) models.SystemStatus
}

// Pipeline owns all shared state: it is constructed once and threaded
// into the components that need it, never reached through globals.
type Pipeline struct {
	cfg      *models.Config
	acquirer *calendar.Acquirer
	meetings *meeting.Extractor
	arbiter  *arbiter.Arbiter
	weather  WeatherFetcher
	tasks    TaskFetcher
	system   SystemFetcher

	mu        sync.Mutex
	current   *models.StatusSnapshot
	nextCycle uint64

	// writeMu serializes state-file writes; writeSeq is the cycle after
	// the newest one written, so a slow older cycle cannot overwrite a
	// newer file on disk.
	writeMu  sync.Mutex
	writeSeq uint64

	now func() time.Time
}

// New wires the pipeline together.
func New(cfg *models.Config, acq *calendar.Acquirer, mx *meeting.Extractor,
	arb *arbiter.Arbiter, weather WeatherFetcher, tasks TaskFetcher, system SystemFetcher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		acquirer: acq,
		meetings: mx,
		arbiter:  arb,
		weather:  weather,
		tasks:    tasks,
		system:   system,
		now:      time.Now,
	}
}

// Run drives cycles on a fixed interval until the context is cancelled.
// Each cycle runs in its own goroutine so a slow advisory call can never
// delay the next tick; stale results are discarded at publish time.
func (p *Pipeline) Run(ctx context.Context) error {
	p.runCycle(ctx)

	ticker := time.NewTicker(p.cfg.UpdateInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			go p.runCycle(ctx)
		}
	}
}

// RunOnce executes a single cycle and returns its snapshot.
func (p *Pipeline) RunOnce(ctx context.Context) *models.StatusSnapshot {
	return p.runCycle(ctx)
}

// Current returns the last published snapshot, or nil before the first
// cycle completes.
func (p *Pipeline) Current() *models.StatusSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Pipeline) runCycle(ctx context.Context) *models.StatusSnapshot {
	p.mu.Lock()
	seq := p.nextCycle
	p.nextCycle++
	p.mu.Unlock()

	started := p.now()
	logger := log.WithField("cycle", seq)

	// The four collaborators are independent; fetch them concurrently
	// and join. A failed source contributes its placeholder value.
	var (
		wg      sync.WaitGroup
		events  []models.Event
		weather models.Weather
		tasks   []models.Task
		system  models.SystemStatus
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		events = p.acquirer.Events(ctx)
	}()
	go func() {
		defer wg.Done()
		weather = p.weather.Fetch(ctx)
	}()
	go func() {
		defer wg.Done()
		tasks = p.tasks.Fetch(ctx)
	}()
	go func() {
		defer wg.Done()
		system = p.system.Fetch(ctx)
	}()
	wg.Wait()

	now := p.now()
	summary := p.meetings.Summarize(events, now)

	decision := p.arbiter.Decide(ctx, arbiter.Inputs{
		Now:      now,
		Events:   events,
		Meetings: summary,
		Tasks:    tasks,
		Weather:  weather,
		System:   system,
	})

	snapshot := &models.StatusSnapshot{
		ID:          uuid.NewString(),
		TopLine:     decision.Line,
		TopSource:   decision.Source,
		Weather:     weather,
		Events:      events,
		Tasks:       tasks,
		System:      system,
		Meetings:    summary,
		Advisory:    decision.Advisory,
		GeneratedAt: now,
		Cycle:       seq,
	}

	if !p.publish(snapshot) {
		logger.Debug("discarding stale cycle result")
		return snapshot
	}

	logger.WithFields(log.Fields{
		"top":      decision.Line,
		"source":   decision.Source,
		"events":   len(events),
		"tasks":    len(tasks),
		"duration": p.now().Sub(started).Round(time.Millisecond),
	}).Info("cycle complete")

	return snapshot
}

// publish atomically replaces the current snapshot, unless a newer cycle
// already published (latest-wins, no backlog of stale results).
func (p *Pipeline) publish(snapshot *models.StatusSnapshot) bool {
	p.mu.Lock()
	if p.current != nil && p.current.Cycle > snapshot.Cycle {
		p.mu.Unlock()
		return false
	}
	p.current = snapshot
	p.mu.Unlock()

	if p.cfg.StatePath != "" {
		p.writeStateOrdered(snapshot)
	}
	return true
}

// writeStateOrdered mirrors the snapshot to disk unless a newer cycle
// already wrote. The in-memory check in publish is not enough on its
// own: an older cycle can pass it, lose the CPU inside the file write,
// and land after a newer cycle's write.
func (p *Pipeline) writeStateOrdered(snapshot *models.StatusSnapshot) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if snapshot.Cycle+1 < p.writeSeq {
		return
	}
	p.writeSeq = snapshot.Cycle + 1
	p.writeState(snapshot)
}

// writeState mirrors the snapshot to disk for the panel consumer.
// Best-effort; the in-memory snapshot is authoritative.
func (p *Pipeline) writeState(snapshot *models.StatusSnapshot) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		log.WithError(err).Warn("cannot marshal snapshot")
		return
	}
	path := p.cfg.StatePath
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.WithError(err).Warn("cannot create state directory")
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		log.WithError(err).Warn("cannot write snapshot state")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.WithError(err).Warn("cannot replace snapshot state")
	}
}
