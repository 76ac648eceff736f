// Package arbiter turns all collected signals into the single ranked
// status line. Critical deterministic rules run first, then the metered
// advisory call, then a deterministic fallback ladder whose final rung
// always produces a result.
package arbiter

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/advisor"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

const imminentWindow = 15 * time.Minute

// Inputs is everything the arbiter considers for one cycle. Sources that
// failed upstream arrive as their placeholder values, never as nils that
// could abort arbitration.
type Inputs struct {
	Now      time.Time
	Events   []models.Event
	Meetings models.MeetingSummary
	Tasks    []models.Task
	Weather  models.Weather
	System   models.SystemStatus
}

// Decision is the arbitration result.
type Decision struct {
	Line     string
	Source   string // critical | advisory | event | task | weather
	Advisory string // set when the advisory tier produced the line
}

// Arbiter ranks the signals. The advisory client may be nil, in which
// case the deterministic ladder always runs.
type Arbiter struct {
	advisor          advisor.Advisor
	cache            *advisor.Cache
	batteryThreshold int
	maxRunes         int
	horizon          time.Duration
}

// New builds an arbiter. cache must be non-nil when adv is non-nil.
func New(adv advisor.Advisor, cache *advisor.Cache, cfg *models.Config) *Arbiter {
	return &Arbiter{
		advisor:          adv,
		cache:            cache,
		batteryThreshold: cfg.System.BatteryThreshold,
		maxRunes:         cfg.TopLineMaxRunes,
		horizon:          time.Duration(cfg.Meetings.UpcomingHorizonMin) * time.Minute,
	}
}

// Decide produces the status line. It never returns an empty line: the
// weather rung of the fallback ladder cannot fail.
func (a *Arbiter) Decide(ctx context.Context, in Inputs) Decision {
	if line, ok := a.critical(in); ok {
		return Decision{Line: a.truncate(line), Source: "critical"}
	}

	if line, ok := a.advisory(ctx, in); ok {
		return Decision{Line: a.truncate(line), Source: "advisory", Advisory: line}
	}

	line, source := a.fallback(in)
	return Decision{Line: a.truncate(line), Source: source}
}

// critical is the deterministic tier that pre-empts everything else. It
// is never gated by quota.
func (a *Arbiter) critical(in Inputs) (string, bool) {
	if in.System.BatteryPercent >= 0 && in.System.BatteryPercent < a.batteryThreshold {
		return fmt.Sprintf("⚠ Battery %d%%", in.System.BatteryPercent), true
	}
	if n := len(in.System.FailedUnits); n > 0 {
		if n == 1 {
			return fmt.Sprintf("⚠ %s failed", in.System.FailedUnits[0]), true
		}
		return fmt.Sprintf("⚠ %d services failed", n), true
	}
	return "", false
}

// advisory consults the external advisory function through the cache.
// Any failure, rate limit, or empty answer falls through silently.
func (a *Arbiter) advisory(ctx context.Context, in Inputs) (string, bool) {
	if a.advisor == nil || a.cache == nil {
		return "", false
	}

	payload := a.buildPayload(in)
	key := a.cache.BucketKey(advisor.CallPrioritization, fingerprint(payload))

	if cached, ok := a.cache.GetCached(key); ok && strings.TrimSpace(cached) != "" {
		return cached, true
	}
	if !a.cache.CanMakeRequest(advisor.CallPrioritization) {
		return "", false
	}

	// Counted before the call so in-flight requests consume quota even
	// when the remote side later fails.
	a.cache.RecordRequest(advisor.CallPrioritization)

	line, err := a.advisor.Generate(ctx, advisor.CallPrioritization, payload)
	if err != nil {
		log.WithError(err).Debug("advisory call failed, using deterministic fallback")
		return "", false
	}
	// An empty answer is treated exactly like a failed call: fall
	// through to the ladder and leave the cache untouched.
	if strings.TrimSpace(line) == "" {
		log.Debug("advisory returned an empty answer, using deterministic fallback")
		return "", false
	}
	a.cache.SetCached(key, advisor.CallPrioritization, line)
	return line, true
}

// buildPayload assembles the compact context the advisory prompt gets:
// one headline per signal, bounded length.
func (a *Arbiter) buildPayload(in Inputs) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Time: %s (%s)\n", in.Now.Format("Mon 3:04 PM"), timeOfDayBucket(in.Now))

	if len(in.Events) > 0 {
		first := in.Events[0]
		fmt.Fprintf(&b, "Calendar: %d events, first %q at %s\n",
			len(in.Events), first.Title, first.Start.Format("3:04 PM"))
	} else {
		b.WriteString("Calendar: no events\n")
	}

	if in.Meetings.Next != nil {
		fmt.Fprintf(&b, "Meetings: %s\n", in.Meetings.Human)
	}

	if headline := taskHeadline(in.Tasks); headline != "" {
		fmt.Fprintf(&b, "Tasks: %s\n", headline)
	}

	fmt.Fprintf(&b, "Weather: %s %s\n", in.Weather.Temp, in.Weather.Condition)

	if in.System.BatteryPercent >= 0 {
		fmt.Fprintf(&b, "Battery: %d%%\n", in.System.BatteryPercent)
	}

	b.WriteString("What single line should the status bar show?")
	return b.String()
}

// fallback is the strict-order deterministic ladder. First match wins.
func (a *Arbiter) fallback(in Inputs) (string, string) {
	// a. Event starting at or before now, or within 15 minutes.
	if ev, ok := nextTimedEvent(in.Events, in.Now, imminentWindow); ok {
		minutes := int(ev.Start.Sub(in.Now).Minutes())
		if minutes <= 0 {
			return fmt.Sprintf("%s starting", ev.Title), "event"
		}
		return fmt.Sprintf("%s in %dm", ev.Title, minutes), "event"
	}

	// b. First high-priority task.
	if line, ok := taskLine(in.Tasks, models.PriorityHigh); ok {
		return line, "task"
	}

	// c. Event within the 4-hour horizon, location-aware.
	if ev, ok := nextTimedEvent(in.Events, in.Now, a.horizon); ok {
		return locationAwareLine(ev), "event"
	}

	// d. First medium-priority task.
	if line, ok := taskLine(in.Tasks, models.PriorityMedium); ok {
		return line, "task"
	}

	// e. Event later today, outside the 4-hour window.
	if ev, ok := laterToday(in.Events, in.Now); ok {
		return fmt.Sprintf("Today: %s at %s", ev.Title, ev.Start.Format("3:04 PM")), "event"
	}

	// f. Weather. Always produces a result.
	return weatherLine(in.Weather), "weather"
}

// nextTimedEvent returns the earliest non-all-day event still relevant
// now and starting within the window. Events share a sort already, so
// the earliest start wins ties by construction.
func nextTimedEvent(events []models.Event, now time.Time, window time.Duration) (models.Event, bool) {
	var best models.Event
	found := false
	for _, ev := range events {
		if ev.AllDay || ev.End.Before(now) || ev.Start.After(now.Add(window)) {
			continue
		}
		if !found || ev.Start.Before(best.Start) {
			best = ev
			found = true
		}
	}
	return best, found
}

func laterToday(events []models.Event, now time.Time) (models.Event, bool) {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	var best models.Event
	found := false
	for _, ev := range events {
		if ev.AllDay || ev.Start.Before(now) || ev.Start.After(endOfDay) {
			continue
		}
		if !found || ev.Start.Before(best.Start) {
			best = ev
			found = true
		}
	}
	return best, found
}

// taskLine renders the first task of the given priority, preserving
// source order, with a "+N more" suffix when others share the band.
func taskLine(tasks []models.Task, priority models.TaskPriority) (string, bool) {
	matching := []models.Task{}
	for _, t := range tasks {
		if t.Priority == priority {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return "", false
	}
	line := matching[0].Title
	if len(matching) > 1 {
		line += fmt.Sprintf(" +%d more", len(matching)-1)
	}
	return line, true
}

// locationAwareLine frames an upcoming event by venue: virtual when the
// location looks like a link, in-person when a place is given.
func locationAwareLine(ev models.Event) string {
	at := ev.Start.Format("3:04 PM")
	loc := strings.TrimSpace(ev.Location)
	switch {
	case strings.Contains(loc, "://") || strings.Contains(strings.ToLower(loc), "meet") ||
		strings.Contains(strings.ToLower(loc), "zoom"):
		return fmt.Sprintf("📹 %s at %s", ev.Title, at)
	case loc != "":
		return fmt.Sprintf("%s at %s · %s", ev.Title, at, loc)
	default:
		return fmt.Sprintf("%s at %s", ev.Title, at)
	}
}

// weatherLine maps the condition text to a category glyph. Precedence:
// thunder > rain > snow > fog > cloud > clear > partly-cloudy default.
func weatherLine(w models.Weather) string {
	cond := strings.ToLower(w.Condition)
	glyph := "🌤"
	switch {
	case strings.Contains(cond, "thunder"):
		glyph = "⛈"
	case strings.Contains(cond, "rain"), strings.Contains(cond, "drizzle"),
		strings.Contains(cond, "shower"):
		glyph = "🌧"
	case strings.Contains(cond, "snow"), strings.Contains(cond, "sleet"),
		strings.Contains(cond, "flurr"):
		glyph = "🌨"
	case strings.Contains(cond, "fog"), strings.Contains(cond, "mist"),
		strings.Contains(cond, "haze"):
		glyph = "🌫"
	case strings.Contains(cond, "cloud"), strings.Contains(cond, "overcast"):
		glyph = "☁"
	case strings.Contains(cond, "clear"), strings.Contains(cond, "sunny"):
		glyph = "☀"
	}

	line := glyph + " " + w.Temp
	if w.Condition != "" && w.Condition != "Error" {
		line += " " + w.Condition
	}
	return line
}

func taskHeadline(tasks []models.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	for _, priority := range []models.TaskPriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		for _, t := range tasks {
			if t.Priority == priority {
				return fmt.Sprintf("%d open, top %q (%s)", len(tasks), t.Title, priority)
			}
		}
	}
	return fmt.Sprintf("%d open", len(tasks))
}

func timeOfDayBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h < 5:
		return "night"
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	case h < 22:
		return "evening"
	default:
		return "night"
	}
}

func fingerprint(payload string) string {
	h := fnv.New64a()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum64())
}

func (a *Arbiter) truncate(line string) string {
	runes := []rune(line)
	if a.maxRunes > 0 && len(runes) > a.maxRunes {
		return string(runes[:a.maxRunes-1]) + "…"
	}
	return line
}
