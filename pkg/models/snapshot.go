package models

import "time"

// TaskPriority is the normalized priority of a to-do item.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task is a normalized to-do item from the task source. Order within a
// priority band is whatever the source returned; the pipeline never
// re-ranks inside a band.
type Task struct {
	Title    string       `json:"title"`
	Priority TaskPriority `json:"priority"`
	Due      string       `json:"due,omitempty"`
}

// Weather holds current conditions from the weather source.
type Weather struct {
	Temp        string `json:"temp"`
	Condition   string `json:"condition"`
	Description string `json:"description,omitempty"`
}

// PlaceholderWeather is the degraded value used when the weather source
// is unavailable. The arbiter's weather fallback still renders it.
func PlaceholderWeather() Weather {
	return Weather{Temp: "--", Condition: "Error"}
}

// SystemStatus carries local machine signals.
type SystemStatus struct {
	BatteryPercent int      `json:"battery_percent"` // -1 when unknown
	OnBattery      bool     `json:"on_battery"`
	FailedUnits    []string `json:"failed_units,omitempty"`
}

// StatusSnapshot is the immutable per-cycle output of the pipeline. A new
// snapshot replaces the previous one atomically; consumers never see a
// partially updated view.
type StatusSnapshot struct {
	ID          string         `json:"id"`
	TopLine     string         `json:"top_line"`
	TopSource   string         `json:"top_source"`
	Weather     Weather        `json:"weather"`
	Events      []Event        `json:"events,omitempty"`
	Tasks       []Task         `json:"tasks,omitempty"`
	System      SystemStatus   `json:"system"`
	Meetings    MeetingSummary `json:"meetings"`
	Advisory    string         `json:"advisory,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Cycle       uint64         `json:"cycle"`
}
