package models

import "time"

// EventSource identifies the acquisition tier that produced an event.
type EventSource string

const (
	SourceBroker EventSource = "broker"
	SourceStore  EventSource = "store"
	SourceFile   EventSource = "file"
)

// Category buckets an event by keyword matching.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryGeneral  Category = "general"
)

// Event represents a normalized calendar event. Events live for one
// pipeline cycle and are rebuilt from scratch on the next one.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Location    string      `json:"location,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	AllDay      bool        `json:"all_day"`
	Source      EventSource `json:"source"`
	Categories  []Category  `json:"categories,omitempty"`
	Confidence  float64     `json:"confidence"`
}

// Key returns the dedupe key used when merging events within and across
// tiers: title plus start time.
func (e Event) Key() string {
	return e.Title + "|" + e.Start.Format(time.RFC3339)
}

// Duration returns the event length.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// HasCategory reports whether the event was tagged with c.
func (e Event) HasCategory(c Category) bool {
	for _, have := range e.Categories {
		if have == c {
			return true
		}
	}
	return false
}
