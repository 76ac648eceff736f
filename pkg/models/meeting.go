package models

// Urgency is an ordinal classification of how pressing a meeting is.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyMediumHigh
	UrgencyHigh
)

func (u Urgency) String() string {
	switch u {
	case UrgencyHigh:
		return "high"
	case UrgencyMediumHigh:
		return "medium-high"
	case UrgencyMedium:
		return "medium"
	default:
		return "low"
	}
}

// Platform tags a detected conferencing link.
type Platform string

const (
	PlatformZoom    Platform = "zoom"
	PlatformMeet    Platform = "meet"
	PlatformTeams   Platform = "teams"
	PlatformWebex   Platform = "webex"
	PlatformJitsi   Platform = "jitsi"
	PlatformGeneric Platform = "generic"
)

// MeetingType classifies a meeting for preparation defaults.
type MeetingType string

const (
	MeetingStandup      MeetingType = "standup"
	MeetingOneOnOne     MeetingType = "one-on-one"
	MeetingInterview    MeetingType = "interview"
	MeetingAllHands     MeetingType = "all-hands"
	MeetingPresentation MeetingType = "presentation"
	MeetingReview       MeetingType = "review"
	MeetingClient       MeetingType = "client"
	MeetingGeneral      MeetingType = "general"
)

// MeetingLink is a conferencing URL detected in an event, scored by how
// confident the extractor is that it is the one to join.
type MeetingLink struct {
	URL        string   `json:"url"`
	Platform   Platform `json:"platform"`
	Confidence float64  `json:"confidence"`
}

// PrepTask is one short preparation item for a meeting.
type PrepTask struct {
	Text     string       `json:"text"`
	Priority TaskPriority `json:"priority"`
}

// MeetingContext is the enrichment computed for a single event. It is
// derived state, recomputed each cycle.
type MeetingContext struct {
	Urgency            Urgency       `json:"urgency"`
	Links              []MeetingLink `json:"links,omitempty"`
	PreparationTasks   []PrepTask    `json:"preparation_tasks,omitempty"`
	PreparationMinutes int           `json:"preparation_minutes"`
	MeetingType        MeetingType   `json:"meeting_type"`
}

// NextMeeting is the compact signal about the soonest upcoming meeting.
type NextMeeting struct {
	Title              string      `json:"title"`
	MinutesUntil       int         `json:"minutes_until"`
	Urgency            Urgency     `json:"urgency"`
	HasLink            bool        `json:"has_link"`
	HasPreparation     bool        `json:"has_preparation"`
	PreparationMinutes int         `json:"preparation_minutes"`
	MeetingType        MeetingType `json:"meeting_type"`
}

// MeetingSummary reduces all upcoming meetings to one signal for the
// arbiter and the advisory prompt.
type MeetingSummary struct {
	HasMeetings   bool         `json:"has_meetings"`
	Next          *NextMeeting `json:"next,omitempty"`
	TotalUpcoming int          `json:"total_upcoming"`
	Human         string       `json:"human,omitempty"`
}
