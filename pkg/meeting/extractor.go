// Package meeting enriches calendar events with conferencing links,
// urgency, meeting type, and preparation hints.
package meeting

import (
	"regexp"
	"strings"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

// platformPattern ties a URL pattern to a platform tag and a base
// confidence. Named platforms outrank the generic meeting-path pattern.
type platformPattern struct {
	platform   models.Platform
	re         *regexp.Regexp
	confidence float64
}

var platformPatterns = []platformPattern{
	{models.PlatformZoom, regexp.MustCompile(`https?://[\w.-]*zoom\.us/(?:j|my|w)/[^\s<>"']+`), 0.95},
	{models.PlatformMeet, regexp.MustCompile(`https?://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}[^\s<>"']*`), 0.95},
	{models.PlatformTeams, regexp.MustCompile(`https?://teams\.microsoft\.com/l/meetup-join/[^\s<>"']+`), 0.95},
	{models.PlatformWebex, regexp.MustCompile(`https?://[\w.-]*webex\.com/[^\s<>"']+`), 0.9},
	{models.PlatformJitsi, regexp.MustCompile(`https?://meet\.jit\.si/[^\s<>"']+`), 0.9},
	{models.PlatformGeneric, regexp.MustCompile(`https?://[\w.-]+/(?:meet|join|call)/[^\s<>"']+`), 0.5},
}

var anyURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// Context words near a link raise confidence that it is the one to join.
var meetingContextWords = []string{"meeting", "join", "call", "dial", "bridge", "conference", "video"}

var urgentKeywords = []string{"urgent", "asap", "critical", "emergency", "important", "deadline", "escalation"}

var prepKeywords = []string{"prepare", "review", "read", "bring", "agenda", "pre-read", "homework", "draft"}

// typeKeywords is checked in order; the first matching type wins.
var typeKeywords = []struct {
	mtype    models.MeetingType
	keywords []string
}{
	{models.MeetingStandup, []string{"standup", "stand-up", "daily", "scrum"}},
	{models.MeetingOneOnOne, []string{"1:1", "1-1", "one-on-one", "one on one", "check-in"}},
	{models.MeetingInterview, []string{"interview", "screening", "hiring"}},
	{models.MeetingAllHands, []string{"all hands", "all-hands", "town hall", "townhall", "company meeting"}},
	{models.MeetingPresentation, []string{"presentation", "demo", "showcase", "keynote"}},
	{models.MeetingReview, []string{"review", "retro", "retrospective", "postmortem"}},
	{models.MeetingClient, []string{"client", "customer", "vendor", "partner"}},
}

// Base preparation minutes per meeting type, before urgency and duration
// scaling.
var prepBaseMinutes = map[models.MeetingType]int{
	models.MeetingStandup:      2,
	models.MeetingOneOnOne:     5,
	models.MeetingAllHands:     5,
	models.MeetingReview:       10,
	models.MeetingClient:       15,
	models.MeetingPresentation: 20,
	models.MeetingInterview:    25,
	models.MeetingGeneral:      10,
}

var defaultPrepTasks = map[models.MeetingType][]models.PrepTask{
	models.MeetingStandup: {
		{Text: "Note yesterday's progress and today's plan", Priority: models.PriorityMedium},
	},
	models.MeetingOneOnOne: {
		{Text: "Jot down discussion topics", Priority: models.PriorityMedium},
	},
	models.MeetingInterview: {
		{Text: "Review candidate materials", Priority: models.PriorityHigh},
		{Text: "Prepare interview questions", Priority: models.PriorityHigh},
	},
	models.MeetingPresentation: {
		{Text: "Run through the slides", Priority: models.PriorityHigh},
		{Text: "Test screen sharing", Priority: models.PriorityMedium},
	},
	models.MeetingReview: {
		{Text: "Skim the material under review", Priority: models.PriorityMedium},
	},
	models.MeetingClient: {
		{Text: "Check recent correspondence", Priority: models.PriorityHigh},
	},
	models.MeetingAllHands: nil,
	models.MeetingGeneral:  nil,
}

// contextWindow is how many characters around a matched URL are scanned
// for meeting context words.
const contextWindow = 60

// ExtractLinks scans title and description for conferencing links. Named
// platform matches score higher than generic path matches, meeting
// context words near the match add a small boost, and results are
// deduplicated by URL and sorted by confidence descending.
func ExtractLinks(event models.Event) []models.MeetingLink {
	text := event.Title + " " + event.Description + " " + event.Location

	byURL := map[string]models.MeetingLink{}
	order := []string{}
	for _, pat := range platformPatterns {
		for _, loc := range pat.re.FindAllStringIndex(text, -1) {
			url := strings.TrimRight(text[loc[0]:loc[1]], ".,;)")
			confidence := pat.confidence + contextBoost(text, loc[0], loc[1])
			if confidence > 1.0 {
				confidence = 1.0
			}
			link := models.MeetingLink{URL: url, Platform: pat.platform, Confidence: confidence}
			if existing, ok := byURL[url]; ok && existing.Confidence >= link.Confidence {
				continue
			}
			if _, ok := byURL[url]; !ok {
				order = append(order, url)
			}
			byURL[url] = link
		}
	}

	links := make([]models.MeetingLink, 0, len(byURL))
	for _, url := range order {
		links = append(links, byURL[url])
	}
	// Stable sort keeps the pattern-order tiebreak for equal confidence.
	for i := 1; i < len(links); i++ {
		for j := i; j > 0 && links[j].Confidence > links[j-1].Confidence; j-- {
			links[j], links[j-1] = links[j-1], links[j]
		}
	}
	return links
}

// contextBoost checks the characters surrounding one URL match for
// meeting context words. Words elsewhere in the text say nothing about
// this particular link.
func contextBoost(text string, start, end int) float64 {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])
	for _, word := range meetingContextWords {
		if strings.Contains(window, word) {
			return 0.04
		}
	}
	return 0
}

// ClassifyUrgency combines keyword scanning with duration heuristics into
// one of four ordinal levels.
func ClassifyUrgency(event models.Event) models.Urgency {
	text := strings.ToLower(event.Title + " " + event.Description)

	score := 0
	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			score += 2
			break
		}
	}

	duration := event.Duration()
	if duration > 0 && duration <= 15*time.Minute {
		// Short slots are usually squeezed in because they matter now.
		score++
	}
	if duration >= 2*time.Hour {
		score++
	}

	switch {
	case score >= 3:
		return models.UrgencyHigh
	case score == 2:
		return models.UrgencyMediumHigh
	case score == 1:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// DetectMeetingType classifies the event into a fixed small set that
// drives default preparation templates.
func DetectMeetingType(event models.Event) models.MeetingType {
	text := strings.ToLower(event.Title + " " + event.Description)
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.mtype
			}
		}
	}
	return models.MeetingGeneral
}

// GeneratePreparationTasks extracts preparation lines and document links
// from the description, appends type defaults, and caps the result.
func GeneratePreparationTasks(event models.Event, mtype models.MeetingType, max int) []models.PrepTask {
	if max <= 0 {
		max = 5
	}
	tasks := []models.PrepTask{}
	seen := map[string]bool{}

	add := func(t models.PrepTask) {
		key := strings.ToLower(t.Text)
		if seen[key] || len(tasks) >= max {
			return
		}
		seen[key] = true
		tasks = append(tasks, t)
	}

	meetingURLs := map[string]bool{}
	for _, link := range ExtractLinks(event) {
		meetingURLs[link.URL] = true
	}

	for _, line := range strings.Split(event.Description, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, kw := range prepKeywords {
			if strings.Contains(lower, kw) {
				add(models.PrepTask{Text: trimmed, Priority: models.PriorityHigh})
				break
			}
		}
	}

	// Non-meeting URLs are treated as documents to look at beforehand.
	for _, url := range anyURL.FindAllString(event.Description, -1) {
		url = strings.TrimRight(url, ".,;)")
		if meetingURLs[url] {
			continue
		}
		add(models.PrepTask{Text: "Review document: " + url, Priority: models.PriorityMedium})
	}

	for _, t := range defaultPrepTasks[mtype] {
		add(t)
	}
	return tasks
}

// PreparationMinutes computes how long to set aside before the meeting:
// a per-type base, scaled by urgency and duration, clamped to [2, 30].
func PreparationMinutes(event models.Event, mtype models.MeetingType, urgency models.Urgency) int {
	base, ok := prepBaseMinutes[mtype]
	if !ok {
		base = prepBaseMinutes[models.MeetingGeneral]
	}

	minutes := float64(base)
	switch urgency {
	case models.UrgencyHigh:
		minutes *= 1.5
	case models.UrgencyMediumHigh:
		minutes *= 1.25
	case models.UrgencyLow:
		minutes *= 0.75
	}

	duration := event.Duration()
	if duration >= 2*time.Hour {
		minutes *= 1.25
	} else if duration > 0 && duration < 15*time.Minute {
		minutes *= 0.5
	}

	result := int(minutes + 0.5)
	if result < 2 {
		result = 2
	}
	if result > 30 {
		result = 30
	}
	return result
}

// BuildContext runs the full enrichment for one event.
func BuildContext(event models.Event, maxPrep int) models.MeetingContext {
	mtype := DetectMeetingType(event)
	urgency := ClassifyUrgency(event)
	return models.MeetingContext{
		Urgency:            urgency,
		Links:              ExtractLinks(event),
		PreparationTasks:   GeneratePreparationTasks(event, mtype, maxPrep),
		PreparationMinutes: PreparationMinutes(event, mtype, urgency),
		MeetingType:        mtype,
	}
}
