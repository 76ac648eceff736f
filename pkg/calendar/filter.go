package calendar

import (
	"regexp"
	"strings"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

// Default exclusion patterns. Matching is by pattern on title and
// description, never by which tier produced the event.
var defaultSuppressPatterns = []string{
	"holiday", "holidays",
	"birthday", "birthdays",
	"anniversary", "anniversaries",
}

var defaultWorkKeywords = []string{
	"meeting", "standup", "sync", "review", "sprint", "1:1", "interview",
	"deadline", "project", "client", "demo", "retro", "planning",
}

var defaultPersonalKeywords = []string{
	"doctor", "dentist", "gym", "workout", "dinner", "lunch", "date",
	"family", "vacation", "appointment", "pickup", "school",
}

// Filter applies pure classification and exclusion rules to events.
type Filter struct {
	suppress []*regexp.Regexp
	work     []string
	personal []string
}

// NewFilter builds a filter from config, falling back to the default
// pattern sets when a list is empty.
func NewFilter(cfg models.CalendarConfig) *Filter {
	patterns := defaultSuppressPatterns
	if len(cfg.SuppressPatterns) > 0 {
		patterns = append(patterns, cfg.SuppressPatterns...)
	}

	f := &Filter{
		work:     defaultWorkKeywords,
		personal: defaultPersonalKeywords,
	}
	if len(cfg.WorkKeywords) > 0 {
		f.work = cfg.WorkKeywords
	}
	if len(cfg.PersonalKeywords) > 0 {
		f.personal = cfg.PersonalKeywords
	}

	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(p) + `\b`)
		if err != nil {
			continue
		}
		f.suppress = append(f.suppress, re)
	}
	return f
}

// ShouldExclude reports whether the event matches a suppressed category
// (holidays, birthdays, anniversaries by default).
func (f *Filter) ShouldExclude(event models.Event) bool {
	text := event.Title + " " + event.Description
	for _, re := range f.suppress {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Categorize tags the event work, personal, or general. The first
// matching category in priority order wins: work > personal > general.
func (f *Filter) Categorize(event models.Event) models.Category {
	text := strings.ToLower(event.Title + " " + event.Description)

	for _, kw := range f.work {
		if strings.Contains(text, strings.ToLower(kw)) {
			return models.CategoryWork
		}
	}
	for _, kw := range f.personal {
		if strings.Contains(text, strings.ToLower(kw)) {
			return models.CategoryPersonal
		}
	}
	return models.CategoryGeneral
}
