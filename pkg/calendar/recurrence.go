package calendar

import (
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

// expandRecurring expands a recurring event into concrete instances
// inside the window. Instances inherit everything from the base event
// except start, end, and a per-occurrence ID suffix.
func expandRecurring(base models.Event, rruleStr string, w Window) []models.Event {
	opts, err := rrule.StrToROption(rruleStr)
	if err != nil {
		log.WithField("rrule", rruleStr).WithError(err).Debug("unparseable RRULE, keeping base occurrence")
		return []models.Event{base}
	}
	opts.Dtstart = base.Start

	rule, err := rrule.NewRRule(*opts)
	if err != nil {
		log.WithField("rrule", rruleStr).WithError(err).Debug("invalid RRULE, keeping base occurrence")
		return []models.Event{base}
	}

	since, until := w.Since, w.Until
	if since.IsZero() {
		since = base.Start
	}
	if until.IsZero() {
		until = since.AddDate(0, 0, 7)
	}

	duration := base.End.Sub(base.Start)
	events := []models.Event{}
	for _, occ := range rule.Between(since.Add(-duration), until, true) {
		instance := base
		instance.Start = occ
		instance.End = occ.Add(duration)
		instance.ID = base.ID + "-" + occ.Format(time.RFC3339)
		events = append(events, instance)
	}
	return events
}
