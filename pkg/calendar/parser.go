package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// Map of common Windows timezone names to IANA names. Some exporters
// stamp TZID with the Windows form, which time.LoadLocation rejects.
var windowsToIANA = map[string]string{
	"Pacific Standard Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"GMT Standard Time":            "Europe/London",
	"Central Europe Standard Time": "Europe/Paris",
	"China Standard Time":          "Asia/Shanghai",
	"Tokyo Standard Time":          "Asia/Tokyo",
	"India Standard Time":          "Asia/Kolkata",
	"AUS Eastern Standard Time":    "Australia/Sydney",
}

// ParseComponent converts one VEVENT component into an Event. It returns
// ok=false for records missing a title or start time; those are dropped,
// never errored.
func ParseComponent(comp *ical.Component) (models.Event, bool) {
	normalizeComponentTimezones(comp)

	event := models.Event{}

	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil {
		event.ID = uidProp.Value
	}
	if summaryProp := comp.Props.Get(ical.PropSummary); summaryProp != nil {
		event.Title = strings.TrimSpace(summaryProp.Value)
	}
	if descProp := comp.Props.Get(ical.PropDescription); descProp != nil {
		event.Description = descProp.Value
	}
	if locProp := comp.Props.Get(ical.PropLocation); locProp != nil {
		event.Location = strings.TrimSpace(locProp.Value)
	}

	if startProp := comp.Props.Get(ical.PropDateTimeStart); startProp != nil {
		if t, allDay, err := parseDateTimeProperty(startProp); err == nil {
			event.Start = t
			event.AllDay = allDay
		}
	}
	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if t, _, err := parseDateTimeProperty(endProp); err == nil {
			event.End = t
		}
	}

	return normalizeEvent(event)
}

// ParseBlob parses a raw calendar-record blob: either a full iCalendar
// stream or a bare block of KEY:VALUE lines as embedded by the structured
// store. Malformed records yield no events. The window bounds recurrence
// expansion.
func ParseBlob(blob string, w Window) []models.Event {
	trimmed := strings.TrimSpace(blob)
	if trimmed == "" {
		return nil
	}

	// A bare block of KEY:VALUE lines has no component wrapper at all;
	// parse it line-oriented.
	if !strings.Contains(trimmed, "BEGIN:VEVENT") {
		if ev, ok := parseRawRecord(blob); ok {
			return []models.Event{ev}
		}
		return nil
	}

	// Bare VEVENT blocks get wrapped so the decoder accepts them.
	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		trimmed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//at-a-glance//EN\r\n" +
			normalizeCRLF(trimmed) + "\r\nEND:VCALENDAR\r\n"
	}

	events, err := DecodeCalendar(strings.NewReader(trimmed), w)
	if err != nil {
		// Not decodable as iCalendar; fall back to line-oriented parsing.
		if ev, ok := parseRawRecord(blob); ok {
			return []models.Event{ev}
		}
		log.WithError(err).Debug("dropping undecodable calendar blob")
		return nil
	}
	return events
}

// DecodeCalendar reads a full iCalendar stream and returns all parseable
// events, with recurring events expanded inside the window.
func DecodeCalendar(r io.Reader, w Window) ([]models.Event, error) {
	decoder := ical.NewDecoder(r)

	events := []models.Event{}
	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			event, ok := ParseComponent(comp)
			if !ok {
				continue
			}

			if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil {
				events = append(events, expandRecurring(event, rruleProp.Value, w)...)
				continue
			}
			events = append(events, event)
		}
	}
	return events, nil
}

// parseRawRecord handles a bare KEY:VALUE block that is not valid
// iCalendar. Keys may carry trailing parameters after a semicolon; only
// the prefix is matched.
func parseRawRecord(blob string) (models.Event, bool) {
	event := models.Event{}

	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimRight(line, "\r")
		sep := strings.Index(line, ":")
		if sep <= 0 {
			continue
		}
		rawKey := line[:sep]
		value := line[sep+1:]

		key := rawKey
		params := ""
		if i := strings.Index(rawKey, ";"); i >= 0 {
			key = rawKey[:i]
			params = strings.ToUpper(rawKey[i+1:])
		}

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "UID":
			event.ID = strings.TrimSpace(value)
		case "SUMMARY":
			event.Title = strings.TrimSpace(value)
		case "DESCRIPTION":
			event.Description = value
		case "LOCATION":
			event.Location = strings.TrimSpace(value)
		case "DTSTART":
			if t, allDay, err := parseDateTimeValue(value, strings.Contains(params, "VALUE=DATE")); err == nil {
				event.Start = t
				event.AllDay = allDay
			}
		case "DTEND":
			if t, _, err := parseDateTimeValue(value, strings.Contains(params, "VALUE=DATE")); err == nil {
				event.End = t
			}
		}
	}

	return normalizeEvent(event)
}

// normalizeEvent enforces the Event invariants: title and start are
// required, end defaults from start, and start <= end.
func normalizeEvent(event models.Event) (models.Event, bool) {
	if event.Title == "" || event.Start.IsZero() {
		return models.Event{}, false
	}

	if event.AllDay {
		// Date-only values mean local midnight to midnight.
		y, m, d := event.Start.Date()
		event.Start = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
		if event.End.IsZero() || !event.End.After(event.Start) {
			event.End = event.Start.AddDate(0, 0, 1)
		}
	}
	if event.End.IsZero() {
		event.End = event.Start.Add(time.Hour)
	}
	if event.End.Before(event.Start) {
		event.End = event.Start
	}
	return event, true
}

func parseDateTimeProperty(prop *ical.Prop) (time.Time, bool, error) {
	dateOnly := prop.ValueType() == ical.ValueDate

	// First try the standard DateTime method with local timezone.
	if t, err := prop.DateTime(time.Local); err == nil {
		return t.In(time.Local), dateOnly, nil
	}
	return parseDateTimeValue(prop.Value, dateOnly)
}

func parseDateTimeValue(value string, dateOnly bool) (time.Time, bool, error) {
	value = strings.TrimSpace(value)

	if dateOnly || len(value) == 8 {
		if t, err := time.ParseInLocation("20060102", value, time.Local); err == nil {
			return t, true, nil
		}
		if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
			return t, true, nil
		}
	}

	formats := []string{
		"20060102T150405",     // Basic format: YYYYMMDDTHHMMSS
		"20060102T150405Z",    // UTC format
		time.RFC3339,          // Standard RFC3339
		"2006-01-02T15:04:05", // ISO 8601 without timezone
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, time.Local); err == nil {
			return t, false, nil
		}
	}

	return time.Time{}, false, fmt.Errorf("unable to parse datetime value: %s", value)
}

// normalizeComponentTimezones rewrites Windows timezone names so the
// standard DateTime parsing path can resolve them.
func normalizeComponentTimezones(comp *ical.Component) {
	for _, name := range []string{ical.PropDateTimeStart, ical.PropDateTimeEnd} {
		if prop := comp.Props.Get(name); prop != nil {
			if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
				if ianaName, ok := windowsToIANA[tzid]; ok {
					prop.Params.Set(ical.ParamTimezoneID, ianaName)
				}
			}
		}
	}
}

func normalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
