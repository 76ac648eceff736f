package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

const brokerConfidence = 0.9

// BrokerTier asks the desktop calendar broker for events over the
// session bus. The broker answers with a push-style signal rather than a
// synchronous reply, so the tier waits on the signal with its own
// timeout; silence is "no data", not an error.
type BrokerTier struct {
	conn    *dbus.Conn
	dest    string
	path    dbus.ObjectPath
	iface   string
	member  string
	timeout time.Duration
}

// NewBrokerTier connects to the session bus. When no session bus is
// reachable the tier is constructed unavailable and the chain skips it.
func NewBrokerTier(cfg models.CalendarConfig) *BrokerTier {
	t := &BrokerTier{
		dest:    cfg.BrokerDest,
		path:    dbus.ObjectPath(cfg.BrokerPath),
		iface:   cfg.BrokerInterface,
		member:  cfg.BrokerMember,
		timeout: time.Duration(cfg.BrokerTimeoutSec) * time.Second,
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		log.WithError(err).Debug("session bus unavailable, broker tier disabled")
		return t
	}
	t.conn = conn
	return t
}

func (t *BrokerTier) Name() string { return "broker" }

func (t *BrokerTier) Available() bool { return t.conn != nil }

// TryAcquire requests the window from the broker and waits for the
// EventsAddedOrUpdated signal carrying (uid, title, start, end, props)
// tuples.
func (t *BrokerTier) TryAcquire(ctx context.Context, w Window) ([]models.Event, error) {
	signals := make(chan *dbus.Signal, 16)
	t.conn.Signal(signals)
	defer t.conn.RemoveSignal(signals)

	opts := []dbus.MatchOption{
		dbus.WithMatchSender(t.dest),
		dbus.WithMatchInterface(t.iface),
		dbus.WithMatchMember(t.member),
	}
	if err := t.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("subscribing to broker signals: %w", err)
	}
	defer func() {
		if err := t.conn.RemoveMatchSignal(opts...); err != nil {
			log.WithError(err).Debug("removing broker signal match")
		}
	}()

	obj := t.conn.Object(t.dest, t.path)
	call := obj.CallWithContext(ctx, t.iface+".SetTimeRange", 0, w.Since.Unix(), w.Until.Unix(), true)
	if call.Err != nil {
		return nil, fmt.Errorf("broker request: %w", call.Err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			// No response in time is tier failure, not a hard error;
			// returning empty lets the chain fall through.
			log.WithField("timeout", t.timeout).Debug("broker signal timed out")
			return nil, nil
		case sig, ok := <-signals:
			if !ok {
				return nil, nil
			}
			if !t.matchesSignal(sig) {
				continue
			}
			events := decodeBrokerBody(sig.Body[0])
			if events != nil {
				return events, nil
			}
		}
	}
}

// matchesSignal accepts only the expected member from the broker
// interface. The channel carries every signal the connection sees, not
// just the subscribed match.
func (t *BrokerTier) matchesSignal(sig *dbus.Signal) bool {
	if sig == nil || len(sig.Body) == 0 {
		return false
	}
	return sig.Name == t.iface+"."+t.member
}

// decodeBrokerBody converts the signal payload, an array of
// (uid, title, startEpoch, endEpoch, propertyMap) tuples, into events.
// Malformed tuples are dropped individually.
func decodeBrokerBody(body interface{}) []models.Event {
	records, ok := body.([][]interface{})
	if !ok {
		return nil
	}

	events := []models.Event{}
	for _, rec := range records {
		if len(rec) < 5 {
			continue
		}
		uid, ok1 := rec[0].(string)
		title, ok2 := rec[1].(string)
		startEpoch, ok3 := rec[2].(int64)
		endEpoch, ok4 := rec[3].(int64)
		if !ok1 || !ok2 || !ok3 || !ok4 || title == "" || startEpoch == 0 {
			continue
		}

		event := models.Event{
			ID:         uid,
			Title:      title,
			Start:      time.Unix(startEpoch, 0).In(time.Local),
			End:        time.Unix(endEpoch, 0).In(time.Local),
			Source:     models.SourceBroker,
			Confidence: brokerConfidence,
		}
		if event.End.Before(event.Start) {
			event.End = event.Start
		}

		if props, ok := rec[4].(map[string]dbus.Variant); ok {
			if v, ok := props["description"]; ok {
				if s, ok := v.Value().(string); ok {
					event.Description = s
				}
			}
			if v, ok := props["location"]; ok {
				if s, ok := v.Value().(string); ok {
					event.Location = s
				}
			}
			if v, ok := props["isAllDay"]; ok {
				if b, ok := v.Value().(bool); ok {
					event.AllDay = b
				}
			}
		}
		events = append(events, event)
	}
	return events
}
