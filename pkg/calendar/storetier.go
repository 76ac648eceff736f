package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const storeConfidence = 0.7

// StoreTier reads the local structured calendar cache: a SQLite database
// whose rows embed calendar-record blobs in the textual format the
// parser consumes.
type StoreTier struct {
	db *sql.DB
}

// NewStoreTier opens the store read-only. A missing or unopenable
// database leaves the tier unavailable.
func NewStoreTier(path string) *StoreTier {
	t := &StoreTier{}
	if path == "" {
		return t
	}
	if _, err := os.Stat(path); err != nil {
		log.WithField("path", path).Debug("calendar store not present, store tier disabled")
		return t
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_busy_timeout=2000")
	if err != nil {
		log.WithField("path", path).WithError(err).Warn("cannot open calendar store")
		return t
	}
	db.SetMaxOpenConns(1)
	t.db = db
	return t
}

func (t *StoreTier) Name() string { return "store" }

func (t *StoreTier) Available() bool { return t.db != nil }

// Close releases the database handle.
func (t *StoreTier) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}

// TryAcquire queries rows overlapping the window and parses each
// embedded blob. Rows that fail to parse are dropped, not errored.
func (t *StoreTier) TryAcquire(ctx context.Context, w Window) ([]models.Event, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT obj FROM components WHERE occur_end >= ? AND occur_start <= ?`,
		w.Since.Unix(), w.Until.Unix())
	if err != nil {
		return nil, fmt.Errorf("querying calendar store: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	dropped := 0
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			dropped++
			continue
		}
		parsed := ParseBlob(blob, w)
		if len(parsed) == 0 {
			dropped++
			continue
		}
		for i := range parsed {
			parsed[i].Source = models.SourceStore
			parsed[i].Confidence = storeConfidence
		}
		events = append(events, parsed...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading calendar store rows: %w", err)
	}
	if dropped > 0 {
		log.WithField("dropped", dropped).Debug("store rows without parseable events")
	}

	return stampFallbackIDs(events, "store"), nil
}

// stampFallbackIDs fills deterministic IDs for events the source left
// without a UID, so later dedupe and context caching have a stable key.
func stampFallbackIDs(events []models.Event, prefix string) []models.Event {
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = prefix + "-" + events[i].Start.Format(time.RFC3339) + "-" + events[i].Title
		}
	}
	return events
}
