// Package advisor gates and performs calls to the metered external
// advisory service.
package advisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// UsageStore persists the daily quota record as a small JSON file. It is
// read before every quota check and rewritten after every recorded
// request; concurrent writers resolve last-write-wins, which at worst
// undercounts and risks minor quota overrun, never corruption.
type UsageStore struct {
	path string
}

func NewUsageStore(path string) *UsageStore {
	return &UsageStore{path: path}
}

// DefaultUsagePath returns the usage file location under the user state dir.
func DefaultUsagePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(base, "at-a-glance", "usage.json"), nil
}

// Load reads the persisted record. Any read or parse failure degrades to
// a zeroed record: fail open on storage errors, the quota check itself
// still fails closed once the cap is hit.
func (s *UsageStore) Load() models.UsageRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("usage file unreadable, treating usage as zero")
		}
		return models.UsageRecord{}
	}

	var rec models.UsageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.WithError(err).Warn("usage file corrupt, treating usage as zero")
		return models.UsageRecord{}
	}
	return rec
}

// Save rewrites the record atomically. Failure is logged, not fatal; the
// next cycle simply sees stale usage.
func (s *UsageStore) Save(rec models.UsageRecord) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		log.WithError(err).Warn("cannot create usage directory")
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.WithError(err).Warn("cannot marshal usage record")
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		log.WithError(err).Warn("cannot write usage record")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.WithError(err).Warn("cannot replace usage record")
	}
}
