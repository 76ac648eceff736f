package advisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// CallType tags what kind of advisory call is being made; each type has
// its own response-cache TTL.
type CallType string

const (
	CallInsight        CallType = "insight"
	CallPrioritization CallType = "prioritization"
)

// lowRemainingThreshold triggers the observational low-quota warning.
const lowRemainingThreshold = 3

// Cache gates all advisory calls behind a persisted daily quota and an
// in-memory, TTL-based response cache. Callers must check CanMakeRequest
// and GetCached before incurring the external call, and must call
// RecordRequest immediately before issuing it, so in-flight calls count
// against quota even if they later fail.
type Cache struct {
	usage    *UsageStore
	maxDaily int
	ttl      map[CallType]time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time
}

type cacheEntry struct {
	payload   string
	createdAt time.Time
	callType  CallType
}

// NewCache builds the advisory gate from config.
func NewCache(usage *UsageStore, cfg models.AdvisorConfig) *Cache {
	return &Cache{
		usage:    usage,
		maxDaily: cfg.MaxDailyRequests,
		ttl: map[CallType]time.Duration{
			CallInsight:        time.Duration(cfg.InsightTTLMin) * time.Minute,
			CallPrioritization: time.Duration(cfg.PrioritizationTTLMin) * time.Minute,
		},
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

// CanMakeRequest reports whether quota remains for today. A stored
// record from a previous date counts as zero usage.
func (c *Cache) CanMakeRequest(callType CallType) bool {
	rec := c.usage.Load().ForDate(c.now())
	remaining := c.maxDaily - rec.Requests
	if remaining <= 0 {
		log.WithField("call_type", callType).Debug("daily advisory quota exhausted")
		return false
	}
	if remaining <= lowRemainingThreshold {
		log.WithFields(log.Fields{"remaining": remaining, "call_type": callType}).
			Warn("advisory quota nearly exhausted")
	}
	return true
}

// RecordRequest counts one call against today's quota and rewrites the
// persisted record. Call this before issuing the external request.
func (c *Cache) RecordRequest(callType CallType) {
	rec := c.usage.Load().ForDate(c.now())
	rec.Requests++
	switch callType {
	case CallInsight:
		rec.Insights++
	case CallPrioritization:
		rec.Prioritizations++
	}
	c.usage.Save(rec)
}

// GetCached returns the cached payload for key while it is within its
// TTL. An expired entry is evicted and reported as a miss.
func (c *Cache) GetCached(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl[entry.callType] {
		delete(c.entries, key)
		return "", false
	}
	return entry.payload, true
}

// SetCached stores a payload under key with the TTL of its call type.
// Stale entries are swept here: bucketed keys rotate every window, so
// expired ones are never looked up (and evicted) through GetCached.
func (c *Cache) SetCached(key string, callType CallType, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, entry := range c.entries {
		if now.Sub(entry.createdAt) >= c.ttl[entry.callType] {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{payload: payload, createdAt: now, callType: callType}
}

// BucketKey builds a time-bucketed fingerprint so repeated calls within
// the same coarse window hit cache. The fingerprint should fold in
// whatever context distinguishes the prompt.
func (c *Cache) BucketKey(callType CallType, fingerprint string) string {
	ttl := c.ttl[callType]
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	bucket := c.now().Truncate(ttl).Unix()
	return fmt.Sprintf("%s:%d:%s", callType, bucket, fingerprint)
}
