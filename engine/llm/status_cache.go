package llm

import (
	"fmt"
	"sync"
	"time"
)

type failureEntry struct {
	detail     string
	recordedAt time.Time
}

// StatusCache is the process-wide record of endpoint health: which endpoints
// recently failed and why, and which are known to work. Entries expire per
// failure kind and are evicted lazily on lookup; there is no background
// sweeper. An endpoint is never simultaneously in the working set and in a
// failure bucket.
type StatusCache struct {
	mu       sync.Mutex
	ttls     TTLConfig
	notFound map[string]struct{}
	failures map[FailureKind]map[string]failureEntry
	working  map[string]struct{}
	// workingOrder preserves first-success order for stable candidate lists.
	workingOrder []string
	now          func() time.Time
}

// NewStatusCache creates an empty cache with the given per-kind TTLs.
func NewStatusCache(ttls TTLConfig) *StatusCache {
	c := &StatusCache{
		ttls: ttls,
		now:  time.Now,
	}
	c.resetLocked()
	return c
}

func (c *StatusCache) resetLocked() {
	c.notFound = make(map[string]struct{})
	c.failures = map[FailureKind]map[string]failureEntry{
		FailureQuotaExhausted: {},
		FailureRateLimited:    {},
		FailureOther:          {},
	}
	c.working = make(map[string]struct{})
	c.workingOrder = nil
}

// IsExcluded reports whether the endpoint should be skipped, with a
// human-readable reason. A not-found record excludes permanently; expiring
// records exclude until their TTL elapses and are deleted once stale.
func (c *StatusCache) IsExcluded(endpoint string) (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.notFound[endpoint]; ok {
		return true, string(FailureNotFound)
	}
	now := c.now()
	for _, kind := range ExpiringKinds {
		entry, ok := c.failures[kind][endpoint]
		if !ok {
			continue
		}
		age := now.Sub(entry.recordedAt)
		if age < c.ttls.TTL(kind) {
			return true, fmt.Sprintf("%s (cached %dm ago)", kind, int(age.Minutes()))
		}
		delete(c.failures[kind], endpoint)
	}
	return false, ""
}

// RecordFailure stores a failure classification for the endpoint,
// overwriting any prior entry of the same kind, and evicts the endpoint
// from the working set.
func (c *StatusCache) RecordFailure(endpoint string, kind FailureKind, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeWorkingLocked(endpoint)
	if kind == FailureNotFound {
		c.notFound[endpoint] = struct{}{}
		return
	}
	bucket, ok := c.failures[kind]
	if !ok {
		bucket = c.failures[FailureOther]
	}
	bucket[endpoint] = failureEntry{detail: detail, recordedAt: c.now()}
}

// RecordSuccess adds the endpoint to the working set and clears its entries
// from every expiring failure bucket. A not-found record is never cleared by
// success: a 404 is a static capability fact, not a transient. The Executor
// never selects a not-found endpoint, so a success cannot actually be
// recorded for one; if it were, the not-found exclusion still wins over
// working-set membership when candidates are built.
func (c *StatusCache) RecordSuccess(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kind := range ExpiringKinds {
		delete(c.failures[kind], endpoint)
	}
	if _, ok := c.working[endpoint]; !ok {
		c.working[endpoint] = struct{}{}
		c.workingOrder = append(c.workingOrder, endpoint)
	}
}

func (c *StatusCache) removeWorkingLocked(endpoint string) {
	if _, ok := c.working[endpoint]; !ok {
		return
	}
	delete(c.working, endpoint)
	for i, name := range c.workingOrder {
		if name == endpoint {
			c.workingOrder = append(c.workingOrder[:i], c.workingOrder[i+1:]...)
			break
		}
	}
}

// Working returns the known-good endpoints in first-success order.
func (c *StatusCache) Working() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.workingOrder))
	copy(out, c.workingOrder)
	return out
}

// Reset clears every bucket including the working set.
func (c *StatusCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// ResetBucket clears a single bucket. Valid names are the four failure
// kinds plus "working".
func (c *StatusCache) ResetBucket(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch FailureKind(name) {
	case FailureNotFound:
		c.notFound = make(map[string]struct{})
	case FailureQuotaExhausted, FailureRateLimited, FailureOther:
		c.failures[FailureKind(name)] = make(map[string]failureEntry)
	default:
		if name == "working" {
			c.working = make(map[string]struct{})
			c.workingOrder = nil
			return nil
		}
		return fmt.Errorf("unknown cache bucket %q", name)
	}
	return nil
}

// BucketCounts summarizes cache occupancy for the health endpoint.
type BucketCounts struct {
	Working        int `json:"working"`
	QuotaExhausted int `json:"quota_exhausted"`
	RateLimited    int `json:"rate_limited"`
	NotFound       int `json:"not_found"`
	OtherErrors    int `json:"other_errors"`
}

// Counts returns the per-bucket entry counts.
func (c *StatusCache) Counts() BucketCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BucketCounts{
		Working:        len(c.working),
		QuotaExhausted: len(c.failures[FailureQuotaExhausted]),
		RateLimited:    len(c.failures[FailureRateLimited]),
		NotFound:       len(c.notFound),
		OtherErrors:    len(c.failures[FailureOther]),
	}
}

// FailureStatus describes one cached failure for the detailed status view.
type FailureStatus struct {
	Detail           string    `json:"detail,omitempty"`
	CachedAt         time.Time `json:"cached_at"`
	ExpiresInMinutes int       `json:"expires_in_minutes"`
}

// Snapshot is the detailed per-bucket view served by /cache/status.
type Snapshot struct {
	Working        []string                 `json:"working"`
	QuotaExhausted map[string]FailureStatus `json:"quota_exhausted"`
	RateLimited    map[string]FailureStatus `json:"rate_limited"`
	NotFound       []string                 `json:"not_found"`
	OtherErrors    map[string]FailureStatus `json:"other_errors"`
}

// SnapshotStatus returns the full cache contents with remaining TTLs.
// Expired entries still present (not yet lazily evicted) report zero
// remaining minutes.
func (c *StatusCache) SnapshotStatus() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	snap := Snapshot{
		Working:        append([]string(nil), c.workingOrder...),
		NotFound:       make([]string, 0, len(c.notFound)),
		QuotaExhausted: c.bucketStatusLocked(FailureQuotaExhausted, now),
		RateLimited:    c.bucketStatusLocked(FailureRateLimited, now),
		OtherErrors:    c.bucketStatusLocked(FailureOther, now),
	}
	for name := range c.notFound {
		snap.NotFound = append(snap.NotFound, name)
	}
	return snap
}

func (c *StatusCache) bucketStatusLocked(kind FailureKind, now time.Time) map[string]FailureStatus {
	out := make(map[string]FailureStatus, len(c.failures[kind]))
	for name, entry := range c.failures[kind] {
		remaining := entry.recordedAt.Add(c.ttls.TTL(kind)).Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		out[name] = FailureStatus{
			Detail:           entry.detail,
			CachedAt:         entry.recordedAt,
			ExpiresInMinutes: int(remaining.Minutes()),
		}
	}
	return out
}
