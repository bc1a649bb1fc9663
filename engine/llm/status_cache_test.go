package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*StatusCache, *time.Time) {
	t.Helper()
	current := time.Unix(0, 0)
	cache := NewStatusCache(DefaultTTLConfig())
	cache.now = func() time.Time { return current }
	return cache, &current
}

func TestStatusCache_IsExcluded(t *testing.T) {
	t.Run("Should not exclude an unknown endpoint", func(t *testing.T) {
		cache, _ := newTestCache(t)
		excluded, reason := cache.IsExcluded("models/gemini-2.5-flash")
		assert.False(t, excluded)
		assert.Empty(t, reason)
	})
	t.Run("Should exclude a rate limited endpoint until its TTL elapses", func(t *testing.T) {
		cache, now := newTestCache(t)
		cache.RecordFailure("models/a", FailureRateLimited, "429")

		excluded, reason := cache.IsExcluded("models/a")
		assert.True(t, excluded)
		assert.Contains(t, reason, "rate_limited")

		*now = now.Add(4 * time.Minute)
		excluded, _ = cache.IsExcluded("models/a")
		assert.True(t, excluded)

		*now = now.Add(2 * time.Minute)
		excluded, _ = cache.IsExcluded("models/a")
		assert.False(t, excluded)
	})
	t.Run("Should evict an expired entry on lookup", func(t *testing.T) {
		cache, now := newTestCache(t)
		cache.RecordFailure("models/a", FailureRateLimited, "429")
		*now = now.Add(6 * time.Minute)
		cache.IsExcluded("models/a")
		assert.Equal(t, 0, cache.Counts().RateLimited)
	})
	t.Run("Should exclude quota exhausted endpoints for an hour", func(t *testing.T) {
		cache, now := newTestCache(t)
		cache.RecordFailure("models/a", FailureQuotaExhausted, "limit: 0")

		*now = now.Add(59 * time.Minute)
		excluded, _ := cache.IsExcluded("models/a")
		assert.True(t, excluded)

		*now = now.Add(2 * time.Minute)
		excluded, _ = cache.IsExcluded("models/a")
		assert.False(t, excluded)
	})
	t.Run("Should exclude not found endpoints permanently", func(t *testing.T) {
		cache, now := newTestCache(t)
		cache.RecordFailure("models/gone", FailureNotFound, "404")
		*now = now.Add(240 * time.Hour)
		excluded, reason := cache.IsExcluded("models/gone")
		assert.True(t, excluded)
		assert.Equal(t, "not_found", reason)
	})
}

func TestStatusCache_RecordSuccess(t *testing.T) {
	t.Run("Should clear expiring failures and join the working set", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordFailure("models/a", FailureRateLimited, "429")
		cache.RecordSuccess("models/a")

		excluded, _ := cache.IsExcluded("models/a")
		assert.False(t, excluded)
		assert.Equal(t, []string{"models/a"}, cache.Working())
	})
	t.Run("Should never clear a not found record", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordFailure("models/gone", FailureNotFound, "404")
		cache.RecordSuccess("models/gone")
		excluded, _ := cache.IsExcluded("models/gone")
		assert.True(t, excluded)

		// Even with a working-set entry, not found keeps it out of the
		// candidate order.
		selector := &Selector{Primary: "models/a"}
		assert.Equal(t, []string{"models/a"}, selector.Candidates(cache))
	})
	t.Run("Should keep working order by first success", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordSuccess("models/b")
		cache.RecordSuccess("models/a")
		cache.RecordSuccess("models/b")
		assert.Equal(t, []string{"models/b", "models/a"}, cache.Working())
	})
}

func TestStatusCache_MutualExclusion(t *testing.T) {
	t.Run("Should evict a working endpoint when it fails", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordSuccess("models/a")
		cache.RecordFailure("models/a", FailureRateLimited, "429")
		assert.Empty(t, cache.Working())
		excluded, _ := cache.IsExcluded("models/a")
		assert.True(t, excluded)
	})
}

func TestStatusCache_Reset(t *testing.T) {
	t.Run("Should clear everything", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordFailure("models/a", FailureRateLimited, "429")
		cache.RecordFailure("models/b", FailureNotFound, "404")
		cache.RecordSuccess("models/c")
		cache.Reset()
		assert.Equal(t, BucketCounts{}, cache.Counts())
	})
	t.Run("Should clear a single failure bucket", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordFailure("models/a", FailureRateLimited, "429")
		cache.RecordFailure("models/b", FailureOther, "boom")
		require.NoError(t, cache.ResetBucket("rate_limited"))
		counts := cache.Counts()
		assert.Equal(t, 0, counts.RateLimited)
		assert.Equal(t, 1, counts.OtherErrors)
	})
	t.Run("Should clear the working bucket", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordSuccess("models/a")
		require.NoError(t, cache.ResetBucket("working"))
		assert.Empty(t, cache.Working())
	})
	t.Run("Should reject unknown bucket names", func(t *testing.T) {
		cache, _ := newTestCache(t)
		assert.Error(t, cache.ResetBucket("bogus"))
	})
}

func TestStatusCache_SnapshotStatus(t *testing.T) {
	t.Run("Should report remaining TTL in minutes", func(t *testing.T) {
		cache, now := newTestCache(t)
		cache.RecordFailure("models/a", FailureRateLimited, "HTTP 429")
		*now = now.Add(2 * time.Minute)

		snap := cache.SnapshotStatus()
		entry, ok := snap.RateLimited["models/a"]
		require.True(t, ok)
		assert.Equal(t, 3, entry.ExpiresInMinutes)
		assert.Equal(t, "HTTP 429", entry.Detail)
	})
	t.Run("Should report zero for stale entries not yet evicted", func(t *testing.T) {
		cache, now := newTestCache(t)
		cache.RecordFailure("models/a", FailureOther, "boom")
		*now = now.Add(31 * time.Minute)
		snap := cache.SnapshotStatus()
		assert.Equal(t, 0, snap.OtherErrors["models/a"].ExpiresInMinutes)
	})
	t.Run("Should list working and not found endpoints", func(t *testing.T) {
		cache, _ := newTestCache(t)
		cache.RecordSuccess("models/a")
		cache.RecordFailure("models/gone", FailureNotFound, "404")
		snap := cache.SnapshotStatus()
		assert.Equal(t, []string{"models/a"}, snap.Working)
		assert.Equal(t, []string{"models/gone"}, snap.NotFound)
	})
}
