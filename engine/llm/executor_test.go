package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend replays canned outcomes keyed by endpoint, recording the
// order of calls it receives.
type scriptedBackend struct {
	// script maps an endpoint to its queue of outcomes; each call pops one.
	script map[string][]scriptedOutcome
	calls  []string
}

type scriptedOutcome struct {
	resp *Response
	err  error
}

func textResponse(text string) *Response {
	return &Response{Parts: []Part{{Text: text}}}
}

func (b *scriptedBackend) Generate(_ context.Context, endpoint string, _ []Turn, _ GenerateOptions) (*Response, error) {
	b.calls = append(b.calls, endpoint)
	queue := b.script[endpoint]
	if len(queue) == 0 {
		return nil, fmt.Errorf("unscripted call to %s", endpoint)
	}
	outcome := queue[0]
	b.script[endpoint] = queue[1:]
	return outcome.resp, outcome.err
}

func newTestExecutor(t *testing.T, backend Backend, sel *Selector) (*Executor, *StatusCache, *[]time.Duration) {
	t.Helper()
	cache := NewStatusCache(DefaultTTLConfig())
	exec := NewExecutor(ExecutorConfig{
		Backend:  backend,
		Pacer:    NewPacer(0),
		Cache:    cache,
		Selector: sel,
	})
	var slept []time.Duration
	exec.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return exec, cache, &slept
}

func twoEndpointSelector() *Selector {
	return &Selector{
		Primary:  "models/a",
		Fallback: "models/b",
	}
}

func TestExecutor_Execute(t *testing.T) {
	t.Run("Should return the first successful response", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{resp: textResponse("hi")}},
		}}
		exec, cache, _ := newTestExecutor(t, backend, twoEndpointSelector())

		resp, endpoint, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, "hi", resp.Parts[0].Text)
		assert.Equal(t, "models/a", endpoint)
		assert.Equal(t, []string{"models/a"}, backend.calls)
		assert.Equal(t, []string{"models/a"}, cache.Working())
	})
	t.Run("Should advance past a rate limited endpoint after cooling down", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{err: errors.New("HTTP 429")}},
			"models/b": {{resp: textResponse("ok")}},
		}}
		exec, cache, slept := newTestExecutor(t, backend, twoEndpointSelector())

		resp, endpoint, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Parts[0].Text)
		assert.Equal(t, "models/b", endpoint)
		assert.Equal(t, []time.Duration{DefaultRateLimitCooldown}, *slept)

		excluded, _ := cache.IsExcluded("models/a")
		assert.True(t, excluded)
		assert.Equal(t, []string{"models/b"}, cache.Working())
	})
	t.Run("Should not cool down after a non rate limited failure", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{err: errors.New("connection reset")}},
			"models/b": {{resp: textResponse("ok")}},
		}}
		exec, _, slept := newTestExecutor(t, backend, twoEndpointSelector())

		_, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		require.NoError(t, err)
		assert.Empty(t, *slept)
	})
	t.Run("Should not cool down when the rate limited endpoint was the last candidate", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{err: errors.New("boom")}},
			"models/b": {{err: errors.New("HTTP 429")}},
		}}
		exec, _, slept := newTestExecutor(t, backend, twoEndpointSelector())

		_, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		require.Error(t, err)
		assert.Empty(t, *slept)
	})
	t.Run("Should fail terminally when every candidate fails", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{err: errors.New("limit: 0")}},
			"models/b": {{err: errors.New("boom")}},
		}}
		exec, cache, _ := newTestExecutor(t, backend, twoEndpointSelector())

		_, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		oerr, ok := IsOrchestrationError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeAllEndpointsFailed, oerr.Code)

		counts := cache.Counts()
		assert.Equal(t, 1, counts.QuotaExhausted)
		assert.Equal(t, 1, counts.OtherErrors)
	})
	t.Run("Should fail terminally when no candidates remain", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{}}
		exec, cache, _ := newTestExecutor(t, backend, twoEndpointSelector())
		cache.RecordFailure("models/a", FailureNotFound, "404")
		cache.RecordFailure("models/b", FailureNotFound, "404")

		_, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		oerr, ok := IsOrchestrationError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeNoEndpoints, oerr.Code)
		assert.Empty(t, backend.calls)
	})
	t.Run("Should recover candidates after a cache reset", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{resp: textResponse("back")}},
		}}
		exec, cache, _ := newTestExecutor(t, backend, twoEndpointSelector())
		cache.RecordFailure("models/a", FailureNotFound, "404")
		cache.RecordFailure("models/b", FailureNotFound, "404")

		_, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		require.Error(t, err)

		cache.Reset()
		resp, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, "back", resp.Parts[0].Text)
	})
	t.Run("Should stop when the context is canceled during cooldown", func(t *testing.T) {
		backend := &scriptedBackend{script: map[string][]scriptedOutcome{
			"models/a": {{err: errors.New("HTTP 429")}},
		}}
		exec, _, _ := newTestExecutor(t, backend, twoEndpointSelector())
		exec.sleep = func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}

		_, _, err := exec.Execute(context.Background(), nil, GenerateOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
