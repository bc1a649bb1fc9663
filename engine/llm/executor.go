package llm

import (
	"context"
	"time"

	"github.com/toxichat/toxichat/pkg/logger"
)

// Executor drives one remote call to completion by walking the candidate
// list: pace, call, classify, cache, move on. Endpoint-local failures are
// never fatal; only an empty candidate list or exhausting it without a
// success terminates the request.
type Executor struct {
	backend  Backend
	pacer    *Pacer
	cache    *StatusCache
	selector *Selector
	cooldown time.Duration
	metrics  Recorder

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// ExecutorConfig wires an Executor.
type ExecutorConfig struct {
	Backend  Backend
	Pacer    *Pacer
	Cache    *StatusCache
	Selector *Selector
	// Cooldown is slept after a rate-limited failure when more candidates
	// remain, before the next endpoint is tried.
	Cooldown time.Duration
	Metrics  Recorder
}

// NewExecutor creates a resilient call executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultRateLimitCooldown
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopRecorder()
	}
	return &Executor{
		backend:  cfg.Backend,
		pacer:    cfg.Pacer,
		cache:    cfg.Cache,
		selector: cfg.Selector,
		cooldown: cooldown,
		metrics:  metrics,
		sleep:    sleepContext,
	}
}

// Execute tries each eligible endpoint in order and returns the first
// successful response together with the endpoint that produced it. A failed
// endpoint is recorded in the cache and never re-attempted within the same
// request.
func (e *Executor) Execute(ctx context.Context, turns []Turn, opts GenerateOptions) (*Response, string, error) {
	log := logger.FromContext(ctx)
	candidates := e.selector.Candidates(e.cache)
	if len(candidates) == 0 {
		log.Warn("no endpoints available, all cached as failed", "cache", e.cache.Counts())
		return nil, "", NewError(ErrCodeNoEndpoints, "every known endpoint is excluded by the failure cache", nil)
	}
	log.Debug("candidate endpoints selected", "count", len(candidates))

	for i, endpoint := range candidates {
		if err := e.pacer.Wait(ctx); err != nil {
			return nil, "", err
		}
		start := time.Now()
		resp, err := e.backend.Generate(ctx, endpoint, turns, opts)
		if err == nil {
			e.metrics.RecordRemoteCall(endpoint, "success", time.Since(start))
			e.cache.RecordSuccess(endpoint)
			log.Info("remote call succeeded", "endpoint", endpoint, "attempt", i+1)
			return resp, endpoint, nil
		}

		kind := Classify(err)
		e.metrics.RecordRemoteCall(endpoint, "failure", time.Since(start))
		e.metrics.RecordEndpointFailure(kind)
		e.cache.RecordFailure(endpoint, kind, err.Error())
		log.Warn("remote call failed",
			"endpoint", endpoint,
			"kind", kind,
			"attempt", i+1,
			"error", err,
		)

		if kind == FailureRateLimited && i < len(candidates)-1 {
			log.Debug("cooling down before next endpoint", "cooldown", e.cooldown)
			if err := e.sleep(ctx, e.cooldown); err != nil {
				return nil, "", err
			}
		}
	}

	log.Error("all candidate endpoints failed", "tried", len(candidates), "cache", e.cache.Counts())
	return nil, "", NewError(ErrCodeAllEndpointsFailed, "every candidate endpoint failed", nil)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
