package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces outbound calls to the remote API at least MinInterval apart.
// It is process-wide: every concurrent request funnels through the same
// pacer, because the remote quota is shared.
//
// The blocking decision depends only on the time since the last recorded
// call; the sliding window of recent call timestamps exists purely for
// diagnostics.
type Pacer struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	window  []time.Time
	size    int
	horizon time.Duration
	now     func() time.Time
}

// NewPacer creates a pacer enforcing the given minimum interval between
// calls. A non-positive interval disables blocking.
func NewPacer(minInterval time.Duration) *Pacer {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		size:    DefaultWindowSize,
		horizon: DefaultWindowHorizon,
		now:     time.Now,
	}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, then records the call. It returns early only when the context is
// canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	p.record()
	return nil
}

func (p *Pacer) record() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trimLocked()
	p.window = append(p.window, p.now())
	if len(p.window) > p.size {
		p.window = p.window[len(p.window)-p.size:]
	}
}

// trimLocked drops window entries older than the horizon. Lazy: runs only
// when the window is touched, never on a timer.
func (p *Pacer) trimLocked() {
	cutoff := p.now().Add(-p.horizon)
	i := 0
	for i < len(p.window) && p.window[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		p.window = append(p.window[:0], p.window[i:]...)
	}
}

// Window returns a copy of the recent call timestamps, oldest first.
func (p *Pacer) Window() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trimLocked()
	out := make([]time.Time, len(p.window))
	copy(out, p.window)
	return out
}
