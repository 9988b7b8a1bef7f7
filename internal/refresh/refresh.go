package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tableside-pos/api/internal/logger"
)

// DefaultInterval is the dashboard polling cadence.
const DefaultInterval = 30 * time.Second

// Fetcher performs one refresh of the dashboard data.
type Fetcher func(ctx context.Context) error

// Loop invokes a Fetcher on a fixed interval. A tick that arrives while the
// previous fetch is still running is skipped, so a slow backend never stacks
// overlapping requests.
type Loop struct {
	interval time.Duration
	fetch    Fetcher
	log      *logger.Logger

	inFlight atomic.Bool
	skipped  atomic.Int64
}

// NewLoop creates a refresh loop. A non-positive interval falls back to
// DefaultInterval.
func NewLoop(interval time.Duration, fetch Fetcher, log *logger.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{interval: interval, fetch: fetch, log: log}
}

// SkippedTicks reports how many ticks were dropped because a fetch was still
// in flight.
func (l *Loop) SkippedTicks() int64 {
	return l.skipped.Load()
}

// Run fetches once immediately, then on every tick until ctx is cancelled.
// Fetches run off the ticker goroutine so a slow one delays nothing; the
// in-flight guard is what prevents pile-ups.
func (l *Loop) Run(ctx context.Context) {
	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	if !l.inFlight.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		if l.log != nil {
			l.log.Warn("refresh tick skipped, previous fetch still running")
		}
		return
	}

	go func() {
		defer l.inFlight.Store(false)
		if err := l.fetch(ctx); err != nil && ctx.Err() == nil {
			if l.log != nil {
				l.log.Error("refresh fetch failed", err)
			}
		}
	}()
}
