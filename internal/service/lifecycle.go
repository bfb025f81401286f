package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lottos-app/lottos/internal/store"
)

// LifecycleSweeper reconciles every event's isOpen flag with its
// registration deadline.
type LifecycleSweeper struct {
	store store.Store
	clock Clock
}

// NewLifecycleSweeper constructs a LifecycleSweeper.
func NewLifecycleSweeper(st store.Store) *LifecycleSweeper {
	return &LifecycleSweeper{store: st, clock: time.Now}
}

// WithClock overrides the clock. Test hook.
func (s *LifecycleSweeper) WithClock(clock Clock) *LifecycleSweeper {
	s.clock = clock
	return s
}

// Sweep sets isOpen = now < registerEndTime on every drifted event and
// returns the number of corrections written. Each correction is an
// independent single-field write: no other invariant depends on the exact
// instant of the flip, so no cross-document transaction is needed, the
// sweep is idempotent for a fixed now, and concurrent sweeps are safe.
func (s *LifecycleSweeper) Sweep(ctx context.Context) (int, error) {
	events, err := s.store.Events(ctx)
	if err != nil {
		return 0, fmt.Errorf("lifecycle sweep: %w", err)
	}

	now := s.clock()
	corrected := 0
	for i := range events {
		event := &events[i]
		shouldBeOpen := event.ShouldBeOpen(now)
		if event.IsOpen == shouldBeOpen {
			continue
		}
		if err := s.store.SetEventOpen(ctx, event.ID, shouldBeOpen); err != nil {
			slog.Warn("lifecycle sweep: correction failed",
				"event_id", event.ID,
				"error", err,
			)
			continue
		}
		corrected++
	}
	return corrected, nil
}
