// Package worker contains the background sweeper that auto-cancels
// customers who were called to the counter but never showed up.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/queueup/waitlist/internal/service"
)

// Sweeper periodically scans for called entries whose calledAt timestamp
// is older than the configured timeout and cancels them through the
// lifecycle engine.  It shares the entry store with the request handlers;
// a race against a concurrent operator action resolves last-write-wins.
type Sweeper struct {
	svc      *service.WaitlistService
	store    service.EntryStore
	interval time.Duration
	timeout  time.Duration
}

// NewSweeper returns a Sweeper.  interval controls how often the scan
// runs; timeout is how long a called entry may remain unanswered.
func NewSweeper(svc *service.WaitlistService, store service.EntryStore, interval, timeout time.Duration) *Sweeper {
	return &Sweeper{svc: svc, store: store, interval: interval, timeout: timeout}
}

// Run ticks until the context is cancelled.  Each tick is isolated: a
// failing scan is logged and retried on the next tick, and one entry that
// cannot be cancelled does not stop the rest of the sweep.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single scan-and-cancel pass and returns the number of
// entries cancelled.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-s.timeout)
	stale, err := s.store.ListCalledBefore(ctx, cutoff)
	if err != nil {
		log.Printf("sweeper: scan failed: %v", err)
		return 0
	}
	cancelled := 0
	for _, entry := range stale {
		if _, err := s.svc.Cancel(ctx, entry.ID); err != nil {
			log.Printf("sweeper: cancel entry %d failed: %v", entry.ID, err)
			continue
		}
		log.Printf("sweeper: auto-cancelled entry %d after call timeout", entry.ID)
		cancelled++
	}
	return cancelled
}
