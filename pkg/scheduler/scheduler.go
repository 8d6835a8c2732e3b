// Package scheduler runs the delayed, fire-and-forget reconciliation passes
// that follow each bridge submission, decoupled from the request that
// created them. A periodic sweep re-checks initiated records whose scheduled
// pass was lost (e.g. to a process restart).
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// taskTimeout bounds each reconciliation pass, including its external
// chain queries.
const taskTimeout = time.Minute

// ReconcileFunc reconciles a single transaction id. Errors are the
// callee's to log; a pass is best-effort.
type ReconcileFunc func(ctx context.Context, id string)

// SweepFunc re-reconciles stale initiated records.
type SweepFunc func(ctx context.Context)

// Scheduler owns one timer per scheduled transaction id plus the sweep
// goroutine.
type Scheduler struct {
	delay     time.Duration
	reconcile ReconcileFunc
	logger    *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a scheduler that fires reconcile after delay for each
// scheduled id.
func New(delay time.Duration, reconcile ReconcileFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		delay:     delay,
		reconcile: reconcile,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
		stopCh:    make(chan struct{}),
	}
}

// Schedule arms a reconciliation pass for the transaction id. Scheduling
// the same id again resets its timer. No-op after Stop.
func (s *Scheduler) Schedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.timers[id]; ok {
		existing.Stop()
	}

	s.timers[id] = time.AfterFunc(s.delay, func() { s.fire(id) })
	s.logger.Debug("Scheduled reconciliation pass",
		zap.String("transaction_id", id),
		zap.Duration("delay", s.delay))
}

func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	s.reconcile(ctx, id)
}

// StartSweep runs sweep every interval until Stop. The sweep catches
// initiated records whose timer never fired.
func (s *Scheduler) StartSweep(interval time.Duration, sweep SweepFunc) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("Started reconciliation sweep", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
				sweep(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("Stopping reconciliation sweep")
				return
			}
		}
	}()
}

// Stop cancels pending timers, stops the sweep and waits for in-flight
// passes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// Pending returns the number of armed timers. Used by tests and the
// health endpoint.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
