// Package scheduler runs the periodic promotion task. It is the only place
// the system advances on its own: without a running (and enabled)
// scheduler, registered users stay in their wait sets until an operator
// triggers a manual batch.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/virtual-waiting-room/internal/config"
	"github.com/iliyamo/virtual-waiting-room/internal/service"
)

// Scheduler drives bounded promotions for every discovered queue on a
// fixed-delay cadence: the next tick is scheduled only after the previous
// one finishes, so ticks never overlap however long a pass takes.
type Scheduler struct {
	svc *service.AdmissionService
	cfg config.SchedulerConfig
}

// New returns a Scheduler over the admission service.
func New(svc *service.AdmissionService, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{svc: svc, cfg: cfg}
}

// Run blocks until ctx is cancelled. It waits the configured warm-up delay,
// then alternates Tick and the fixed interval sleep. Start it in its own
// goroutine from main.
func (s *Scheduler) Run(ctx context.Context) {
	if !sleepCtx(ctx, s.cfg.InitialDelay) {
		return
	}
	for {
		s.Tick(ctx)
		if !sleepCtx(ctx, s.cfg.Interval) {
			return
		}
	}
}

// Tick performs one promotion pass: discover every queue with waiting
// members and promote up to the configured ceiling from each. It returns
// the total number of users admitted across all queues. One queue's
// failure is logged and skipped, never aborting the rest of the pass.
// When scheduling is disabled the tick body is skipped entirely and the
// timer keeps running inert.
func (s *Scheduler) Tick(ctx context.Context) int64 {
	if !s.cfg.Enabled {
		log.Println("passed scheduling...")
		return 0
	}
	log.Println("called scheduling...")

	queues, err := s.svc.DiscoverQueues(ctx)
	if err != nil {
		log.Printf("scheduler: queue discovery failed: %v", err)
		return 0
	}

	var total int64
	for _, queueName := range queues {
		allowed, err := s.svc.Allow(ctx, queueName, s.cfg.MaxAllowUsers)
		if err != nil {
			log.Printf("scheduler: promotion for queue %s failed: %v", queueName, err)
			continue
		}
		log.Printf("Tried %d and allowed %d members of %s queue", s.cfg.MaxAllowUsers, allowed, queueName)
		total += allowed
	}
	return total
}

// sleepCtx sleeps for d or until ctx is done; it reports false when the
// context ended the wait.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
