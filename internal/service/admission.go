// Package service implements the admission-control engine: the wait to
// proceed transition, rank queries and the token-gated admission check.
// All queue state lives in Redis; the service itself is stateless and safe
// for concurrent use from request handlers and the scheduler alike.
package service

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/virtual-waiting-room/internal/queue"
    "github.com/iliyamo/virtual-waiting-room/internal/repository"
    "github.com/iliyamo/virtual-waiting-room/internal/utils"
)

// AdmissionService owns the wait→proceed transition for every queue. The
// audit repo and event publishing are optional observability side channels:
// their failures are logged and never fail an admission.
type AdmissionService struct {
    queues        *repository.UserQueueRepo
    audit         *repository.AuditRepo // nil disables the audit trail
    eventsEnabled bool
}

// NewAdmissionService returns an AdmissionService over the given repos.
// audit may be nil; eventsEnabled gates broker publishing.
func NewAdmissionService(queues *repository.UserQueueRepo, audit *repository.AuditRepo, eventsEnabled bool) *AdmissionService {
    return &AdmissionService{queues: queues, audit: audit, eventsEnabled: eventsEnabled}
}

// Register places userID at the tail of the queue's wait line and returns
// its 1-based rank. A user who is already waiting gets
// repository.ErrAlreadyRegistered and keeps their original position;
// callers on the polling path recover with Rank.
func (s *AdmissionService) Register(ctx context.Context, queueName, userID string) (int64, error) {
    return s.queues.RegisterWait(ctx, queueName, userID)
}

// Allow moves up to count members from the wait set into the proceed set,
// lowest arrival scores first, and returns how many were actually moved.
// Zero is a normal result for an empty queue. This is the only path by
// which a user ever becomes admitted. Concurrent Allow calls for the same
// queue partition the waiting members between them; no member can be moved
// twice because the pop is a single atomic store operation.
func (s *AdmissionService) Allow(ctx context.Context, queueName string, count int64) (int64, error) {
    members, err := s.queues.PopMinWait(ctx, queueName, count)
    if err != nil {
        return 0, err
    }
    now := time.Now()
    var allowed int64
    for _, userID := range members {
        if err := s.queues.AddProceed(ctx, queueName, userID, now); err != nil {
            // Members popped but not yet re-added are lost from the wait
            // set; surface the error with the count that did land.
            s.recordBatch(ctx, queueName, count, allowed)
            return allowed, err
        }
        allowed++
    }
    s.recordBatch(ctx, queueName, count, allowed)
    if s.eventsEnabled && allowed > 0 {
        ev := queue.AdmittedEvent{
            Queue:          queueName,
            RequestedCount: count,
            AllowedCount:   allowed,
            UserIDs:        members,
            AdmittedAt:     now.UTC().Format(time.RFC3339),
        }
        if err := PublishQueueAdmitted(ctx, ev); err != nil {
            log.Printf("admission: publish event for queue %s failed: %v", queueName, err)
        }
    }
    return allowed, nil
}

func (s *AdmissionService) recordBatch(ctx context.Context, queueName string, requested, allowed int64) {
    if s.audit == nil {
        return
    }
    if err := s.audit.RecordBatch(ctx, queueName, requested, allowed); err != nil {
        log.Printf("admission: audit insert for queue %s failed: %v", queueName, err)
    }
}

// IsProceedAdmitted reports whether userID has been promoted into the
// queue's proceed set. Pure read.
func (s *AdmissionService) IsProceedAdmitted(ctx context.Context, queueName, userID string) (bool, error) {
    rank, err := s.queues.ProceedRank(ctx, queueName, userID)
    if err != nil {
        return false, err
    }
    return rank > 0, nil
}

// Rank returns the 1-based wait position of userID in the queue, or -1
// when the user is not waiting. The sentinel does not distinguish "already
// admitted" from "never registered"; callers that care check
// IsProceedAdmitted as well.
func (s *AdmissionService) Rank(ctx context.Context, queueName, userID string) (int64, error) {
    return s.queues.WaitRank(ctx, queueName, userID)
}

// IsAdmittedByToken reports whether the presented token is the correct
// admission token for (queue, userID) AND the user has actually been
// promoted. A well-formed token for a never-promoted user is not enough:
// anyone who knows a user ID can derive the token, so proceed membership
// is the authoritative half of the check. Store failures propagate as
// errors rather than collapsing into "not admitted".
func (s *AdmissionService) IsAdmittedByToken(ctx context.Context, queueName, userID, token string) (bool, error) {
    ok, err := utils.VerifyQueueToken(queueName, userID, token)
    if err != nil || !ok {
        return false, err
    }
    return s.IsProceedAdmitted(ctx, queueName, userID)
}

// DiscoverQueues lists the names of every queue that currently has at
// least one waiting member. Used by the scheduler tick.
func (s *AdmissionService) DiscoverQueues(ctx context.Context) ([]string, error) {
    return s.queues.ScanWaitQueues(ctx)
}
