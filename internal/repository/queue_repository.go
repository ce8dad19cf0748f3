package repository

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// The queue name is the third colon-separated segment of a wait key, which
// is what ScanWaitQueues relies on when discovering queues.
const (
    waitScanMatch  = "users:queue:*:wait"
    scanBatchCount = 100
)

// UserQueueRepo provides access to the per-queue wait and proceed sorted
// sets in Redis. Members are user IDs, scores are unix-second timestamps,
// so ascending score order is arrival order. All mutations are single
// Redis commands; there is no read-modify-write sequence anywhere, which
// is what makes concurrent registration and promotion safe without locks.
type UserQueueRepo struct {
    rdb *redis.Client
}

// NewUserQueueRepo returns a new UserQueueRepo bound to the provided client.
func NewUserQueueRepo(rdb *redis.Client) *UserQueueRepo { return &UserQueueRepo{rdb: rdb} }

func waitKey(queue string) string    { return "users:queue:" + queue + ":wait" }
func proceedKey(queue string) string { return "users:queue:" + queue + ":proceed" }

// RegisterWait adds userID to the queue's wait set with the current unix
// time as score, insert-only. If the member already exists the call fails
// with ErrAlreadyRegistered and the existing score (and therefore rank) is
// preserved. On success it returns the member's current 1-based rank; a
// negative rank from the store is passed through unchanged.
func (r *UserQueueRepo) RegisterWait(ctx context.Context, queue, userID string) (int64, error) {
    added, err := r.rdb.ZAddNX(ctx, waitKey(queue), redis.Z{
        Score:  float64(time.Now().Unix()),
        Member: userID,
    }).Result()
    if err != nil {
        return 0, err
    }
    if added == 0 {
        return 0, ErrAlreadyRegistered
    }
    return r.WaitRank(ctx, queue, userID)
}

// WaitRank returns the 1-based position of userID in the queue's wait set,
// or -1 when the member is not waiting (never registered, or already moved
// to proceed — the store cannot tell those apart).
func (r *UserQueueRepo) WaitRank(ctx context.Context, queue, userID string) (int64, error) {
    return r.rankOf(ctx, waitKey(queue), userID)
}

// ProceedRank returns the 1-based position of userID in the queue's proceed
// set, or -1 when the member has not been admitted.
func (r *UserQueueRepo) ProceedRank(ctx context.Context, queue, userID string) (int64, error) {
    return r.rankOf(ctx, proceedKey(queue), userID)
}

func (r *UserQueueRepo) rankOf(ctx context.Context, key, userID string) (int64, error) {
    rank, err := r.rdb.ZRank(ctx, key, userID).Result()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return -1, nil
        }
        return 0, err
    }
    if rank >= 0 {
        return rank + 1, nil
    }
    return rank, nil
}

// PopMinWait atomically removes up to count members with the lowest scores
// from the queue's wait set and returns their user IDs in ascending score
// order. Fewer waiting members than count is not an error; the result is
// simply shorter. Concurrent callers partition the waiting members between
// them because ZPOPMIN is a single atomic command.
func (r *UserQueueRepo) PopMinWait(ctx context.Context, queue string, count int64) ([]string, error) {
    popped, err := r.rdb.ZPopMin(ctx, waitKey(queue), count).Result()
    if err != nil {
        return nil, err
    }
    members := make([]string, 0, len(popped))
    for _, z := range popped {
        if s, ok := z.Member.(string); ok {
            members = append(members, s)
        }
    }
    return members, nil
}

// AddProceed inserts userID into the queue's proceed set with the given
// score (the promotion time). Re-adding an existing member only refreshes
// its score, which is harmless: proceed membership is a boolean fact.
func (r *UserQueueRepo) AddProceed(ctx context.Context, queue, userID string, score time.Time) error {
    return r.rdb.ZAdd(ctx, proceedKey(queue), redis.Z{
        Score:  float64(score.Unix()),
        Member: userID,
    }).Err()
}

// ScanWaitQueues walks the keyspace for wait-set keys and returns the queue
// names they belong to. Queues are discovered lazily from their keys; no
// separate registry is kept, so a queue exists exactly as long as someone
// is waiting in it.
func (r *UserQueueRepo) ScanWaitQueues(ctx context.Context) ([]string, error) {
    var (
        queues []string
        cursor uint64
    )
    for {
        keys, next, err := r.rdb.Scan(ctx, cursor, waitScanMatch, scanBatchCount).Result()
        if err != nil {
            return nil, err
        }
        for _, key := range keys {
            parts := strings.Split(key, ":")
            if len(parts) >= 3 {
                queues = append(queues, parts[2])
            }
        }
        cursor = next
        if cursor == 0 {
            return queues, nil
        }
    }
}
