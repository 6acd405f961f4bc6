package submit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/talentgate/assess-backend/internal/config"
)

// QueueRecorder pushes result records onto the Redis persistence queue. The
// result worker drains it into PostgreSQL, with row-by-row fallback and
// requeue, so a slow or briefly down database never blocks finalization.
type QueueRecorder struct {
	rdb *redis.Client
}

// NewQueueRecorder creates a QueueRecorder.
func NewQueueRecorder(rdb *redis.Client) *QueueRecorder {
	return &QueueRecorder{rdb: rdb}
}

// Record enqueues one result record.
func (r *QueueRecorder) Record(ctx context.Context, rec ResultRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result record: %w", err)
	}
	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue result record: %w", err)
	}
	return nil
}
