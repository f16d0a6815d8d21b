package worker

// invalidate_worker.go
// Processes offer-cache flush jobs from QueueOfferInvalidate. Cached results
// are keyed offer:{product}:{price}, so a catalog mutation invalidates them
// wholesale rather than trying to compute which pairs a promotion touches.

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const offerKeyPattern = "offer:*"

// InvalidateWorker drops every cached best-offer entry from Redis.
type InvalidateWorker struct {
	rdb *redis.Client
}

func NewInvalidateWorker(rdb *redis.Client) *InvalidateWorker {
	return &InvalidateWorker{rdb: rdb}
}

// Process handles a single invalidation job with exponential backoff
// (max 3 retries). Exhausted jobs land in the DLQ; the cache TTL still
// bounds how long a stale entry can survive after that.
func (w *InvalidateWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload InvalidateJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("invalidate_worker: invalid payload")
		return
	}

	var deleted int
	err := withRetry(ctx, 3, func(attempt int) error {
		n, err := w.flush(ctx)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("invalidate_worker: flush failed, retrying")
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, w.rdb, QueueOfferInvalidate, "offer_invalidate", raw,
			"flush failed after 3 retries: "+err.Error(), 3)
		return
	}

	log.Info().
		Int("keys_deleted", deleted).
		Time("requested_at", payload.RequestedAt).
		Msg("invalidate_worker: offer cache flushed")
}

// flush scans for offer keys and deletes them in batches. SCAN keeps the
// operation incremental so a large cache never blocks Redis.
func (w *InvalidateWorker) flush(ctx context.Context) (int, error) {
	deleted := 0
	iter := w.rdb.Scan(ctx, 0, offerKeyPattern, 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := w.rdb.Del(ctx, batch...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		if err := w.rdb.Del(ctx, batch...).Err(); err != nil {
			return deleted, err
		}
		deleted += len(batch)
	}
	return deleted, nil
}
