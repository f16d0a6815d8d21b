package worker

// sweep_cron.go
// Background goroutine that watches for promotions crossing their end_date.
// Mutations flush the offer cache through the job queue, but a promotion that
// simply expires changes the best-offer answer without any API call, so the
// sweep enqueues a flush whenever an end_date falls inside the last interval.

import (
	"context"
	"time"

	"promotions/internal/repository"

	"github.com/rs/zerolog/log"
)

// SweepConfig holds all dependencies for the expiry sweep goroutine.
type SweepConfig struct {
	Repo       repository.PromotionRepository
	Dispatcher *Dispatcher
	Interval   time.Duration
}

// StartExpirySweep launches a background goroutine that ticks on the
// configured interval and respects the context for graceful shutdown.
func StartExpirySweep(ctx context.Context, cfg SweepConfig) {
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("expiry_sweep: started")

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_sweep: shutting down")
				return
			case now := <-ticker.C:
				sweepExpired(ctx, cfg, last, now)
				last = now
			}
		}
	}()
}

func sweepExpired(ctx context.Context, cfg SweepConfig, since, until time.Time) {
	promotions, err := cfg.Repo.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("expiry_sweep: failed to load promotions")
		return
	}

	expired := 0
	for i := range promotions {
		end := promotions[i].EndDate
		if end.After(since) && !end.After(until) {
			expired++
		}
	}
	if expired == 0 {
		return
	}

	log.Info().Int("count", expired).Msg("expiry_sweep: promotions expired, flushing offer cache")
	if err := cfg.Dispatcher.EnqueueOfferInvalidate(ctx); err != nil {
		log.Error().Err(err).Msg("expiry_sweep: failed to enqueue cache flush")
	}
}
