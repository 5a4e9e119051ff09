package worker

// reconcile_cron.go
// Background goroutine that periodically enqueues a reconcile job so the
// balance rebuild and consistency report run even when nobody asks for them.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartReconcileCron enqueues one reconcile job per interval. It respects the
// context for graceful shutdown.
func StartReconcileCron(ctx context.Context, dispatcher *Dispatcher, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				if err := dispatcher.EnqueueReconcile(ctx); err != nil {
					log.Error().Err(err).Msg("reconcile_cron: failed to enqueue job")
				}
			}
		}
	}()
}
