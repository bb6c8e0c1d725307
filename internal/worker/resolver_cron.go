package worker

// resolver_cron.go
// Background goroutine that periodically links unresolved transactions to
// policy numbers. Overlapping runs (another replica, a manual trigger) are
// skipped through the resolver's Redis lock.

import (
	"context"
	"errors"
	"time"

	"sdkadmin/internal/service"

	"github.com/rs/zerolog/log"
)

// StartResolverCron ticks every interval until ctx is cancelled.
// A non-positive interval leaves the resolver on demand only.
func StartResolverCron(ctx context.Context, resolver service.ResolverService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("resolver_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("resolver_cron: shutting down")
				return
			case <-ticker.C:
				runResolver(ctx, resolver)
			}
		}
	}()
}

func runResolver(ctx context.Context, resolver service.ResolverService) {
	res, err := resolver.ResolveUnlinked(ctx)
	switch {
	case errors.Is(err, service.ErrResolverBusy):
		log.Debug().Msg("resolver_cron: another run holds the lock, skipping tick")
	case err != nil:
		log.Error().Err(err).Msg("resolver_cron: run failed")
	case res.Resolved > 0 || len(res.Unresolved) > 0:
		log.Info().
			Int("resolved", res.Resolved).
			Int("unresolved", len(res.Unresolved)).
			Msg("resolver_cron: tick complete")
	}
}
