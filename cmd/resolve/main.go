// cmd/resolve/main.go: one-off run of the policy-number resolver.
// Usage: go run ./cmd/resolve
package main

import (
	"context"
	"os"
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/infra"
	"sdkadmin/internal/repository"
	"sdkadmin/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	resolver := service.NewResolverService(
		repository.NewTransactionRepository(db),
		repository.NewPolicyLinkageRepository(db),
		infra.NewLocker(rdb),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := resolver.ResolveUnlinked(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("resolver run failed")
	}
	log.Info().
		Int("groups", res.Groups).
		Int("resolved", res.Resolved).
		Strs("unresolved", res.Unresolved).
		Msg("resolver run complete")
}
