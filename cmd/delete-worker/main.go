package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/todolite/service/internal/app/deleteworker"
	"github.com/todolite/service/internal/app/items"
	"github.com/todolite/service/internal/messaging"
	"github.com/todolite/service/internal/platform/dbpool"
	"github.com/todolite/service/internal/platform/env"
	"github.com/todolite/service/internal/platform/logging"
	"github.com/todolite/service/internal/platform/natsutil"
	"github.com/todolite/service/internal/platform/params"
)

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(env.String("LOG_LEVEL", "info"), "delete-worker")

	pgURL := env.String("DATABASE_URL", env.DefaultDatabaseURL)
	redisAddr := env.String("REDIS_ADDR", env.DefaultRedisAddr)
	natsURL := env.String("NATS_URL", env.DefaultNATSURL)
	pollInterval := env.Duration("WORKER_POLL_INTERVAL", 5*time.Second)
	batchSize := env.Int("WORKER_BATCH_SIZE", deleteworker.DefaultBatchSize)
	ackWait := env.Duration("WORKER_ACK_WAIT", 30*time.Second)
	retryDelay := env.Duration("WORKER_RETRY_DELAY", deleteworker.DefaultRetryDelay)

	pool, err := dbpool.New(runCtx, pgURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()

	repo := items.NewRepository(pool)
	if err := waitForPostgres(runCtx, pool, repo, 30*time.Second); err != nil {
		logger.Fatal().Err(err).Msg("postgres not ready")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	paramStore := params.NewStore(redisClient)

	client, err := natsutil.ConnectJetStreamWithRetry(natsURL, 20*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer client.Close()

	if err := messaging.EnsureDeleteStream(client.JS); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure delete stream")
	}

	queue := messaging.NewPullQueue(client.JS, "delete-worker", ackWait)
	service := deleteworker.NewService(repo, paramStore, queue, logger)
	service.BatchSize = batchSize
	service.RetryDelay = retryDelay

	logger.Info().Dur("poll_interval", pollInterval).Msg("delete-worker started")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			logger.Info().Msg("delete-worker stopping")
			return
		case <-ticker.C:
		}

		invocationCtx, cancel := context.WithTimeout(runCtx, pollInterval)
		err := service.RunOnce(invocationCtx)
		cancel()
		if err != nil {
			if errors.Is(err, deleteworker.ErrQueueAddressMissing) {
				logger.Error().Msg("delete queue subject missing from parameter store, skipping invocation")
				continue
			}
			logger.Error().Err(err).Msg("worker invocation failed")
		}
	}
}

func waitForPostgres(ctx context.Context, pool *pgxpool.Pool, repo *items.Repository, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = pool.Ping(attemptCtx)
		if lastErr == nil {
			lastErr = repo.EnsureSchema(attemptCtx)
		}
		cancel()

		if lastErr == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}
