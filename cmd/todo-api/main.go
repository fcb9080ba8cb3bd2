package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/todolite/service/internal/app/items"
	"github.com/todolite/service/internal/app/todoapi"
	"github.com/todolite/service/internal/contracts"
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

	logger := logging.New(env.String("LOG_LEVEL", "info"), "todo-api")

	apiAddr := env.String("TODO_API_ADDR", env.DefaultAPIAddr)
	pgURL := env.String("DATABASE_URL", env.DefaultDatabaseURL)
	redisAddr := env.String("REDIS_ADDR", env.DefaultRedisAddr)
	natsURL := env.String("NATS_URL", env.DefaultNATSURL)
	deleteDelay := env.Duration("DELETE_ENQUEUE_DELAY", todoapi.DefaultDeleteDelay)
	shutdownTimeout := env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second)

	pool, err := dbpool.New(runCtx, pgURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()

	repo := items.NewRepository(pool)
	if err := waitForItemSchema(runCtx, repo, 30*time.Second); err != nil {
		logger.Fatal().Err(err).Msg("item schema not ready")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	paramStore := params.NewStore(redisClient)

	// Seed the queue subject parameter so a fresh environment works out of
	// the box: an explicit DELETE_QUEUE_SUBJECT always wins, otherwise the
	// default subject is written only when the parameter is absent.
	if subject := env.String("DELETE_QUEUE_SUBJECT", ""); subject != "" {
		if err := paramStore.Set(runCtx, contracts.DeleteQueueParam, subject); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed delete queue parameter")
		}
		logger.Info().Str("subject", subject).Msg("seeded delete queue parameter")
	} else if _, err := paramStore.Get(runCtx, contracts.DeleteQueueParam); errors.Is(err, params.ErrParameterNotFound) {
		if err := paramStore.Set(runCtx, contracts.DeleteQueueParam, messaging.DefaultDeleteSubject); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed delete queue parameter")
		}
		logger.Info().Str("subject", messaging.DefaultDeleteSubject).Msg("seeded default delete queue parameter")
	}

	client, err := natsutil.ConnectJetStreamWithRetry(natsURL, 20*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer client.Close()

	if err := messaging.EnsureDeleteStream(client.JS); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure delete stream")
	}
	archive, err := messaging.NewObjectArchive(client.JS)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open archive bucket")
	}

	publisher := messaging.NewDelayPublisher(client.JS)
	service := todoapi.NewService(repo, paramStore, archive, publisher.Publish)
	service.DeleteDelay = deleteDelay
	handler := todoapi.NewHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := checkReadiness(r.Context(), pool, redisClient, client.Conn); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              apiAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().Str("addr", apiAddr).Msg("todo-api listening")
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Fatal().Err(err).Msg("HTTP server failed")
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func waitForItemSchema(ctx context.Context, repo *items.Repository, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = repo.EnsureSchema(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}

func checkReadiness(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client, conn *nats.Conn) error {
	if conn == nil {
		return errors.New("nats connection is nil")
	}
	if conn.Status() != nats.CONNECTED {
		return fmt.Errorf("nats is not connected: %s", conn.Status().String())
	}

	checkCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()
	if err := pool.Ping(checkCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	if err := redisClient.Ping(checkCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
