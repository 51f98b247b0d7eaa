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

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/auth"
	router "github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/http"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/store"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/store/redisstore"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/store/sqlstore"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/jobs"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/orch"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/config"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func run(ctx context.Context, cfg *config.Config) error {
	sqlStore, err := sqlstore.Open(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	stores := []core.Store{sqlStore}
	reader := &store.Reader{SQL: sqlStore}
	if cfg.Store.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("module", "store.redis").Str("addr", cfg.Store.RedisAddr).Msg("redis unavailable, presence mirror disabled")
		} else {
			mirror := redisstore.New(client, cfg.Store.RedisPrefix, cfg.Store.PresenceTTL)
			stores = append(stores, mirror)
			reader.Redis = mirror
			log.Info().Str("module", "store.redis").Str("addr", cfg.Store.RedisAddr).Msg("presence mirror enabled")
		}
	}

	queue := jobs.NewQueue(jobs.Config{
		Workers:        cfg.Store.Workers,
		QueueSize:      cfg.Store.QueueSize,
		MaxRetries:     cfg.Store.MaxRetries,
		BaseRetryDelay: cfg.Store.RetryBaseDelay,
		MaxRetryDelay:  cfg.Store.RetryMaxDelay,
	})
	if err := queue.Start(ctx); err != nil {
		return err
	}

	policy, err := app.PolicyFor(cfg.Signal.BusyPolicy, cfg.Signal.Backpressure)
	if err != nil {
		return err
	}

	var sink core.Sink = jobs.NewStoreSink(queue, stores...)
	o := &orch.Orchestrator{
		Registry:    app.NewRegistry(),
		Rooms:       app.NewRoomManager(),
		Policy:      policy,
		Sink:        sink,
		RingTimeout: cfg.Signal.RingTimeout,
	}

	var verifier *auth.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.Auth.JWTSecret)
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{Orch: o, Verifier: verifier, Queue: queue, Calls: reader})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Voice server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		o.Stop()
		if err := queue.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Str("module", "jobs").Msg("queue not drained")
		}
		return nil
	})
	return g.Wait()
}
