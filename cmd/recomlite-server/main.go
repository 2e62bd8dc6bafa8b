// Command recomlite-server runs the recomlite HTTP API: config → logger
// → Redis store (circuit-breaker wrapped) → interner → engines →
// rerankers → orchestrator → router → HTTP server with graceful
// shutdown, the way the teacher gateway's main.go wires its own stack.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/recomlite/recomlite-server/internal/config"
	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/engine/cb"
	"github.com/recomlite/recomlite-server/internal/engine/tcr"
	"github.com/recomlite/recomlite-server/internal/httpapi"
	"github.com/recomlite/recomlite-server/internal/interner"
	"github.com/recomlite/recomlite-server/internal/logger"
	"github.com/recomlite/recomlite-server/internal/observability"
	"github.com/recomlite/recomlite-server/internal/orchestrator"
	"github.com/recomlite/recomlite-server/internal/rerank"
	"github.com/recomlite/recomlite-server/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("recomlite server starting")

	redisOpt, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	redisClient := goredis.NewClient(redisOpt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis ping failed — continuing, circuit breaker will trip after repeated failures")
	} else {
		log.Info().Msg("redis connected")
	}
	cancel()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	rawStore := store.NewRedisStoreFromClient(redisClient)
	breakerCfg := store.DefaultCircuitBreakerConfig("redis")
	backingStore := store.NewCircuitStore(rawStore, breakerCfg, log, metrics)

	var lock *redislock.Client
	if cfg.StrictIntern {
		lock = redislock.New(redisClient)
		log.Info().Msg("strict intern mode: interning serialized via redislock")
	}

	in, err := interner.New(interner.Config{
		Prefix: cfg.InternerPrefix,
		Logger: log,
		Store:  backingStore,
		Lock:   lock,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("interner init failed")
	}

	tcrEngine, err := tcr.New(tcr.Config{
		Prefix:              cfg.TCRPrefix,
		Logger:              log,
		Store:               backingStore,
		NeighborCap:         cfg.NeighborCap,
		InLoopCap:           cfg.InLoopCap,
		AlreadyBoughtWeight: cfg.AlreadyBoughtWeight,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("tcr engine init failed")
	}

	epsilonReranker, err := rerank.NewEpsilon(rerank.EpsilonConfig{Epsilon: cfg.EpsilonDefault})
	if err != nil {
		log.Fatal().Err(err).Msg("epsilon reranker init failed")
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Logger: log,
		Interner: in,
		Engines: map[string]engine.Engine{
			"tcr": tcrEngine,
			"cb":  cb.New(),
		},
		Reranker: epsilonReranker,
		Metrics:  metrics,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	apiKeys := parseAPIKeys(os.Getenv("RECOMLITE_API_KEYS"))
	router := httpapi.NewRouter(cfg, log, orch, apiKeys)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("recomlite listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("recomlite stopped gracefully")
	}

	if err := redisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing redis client")
	}
}

// parseAPIKeys turns a comma-separated RECOMLITE_API_KEYS value into the
// set httpapi.NewRouter expects. An empty value disables API key auth.
func parseAPIKeys(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	keys := make(map[string]bool)
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys[k] = true
		}
	}
	return keys
}
