// Command recomlite-cli is the literal argv entry point of spec §6:
// given a seed and a user token, print that user's recommendations as a
// flat alternating [item_token, score_string, ...] sequence. It does
// not replay demo interactions the way the original source's CLI
// harness did — see DESIGN.md for that decision.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/recomlite/recomlite-server/internal/config"
	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/engine/cb"
	"github.com/recomlite/recomlite-server/internal/engine/tcr"
	"github.com/recomlite/recomlite-server/internal/interner"
	"github.com/recomlite/recomlite-server/internal/logger"
	"github.com/recomlite/recomlite-server/internal/orchestrator"
	"github.com/recomlite/recomlite-server/internal/rerank"
	"github.com/recomlite/recomlite-server/internal/store"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "Invalid number of arguments.")
		os.Exit(1)
	}

	seed, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid number of arguments.")
		os.Exit(1)
	}
	userToken := os.Args[2]

	cfg := config.Load()
	log := logger.New(cfg)

	redisOpt, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	redisClient := goredis.NewClient(redisOpt)
	defer redisClient.Close()

	backingStore := store.NewRedisStoreFromClient(redisClient)

	in, err := interner.New(interner.Config{Prefix: cfg.InternerPrefix, Logger: log, Store: backingStore})
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
		Logger:   log,
		Interner: in,
		Engines:  map[string]engine.Engine{"tcr": tcrEngine, "cb": cb.New()},
		Reranker: epsilonReranker,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	rng := rand.New(rand.NewSource(seed))
	recs, err := orch.GetRecommendations(context.Background(), userToken, cfg.InLoopCap, rng)
	if err != nil {
		log.Fatal().Err(err).Msg("get recommendations failed")
	}

	out := make([]string, 0, len(recs)*2)
	for _, rec := range recs {
		out = append(out, rec.Token, strconv.FormatFloat(rec.Score, 'g', -1, 64))
	}
	for i, field := range out {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(field)
	}
	fmt.Println()
}
