package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/HVS13/foul-play-bot/internal/bot"
	"github.com/HVS13/foul-play-bot/internal/client"
	"github.com/HVS13/foul-play-bot/internal/config"
	"github.com/HVS13/foul-play-bot/internal/logger"
	"github.com/HVS13/foul-play-bot/internal/search"
	"github.com/HVS13/foul-play-bot/internal/store"
	"github.com/HVS13/foul-play-bot/internal/summary"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := client.New(client.Options{
		WebsocketURI:        cfg.WebsocketURI,
		LoginURI:            cfg.LoginURI,
		Username:            cfg.Username,
		Password:            cfg.Password,
		Avatar:              cfg.Avatar,
		ReconnectRetries:    cfg.ReconnectRetries,
		ReconnectBackoffSec: cfg.ReconnectBackoffSec,
		ReconnectMaxBackSec: cfg.ReconnectMaxBackSec,
	})
	if err := cli.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not reach the simulator")
	}
	defer cli.Close()
	if err := cli.Login(ctx); err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}
	log.Info().Str("username", cfg.Username).Str("mode", string(cfg.Mode)).Msg("Logged in")

	tags, closeTags, err := buildTagStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Tag store unavailable")
	}
	defer closeTags()

	sinks, closeSinks, err := buildSinks(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Summary sink unavailable")
	}
	defer closeSinks()

	pool, err := search.NewPool(cfg.Parallelism, func() (search.Engine, error) {
		return search.NewProcessEngine(cfg.EnginePath)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Could not start search engines")
	}
	defer pool.Close()

	orch := search.NewOrchestrator(pool, cfg.Parallelism, cfg.SearchTimeMs, cfg.RiskMode, nil)
	runner := bot.New(cfg, cli, orch, tags, sinks)
	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Interrupted")
			return
		}
		log.Fatal().Err(err).Msg("Run failed")
	}
}

func buildTagStore(cfg *config.Config) (store.TagStore, func(), error) {
	if cfg.TagStoreRedisURL != "" {
		rs, err := store.NewRedisTagStore(cfg.TagStoreRedisURL, cfg.Username)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	}
	return store.NewFileTagStore(cfg.TagStorePath), func() {}, nil
}

func buildSinks(cfg *config.Config) ([]summary.Sink, func(), error) {
	var sinks []summary.Sink
	closeAll := func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("Closing summary sink")
			}
		}
	}
	if cfg.SummaryJSONLPath != "" {
		s, err := summary.NewJSONLSink(cfg.SummaryJSONLPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.SummarySQLite != "" {
		s, err := summary.NewSQLiteSink(cfg.SummarySQLite)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, closeAll, nil
}
