package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailtriage/internal/config"
	"mailtriage/internal/fetch"
	"mailtriage/internal/logging"
	"mailtriage/internal/pipeline"
	"mailtriage/internal/rules"
	"mailtriage/internal/store"
	"mailtriage/internal/triage"
	"mailtriage/internal/whitelist"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ruleList, err := rules.Load(cfg.RulesFile)
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}

	rstore, err := store.NewRedis(cfg.RedisURL, cfg.TTLSeconds)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	parts, err := store.NewPartitions(rstore, rules.Categories(ruleList))
	if err != nil {
		log.Fatalf("Failed to build partitions: %v", err)
	}

	p := pipeline.New(
		log,
		fetch.New(cfg, rstore, log),
		parts,
		ruleList,
		whitelist.New(rules.BuildWhitelist(ruleList)),
		triage.New(triage.LegalConfig()),
		rstore,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.PollSeconds <= 0 {
		if _, err := p.Run(ctx); err != nil {
			log.Fatalf("Pipeline run failed: %v", err)
		}
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.WithField("interval_seconds", cfg.PollSeconds).Info("pipeline loop started")
	if _, err := p.Run(ctx); err != nil {
		log.WithError(err).Error("pipeline run failed")
	}

	for {
		select {
		case <-quit:
			log.Info("shutting down pipeline loop")
			return
		case <-ticker.C:
			if _, err := p.Run(ctx); err != nil {
				log.WithError(err).Error("pipeline run failed")
			}
		}
	}
}
