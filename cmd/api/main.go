package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailtriage/internal/api"
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

	engine := whitelist.New(rules.BuildWhitelist(ruleList))
	triager := triage.New(triage.LegalConfig())
	fetcher := fetch.New(cfg, rstore, log)
	p := pipeline.New(log, fetcher, parts, ruleList, engine, triager, rstore)

	handler, err := api.New(cfg, log, parts, engine, triager, rstore, p)
	if err != nil {
		log.Fatalf("Failed to build API handler: %v", err)
	}
	handler.CheckStorage = rstore.Ping
	handler.CheckMail = fetcher.Check

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Router(),
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}
