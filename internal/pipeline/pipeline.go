package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"mailtriage/internal/domain"
	"mailtriage/internal/fetch"
	"mailtriage/internal/store"
	"mailtriage/internal/triage"
	"mailtriage/internal/whitelist"
)

// Fetcher is the mail-fetch collaborator. Check must be cheap enough to run
// before every pipeline run.
type Fetcher interface {
	Check(ctx context.Context) error
	Fetch(ctx context.Context) (fetch.Result, error)
	MarkProcessed(ctx context.Context, emails []domain.Email)
}

// SummarySink records the single summary per run.
type SummarySink interface {
	PutSummary(ctx context.Context, sum *domain.RunSummary) error
}

// Pipeline sequences fetch, classify/store, sort and triage as one logical
// unit. It is the only component that orders side effects; everything it
// calls is either pure or an idempotent upsert.
type Pipeline struct {
	log     *logrus.Logger
	fetcher Fetcher
	parts   *store.Partitions
	rules   []domain.ClassificationRule
	engine  *whitelist.Engine
	triager *triage.Engine
	sink    SummarySink
}

func New(log *logrus.Logger, fetcher Fetcher, parts *store.Partitions, ruleList []domain.ClassificationRule, engine *whitelist.Engine, triager *triage.Engine, sink SummarySink) *Pipeline {
	return &Pipeline{
		log:     log,
		fetcher: fetcher,
		parts:   parts,
		rules:   ruleList,
		engine:  engine,
		triager: triager,
		sink:    sink,
	}
}

// Run executes one pipeline pass. A failed connectivity check records a
// skipped run and touches nothing else. A failure partway through storing
// leaves partial writes in place; the summary's Partial flag says so.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunSummary, error) {
	sum := &domain.RunSummary{Timestamp: time.Now().UTC()}

	if err := p.fetcher.Check(ctx); err != nil {
		p.log.WithError(err).Warn("connectivity check failed, skipping run")
		sum.Status = "skipped"
		sum.Reason = "mail transport unreachable: " + err.Error()
		return sum, p.record(ctx, sum)
	}

	res, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.log.WithError(err).Error("fetch failed, skipping run")
		sum.Status = "skipped"
		sum.Reason = "fetch failed: " + err.Error()
		return sum, p.record(ctx, sum)
	}
	sum.Fetched = res.Fetched
	sum.Inbound = res.Inbound

	stored := store.StoreEmails(ctx, p.log, res.Emails, p.rules, p.parts)
	sum.RawStored = stored.RawStored
	sum.FilteredStored = stored.FilteredStored
	sum.RouteStats = stored.RouteStats
	sum.Partial = stored.Partial
	p.fetcher.MarkProcessed(ctx, res.Emails)

	if _, err := SortFiltered(ctx, p.log, p.engine, p.parts.Filtered, true); err != nil {
		p.log.WithError(err).Error("sort pass failed")
		sum.Partial = true
	}

	decisions, err := p.triager.Scan(ctx, p.log, p.parts.Filtered)
	if err != nil {
		p.log.WithError(err).Error("triage scan failed")
		sum.Partial = true
	}
	totals, err := triage.Apply(ctx, p.log, p.parts.Filtered, decisions)
	if err != nil {
		p.log.WithError(err).Error("triage apply failed")
		sum.Partial = true
	}
	sum.Triage = totals

	sum.Status = "complete"
	p.log.WithFields(logrus.Fields{
		"fetched":  sum.Fetched,
		"raw":      sum.RawStored,
		"filtered": sum.FilteredStored,
		"triaged":  sum.Triage.Total,
		"partial":  sum.Partial,
	}).Info("pipeline run complete")

	return sum, p.record(ctx, sum)
}

func (p *Pipeline) record(ctx context.Context, sum *domain.RunSummary) error {
	if err := p.sink.PutSummary(ctx, sum); err != nil {
		p.log.WithError(err).Error("failed to record run summary")
		return err
	}
	return nil
}
