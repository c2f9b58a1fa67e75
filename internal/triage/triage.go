package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mailtriage/internal/domain"
	"mailtriage/internal/store"
)

// Config tunes one instance of the triage state machine. The legal and
// business variants are two configurations of the same shape, not two code
// paths.
type Config struct {
	// NoActionSignals auto-dismiss when found in subject or sender.
	NoActionSignals []string
	// HighComplex maps category names to their suggested action.
	HighComplex map[string]string
	// LowComplex is the mid-tier category set.
	LowComplex map[string]bool
	LowComplexAction string
	DefaultAction    string
	DefaultReason    string
	// PreClassify, when set, runs after the auto-dismiss check and may
	// short-circuit with an escalated decision.
	PreClassify func(rec *domain.StoredRecord) (level domain.TriageLevel, reason, action string, ok bool)
}

// Engine assigns a terminal handling tier per record. Decisions are pure
// functions of the record; re-triage recomputes from scratch.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Decide evaluates the ordered heuristics: auto-dismiss signals, then the
// optional pre-classifier, then the high- and low-complexity category
// tables, falling back to SIMPLE. First match wins.
func (e *Engine) Decide(key string, rec *domain.StoredRecord) domain.TriageDecision {
	d := domain.TriageDecision{
		Key:      key,
		From:     rec.From,
		Subject:  rec.Subject,
		Date:     rec.Date,
		Category: firstCategory(rec),
	}

	subject := strings.ToLower(rec.Subject)
	from := strings.ToLower(rec.From)

	for _, signal := range e.cfg.NoActionSignals {
		if strings.Contains(subject, signal) || strings.Contains(from, signal) {
			d.Level = domain.TriageNoAction
			d.Reason = fmt.Sprintf("auto-dismiss: matches signal %q", signal)
			return d
		}
	}

	if e.cfg.PreClassify != nil {
		if level, reason, action, ok := e.cfg.PreClassify(rec); ok {
			d.Level = level
			d.Reason = reason
			d.SuggestedAction = action
			return d
		}
	}

	for _, category := range rec.Categories {
		if action, ok := e.cfg.HighComplex[category]; ok {
			d.Level = domain.TriageHighComplex
			d.Reason = fmt.Sprintf("category %s requires full pipeline processing", category)
			d.SuggestedAction = action
			return d
		}
	}

	for _, category := range rec.Categories {
		if e.cfg.LowComplex[category] {
			d.Level = domain.TriageLowComplex
			d.Reason = fmt.Sprintf("category %s requires letter or formal response", category)
			d.SuggestedAction = e.cfg.LowComplexAction
			return d
		}
	}

	d.Level = domain.TriageSimple
	d.Reason = e.cfg.DefaultReason
	d.SuggestedAction = e.cfg.DefaultAction
	return d
}

// Scan triages every eligible record in a partition. Records in a terminal
// status are left alone; malformed values are skipped so one bad record does
// not abort the rest.
func (e *Engine) Scan(ctx context.Context, log *logrus.Logger, part store.Partition) ([]domain.TriageDecision, error) {
	keys, err := part.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}

	var decisions []domain.TriageDecision
	for _, key := range keys {
		rec, err := part.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrBadRecord) {
				log.WithField("key", key).Warn("skipping malformed record")
				continue
			}
			return decisions, err
		}
		if rec == nil || !eligible(rec.Status) {
			continue
		}
		decisions = append(decisions, e.Decide(key, rec))
	}
	return decisions, nil
}

// Apply projects decisions back onto their records: level, reason and
// suggested action are written wholesale and the status moves to triaged.
func Apply(ctx context.Context, log *logrus.Logger, part store.Partition, decisions []domain.TriageDecision) (domain.TriageTotals, error) {
	var totals domain.TriageTotals
	now := time.Now().UTC()

	for _, d := range decisions {
		rec, err := part.Get(ctx, d.Key)
		if err != nil {
			if errors.Is(err, store.ErrBadRecord) {
				log.WithField("key", d.Key).Warn("skipping malformed record")
				continue
			}
			return totals, err
		}
		if rec == nil {
			continue
		}

		rec.TriageLevel = d.Level
		rec.TriageReason = d.Reason
		rec.TriageAction = d.SuggestedAction
		rec.TriagedAt = now
		rec.Status = domain.StatusTriaged
		if err := part.Put(ctx, d.Key, rec); err != nil {
			return totals, fmt.Errorf("apply decision %s: %w", d.Key, err)
		}
		totals.Count(d.Level)
	}
	return totals, nil
}

// eligible excludes terminal statuses. Already-triaged records stay in scope
// so a re-run recomputes their decision from scratch.
func eligible(s domain.Status) bool {
	switch s {
	case domain.StatusPending, domain.StatusSorted, domain.StatusTriaged:
		return true
	default:
		return false
	}
}

func firstCategory(rec *domain.StoredRecord) string {
	if len(rec.Categories) > 0 {
		return rec.Categories[0]
	}
	return "UNKNOWN"
}
