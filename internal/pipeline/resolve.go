package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"mailtriage/internal/domain"
	"mailtriage/internal/store"
)

// ResolveResult maps one applied triage decision to its downstream
// disposition. Actual document generation happens outside this service; this
// stage only records what should happen next.
type ResolveResult struct {
	Key    string `json:"key"`
	Level  string `json:"level"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

// ResolveTriaged walks triaged records in the filtered partition and settles
// their status: dismissals close, simple mail completes once acknowledged,
// low-complexity work is queued, high-complexity work stays triaged until
// documents are generated elsewhere.
func ResolveTriaged(ctx context.Context, log *logrus.Logger, filtered store.Partition) ([]ResolveResult, error) {
	keys, err := filtered.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list filtered partition: %w", err)
	}

	var results []ResolveResult
	for _, key := range keys {
		rec, err := filtered.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrBadRecord) {
				log.WithField("key", key).Warn("skipping malformed record")
				continue
			}
			return results, err
		}
		if rec == nil || rec.Status != domain.StatusTriaged {
			continue
		}

		r := ResolveResult{Key: key, Level: string(rec.TriageLevel)}
		switch rec.TriageLevel {
		case domain.TriageNoAction:
			r.Action = "closed"
			rec.Status = domain.StatusClosed
		case domain.TriageSimple:
			r.Action = "draft_reply"
			rec.Status = domain.StatusCompleted
		case domain.TriageLowComplex:
			r.Action = "draft_letter"
			rec.Status = domain.StatusQueuedLowComplex
		case domain.TriageHighComplex:
			// Stays triaged until the document pipeline picks it up.
			r.Action = "generate_documents"
		default:
			r.Action = "unknown_level"
			r.Error = "unhandled triage level: " + string(rec.TriageLevel)
		}

		if rec.Status != domain.StatusTriaged {
			if err := filtered.Put(ctx, key, rec); err != nil {
				return results, fmt.Errorf("resolve %s: %w", key, err)
			}
		}
		results = append(results, r)
	}
	return results, nil
}
