package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"mailtriage/internal/domain"
	"mailtriage/internal/store"
	"mailtriage/internal/whitelist"
)

// SortItem is the per-record outcome of one sort pass.
type SortItem struct {
	Key      string          `json:"key"`
	Priority domain.Priority `json:"priority"`
	Category domain.Category `json:"category"`
	Score    int             `json:"relevance_score"`
	Matched  bool            `json:"whitelist_matched"`
	Rule     string          `json:"whitelist_rule,omitempty"`
	SortedAt time.Time       `json:"sorted_at"`
}

// SortFiltered runs the whitelist engine over the filtered partition. With
// apply set, each record gains priority, category, score and rule and moves
// to the sorted status; otherwise the pass is a preview. Results come back
// ordered by priority, relevance score breaking ties.
func SortFiltered(ctx context.Context, log *logrus.Logger, engine *whitelist.Engine, filtered store.Partition, apply bool) ([]SortItem, error) {
	keys, err := filtered.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list filtered partition: %w", err)
	}

	now := time.Now().UTC()
	var items []SortItem

	for _, key := range keys {
		rec, err := filtered.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrBadRecord) {
				log.WithField("key", key).Warn("skipping malformed record")
				continue
			}
			return items, err
		}
		if rec == nil || rec.Status != domain.StatusPending {
			continue
		}

		cls := engine.Classify(domain.Email{
			From:    rec.From,
			To:      rec.To,
			Subject: rec.Subject,
			Body:    rec.Body,
			Date:    rec.Date,
		}, now)

		item := SortItem{
			Key:      key,
			Priority: cls.Priority,
			Category: cls.Category,
			Score:    cls.Score,
			Matched:  cls.Matched,
			SortedAt: now,
		}
		if cls.Rule != nil {
			item.Rule = cls.Rule.ID
		}

		if apply {
			rec.Priority = cls.Priority
			rec.SortCategory = cls.Category
			rec.Score = cls.Score
			rec.WhitelistRule = item.Rule
			rec.SortedAt = now
			rec.Status = domain.StatusSorted
			if err := filtered.Put(ctx, key, rec); err != nil {
				return items, fmt.Errorf("apply sort %s: %w", key, err)
			}
		}

		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := priorityRank(items[i].Priority), priorityRank(items[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityUrgent:
		return 4
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	default:
		return 1
	}
}
