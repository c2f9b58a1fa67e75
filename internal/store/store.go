package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"mailtriage/internal/classifier"
	"mailtriage/internal/domain"
)

// Result summarizes one StoreEmails pass. RouteStats reflects only the
// category writes that succeeded; Partial is set when any write failed.
type Result struct {
	RawStored      int
	FilteredStored int
	RouteStats     map[string]int
	Partial        bool
}

// StoreEmails writes every email to the raw partition, classifies it, and
// routes matches to the filtered partition plus each matched category
// partition. Writes are not transactional across partitions: a failed
// category write is logged and skipped, and nothing already written is
// rolled back. Route stats are aggregated locally by this single writer and
// never read-modify-written through shared state.
//
// Raw and filtered writes use the full-resolution key, so two messages from
// one sender in the same second intentionally collide last-write-wins.
// Category writes use the collision-avoiding minute key.
func StoreEmails(ctx context.Context, log *logrus.Logger, emails []domain.Email, ruleList []domain.ClassificationRule, parts *Partitions) Result {
	res := Result{RouteStats: make(map[string]int)}
	now := time.Now().UTC()

	for _, email := range emails {
		key := FormatKey(email.From, email.Date)

		raw := newRecord(email, []string{}, now)
		if err := parts.Raw.Put(ctx, key, raw); err != nil {
			log.WithError(err).WithField("key", key).Error("raw partition write failed")
			res.Partial = true
			continue
		}
		res.RawStored++

		cls := classifier.Classify(email, ruleList)
		if !cls.Matched {
			continue
		}

		rec := newRecord(email, cls.Categories, now)
		if err := parts.Filtered.Put(ctx, key, rec); err != nil {
			log.WithError(err).WithField("key", key).Error("filtered partition write failed")
			res.Partial = true
			continue
		}
		res.FilteredStored++

		for _, category := range cls.Categories {
			part, err := parts.ForCategory(category)
			if err != nil {
				log.WithError(err).Error("category routing failed")
				res.Partial = true
				continue
			}

			catKey, err := UniqueKey(ctx, part, email.From, email.Date)
			if err != nil {
				log.WithError(err).WithField("category", category).Error("key derivation failed")
				res.Partial = true
				continue
			}
			if err := part.Put(ctx, catKey, rec); err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"category": category,
					"key":      catKey,
				}).Error("category partition write failed")
				res.Partial = true
				continue
			}
			res.RouteStats[category]++
		}
	}

	return res
}

func newRecord(email domain.Email, categories []string, storedAt time.Time) *domain.StoredRecord {
	return &domain.StoredRecord{
		From:       email.From,
		To:         email.To,
		Subject:    email.Subject,
		Body:       email.Body,
		Date:       email.Date,
		MessageID:  email.MessageID,
		FetchID:    email.FetchID,
		Categories: categories,
		Status:     domain.StatusPending,
		StoredAt:   storedAt,
	}
}
