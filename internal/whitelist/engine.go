package whitelist

import (
	"strings"
	"time"

	"mailtriage/internal/domain"
)

// Score components. The final score is base + category bonus + age lift,
// clamped at zero.
const (
	scoreUrgent = 50
	scoreHigh   = 30
	scoreMedium = 20
	scoreLow    = 5

	bonusCourt        = 25
	bonusLegal        = 20
	bonusGovernment   = 15
	bonusNotification = 5
	bonusSpam         = -10

	liftFresh  = 20 // younger than 24h
	liftRecent = 10 // younger than 72h
	liftStale  = -5 // older than a week

	defaultScore = 10
)

// Engine scores and prioritizes emails against the whitelist. Entries are
// grouped by priority at construction so the scan always tests urgent
// entries before high ones, regardless of list position.
type Engine struct {
	groups map[domain.Priority][]domain.WhitelistEntry
}

func New(entries []domain.WhitelistEntry) *Engine {
	groups := make(map[domain.Priority][]domain.WhitelistEntry)
	for _, e := range entries {
		groups[e.Priority] = append(groups[e.Priority], e)
	}
	return &Engine{groups: groups}
}

// Classify scans the priority groups urgent through low; within a group list
// order breaks ties and the first match ends the scan entirely. An unmatched
// email gets the fixed default: medium priority, notification category,
// score 10.
func (e *Engine) Classify(email domain.Email, now time.Time) domain.Classification {
	from := strings.ToLower(email.From)
	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.Body)

	for _, level := range domain.Priorities {
		for i := range e.groups[level] {
			entry := &e.groups[level][i]
			if !matches(entry, from, subject, body) {
				continue
			}
			return domain.Classification{
				Matched:  true,
				Rule:     entry,
				Priority: entry.Priority,
				Category: entry.Category,
				Action:   entry.Action,
				Score:    score(entry, email.Date, now),
			}
		}
	}

	return domain.Classification{
		Matched:  false,
		Priority: domain.PriorityMedium,
		Category: domain.CategoryNotification,
		Action:   domain.ActionAllow,
		Score:    defaultScore,
	}
}

func matches(entry *domain.WhitelistEntry, from, subject, body string) bool {
	pattern := strings.ToLower(entry.Pattern)

	switch entry.Match {
	case domain.MatchAddress:
		return from == pattern
	case domain.MatchDomain:
		return strings.HasSuffix(from, "@"+pattern) || strings.HasSuffix(from, "."+pattern)
	case domain.MatchSubject:
		return strings.Contains(subject, pattern)
	case domain.MatchKeyword:
		return strings.Contains(from, pattern) ||
			strings.Contains(subject, pattern) ||
			strings.Contains(body, pattern)
	default:
		return false
	}
}

func score(entry *domain.WhitelistEntry, date, now time.Time) int {
	var s int

	switch entry.Priority {
	case domain.PriorityUrgent:
		s += scoreUrgent
	case domain.PriorityHigh:
		s += scoreHigh
	case domain.PriorityMedium:
		s += scoreMedium
	case domain.PriorityLow:
		s += scoreLow
	}

	switch entry.Category {
	case domain.CategoryCourt:
		s += bonusCourt
	case domain.CategoryLegal:
		s += bonusLegal
	case domain.CategoryGovernment:
		s += bonusGovernment
	case domain.CategoryNotification:
		s += bonusNotification
	case domain.CategorySpam:
		s += bonusSpam
	}

	age := now.Sub(date)
	switch {
	case age < 24*time.Hour:
		s += liftFresh
	case age < 72*time.Hour:
		s += liftRecent
	case age > 168*time.Hour:
		s += liftStale
	}

	if s < 0 {
		s = 0
	}
	return s
}
