package classifier

import (
	"strings"

	"mailtriage/internal/domain"
)

// Result is the outcome of classifying one email against the rule set.
type Result struct {
	Matched    bool
	Categories []string
}

// Classify matches one email against the ordered rule set. Every rule is
// evaluated; within a rule the sender, recipient and subject lists are tried
// in that order and the first hit fires the rule. Matching is case-folded
// substring containment, so a subject containing "icoach" hits a condition of
// "ico". Duplicate categories are collapsed while preserving rule order.
func Classify(email domain.Email, list []domain.ClassificationRule) Result {
	from := strings.ToLower(email.From)
	to := strings.ToLower(email.To)
	subject := strings.ToLower(email.Subject)

	seen := make(map[string]bool)
	var matched []string

	for _, rule := range list {
		if !ruleHits(rule.Conditions, from, to, subject) {
			continue
		}
		if !seen[rule.Category] {
			seen[rule.Category] = true
			matched = append(matched, rule.Category)
		}
	}

	return Result{Matched: len(matched) > 0, Categories: matched}
}

func ruleHits(c domain.RuleConditions, from, to, subject string) bool {
	return containsAny(from, c.FromIncludes) ||
		containsAny(to, c.ToIncludes) ||
		containsAny(subject, c.SubjectIncludes)
}

func containsAny(field string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(field, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
