package rules

import (
	"strings"

	"mailtriage/internal/domain"
)

// BuildWhitelist derives the priority engine's entry list from the
// classification rules, then merges in the manual override entries.
// Duplicate patterns are collapsed: categories and tags are unioned and the
// highest priority wins.
func BuildWhitelist(list []domain.ClassificationRule) []domain.WhitelistEntry {
	var entries []domain.WhitelistEntry

	for _, r := range list {
		for _, pattern := range r.Conditions.ToIncludes {
			entries = append(entries, entryFromPattern(r.Category, pattern))
		}
		for _, pattern := range r.Conditions.FromIncludes {
			entries = append(entries, entryFromPattern(r.Category, pattern))
		}
	}

	entries = append(entries, ManualWhitelist()...)
	return dedupe(entries)
}

func entryFromPattern(category, pattern string) domain.WhitelistEntry {
	e := domain.WhitelistEntry{
		ID:         category + "/" + pattern,
		Pattern:    strings.ToLower(pattern),
		Partitions: []string{category},
		Priority:   priorityFor(category),
		Category:   engineCategoryFor(category),
		Tags:       tagsFor(category, pattern),
	}

	switch {
	case strings.Contains(pattern, "@"):
		e.Match = domain.MatchAddress
	case strings.Contains(pattern, "."):
		e.Match = domain.MatchDomain
		e.Pattern = strings.TrimPrefix(e.Pattern, ".")
	default:
		e.Match = domain.MatchKeyword
	}

	if e.Priority == domain.PriorityUrgent || e.Priority == domain.PriorityHigh {
		e.Action = domain.ActionPriority
	} else {
		e.Action = domain.ActionAllow
	}
	return e
}

func priorityFor(category string) domain.Priority {
	switch {
	case strings.HasPrefix(category, "complaints"),
		strings.HasPrefix(category, "courts"),
		strings.HasPrefix(category, "government"),
		strings.HasPrefix(category, "reconsideration"):
		return domain.PriorityHigh
	case strings.HasPrefix(category, "expenses"):
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

func engineCategoryFor(category string) domain.Category {
	switch {
	case strings.HasPrefix(category, "courts"), strings.HasPrefix(category, "reconsideration"):
		return domain.CategoryCourt
	case strings.HasPrefix(category, "government"):
		return domain.CategoryGovernment
	case strings.HasPrefix(category, "complaints"),
		strings.HasPrefix(category, "claimant"),
		strings.HasPrefix(category, "defendants"),
		strings.HasPrefix(category, "regulators"):
		return domain.CategoryLegal
	default:
		return domain.CategoryNotification
	}
}

// tagsFor infers the tag bundle from the destination category and the
// pattern text, mirroring how the partitions were originally labelled.
func tagsFor(category, pattern string) domain.EntryTags {
	var t domain.EntryTags

	switch {
	case strings.HasPrefix(category, "complaints"):
		t.LegalType = []string{"complaints", "regulatory"}
	case strings.HasPrefix(category, "courts"):
		t.LegalType = []string{"litigation", "judicial"}
	case strings.HasPrefix(category, "government"):
		t.LegalType = []string{"administrative", "regulatory"}
	case strings.HasPrefix(category, "claimant"):
		t.LegalType = []string{"private-party", "litigation"}
	case strings.HasPrefix(category, "defendants"):
		t.LegalType = []string{"defense", "litigation"}
	case strings.HasPrefix(category, "reconsideration"):
		t.LegalType = []string{"appeals", "judicial"}
	case strings.HasPrefix(category, "regulators"):
		t.LegalType = []string{"regulatory"}
	}

	p := strings.ToLower(pattern)
	if strings.Contains(p, ".uk") {
		t.Jurisdiction = append(t.Jurisdiction, "UK")
	}
	if strings.Contains(p, ".gov") || strings.Contains(p, "state.gov") {
		t.Jurisdiction = append(t.Jurisdiction, "US")
	}
	if strings.Contains(p, ".ee") {
		t.Jurisdiction = append(t.Jurisdiction, "Estonia")
	}

	if strings.Contains(p, "court") || strings.Contains(p, "judiciary") {
		t.Institution = append(t.Institution, "court")
	}
	if strings.Contains(p, "gov.") || strings.Contains(p, "government") {
		t.Institution = append(t.Institution, "government")
	}
	if strings.Contains(p, "parliament") {
		t.Institution = append(t.Institution, "parliament")
	}
	if strings.Contains(p, "ombudsman") {
		t.Institution = append(t.Institution, "ombudsman")
		if len(t.Jurisdiction) == 0 {
			t.Jurisdiction = []string{"UK"}
		}
	}
	if strings.Contains(p, "bar") || strings.Contains(p, "law") {
		t.Institution = append(t.Institution, "legal-profession")
	}
	return t
}

// ManualWhitelist is the hand-maintained override list: counsel and court
// domains that must always rank urgent, plus the subject and spam signals the
// generated entries cannot express.
func ManualWhitelist() []domain.WhitelistEntry {
	legal := domain.EntryTags{LegalType: []string{"litigation", "judicial"}, Jurisdiction: []string{"UK"}, Institution: []string{"court"}}

	return []domain.WhitelistEntry{
		{ID: "hk-law", Pattern: "hklaw.eu", Match: domain.MatchDomain, Priority: domain.PriorityUrgent,
			Category: domain.CategoryLegal, Action: domain.ActionPriority, Partitions: []string{ClaimantHKLaw},
			Tags: domain.EntryTags{LegalType: []string{"litigation"}, Institution: []string{"legal-profession"}}},
		{ID: "legis-chambers", Pattern: "legischambers.com", Match: domain.MatchDomain, Priority: domain.PriorityHigh,
			Category: domain.CategoryLegal, Action: domain.ActionPriority,
			Tags: domain.EntryTags{LegalType: []string{"litigation"}, Institution: []string{"legal-profession"}}},
		{ID: "hmcts", Pattern: "hmcts.gov.uk", Match: domain.MatchDomain, Priority: domain.PriorityUrgent,
			Category: domain.CategoryCourt, Action: domain.ActionPriority, Partitions: []string{ComplaintsHMCTS}, Tags: legal},
		{ID: "court-service", Pattern: "courtservice.gov.uk", Match: domain.MatchDomain, Priority: domain.PriorityUrgent,
			Category: domain.CategoryCourt, Action: domain.ActionPriority, Partitions: []string{CourtsAdministrative}, Tags: legal},
		{ID: "judiciary", Pattern: "judiciary.uk", Match: domain.MatchDomain, Priority: domain.PriorityUrgent,
			Category: domain.CategoryCourt, Action: domain.ActionPriority, Partitions: []string{CourtsSupremeCourt}, Tags: legal},
		{ID: "gov-uk", Pattern: "gov.uk", Match: domain.MatchDomain, Priority: domain.PriorityHigh,
			Category: domain.CategoryGovernment, Action: domain.ActionAllow, Partitions: []string{GovernmentUKLegalDepartment},
			Tags: domain.EntryTags{LegalType: []string{"administrative"}, Jurisdiction: []string{"UK"}, Institution: []string{"government"}}},

		// Urgent subject signals.
		{ID: "urgent-hearing", Pattern: "hearing", Match: domain.MatchSubject, Priority: domain.PriorityUrgent,
			Category: domain.CategoryCourt, Action: domain.ActionPriority, Tags: legal},
		{ID: "urgent-judgment", Pattern: "judgment", Match: domain.MatchSubject, Priority: domain.PriorityUrgent,
			Category: domain.CategoryCourt, Action: domain.ActionPriority, Tags: legal},
		{ID: "urgent-deadline", Pattern: "deadline", Match: domain.MatchSubject, Priority: domain.PriorityUrgent,
			Category: domain.CategoryLegal, Action: domain.ActionPriority},

		// Marketing gets scored down, never blocked outright.
		{ID: "unsubscribe", Pattern: "unsubscribe", Match: domain.MatchSubject, Priority: domain.PriorityLow,
			Category: domain.CategorySpam, Action: domain.ActionBlock},
		{ID: "offer", Pattern: "offer", Match: domain.MatchSubject, Priority: domain.PriorityLow,
			Category: domain.CategorySpam, Action: domain.ActionBlock},

		// Automated senders.
		{ID: "noreply", Pattern: "noreply", Match: domain.MatchKeyword, Priority: domain.PriorityLow,
			Category: domain.CategoryNotification, Action: domain.ActionAllow},
		{ID: "paypal", Pattern: "paypal.com", Match: domain.MatchDomain, Priority: domain.PriorityLow,
			Category: domain.CategoryNotification, Action: domain.ActionAllow},
		{ID: "github", Pattern: "github.com", Match: domain.MatchDomain, Priority: domain.PriorityLow,
			Category: domain.CategoryNotification, Action: domain.ActionAllow},
		{ID: "cloudflare", Pattern: "cloudflare.com", Match: domain.MatchDomain, Priority: domain.PriorityLow,
			Category: domain.CategoryNotification, Action: domain.ActionAllow},
	}
}

func dedupe(entries []domain.WhitelistEntry) []domain.WhitelistEntry {
	index := make(map[string]int)
	var out []domain.WhitelistEntry

	for _, e := range entries {
		key := string(e.Match) + ":" + e.Pattern
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, e)
			continue
		}

		prev := &out[i]
		prev.Partitions = unionStrings(prev.Partitions, e.Partitions)
		prev.Tags.LegalType = unionStrings(prev.Tags.LegalType, e.Tags.LegalType)
		prev.Tags.Jurisdiction = unionStrings(prev.Tags.Jurisdiction, e.Tags.Jurisdiction)
		prev.Tags.Institution = unionStrings(prev.Tags.Institution, e.Tags.Institution)
		if rank(e.Priority) > rank(prev.Priority) {
			prev.Priority = e.Priority
			prev.Action = e.Action
		}
	}
	return out
}

func rank(p domain.Priority) int {
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

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := a
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
