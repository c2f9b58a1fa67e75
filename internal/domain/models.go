package domain

import "time"

// Email is one message as handed over by the mail-fetch collaborator.
// Immutable once fetched. MessageID is the transport-assigned identifier and
// the uniqueness key for dedupe; FetchID is assigned locally per fetch.
type Email struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
	MessageID string    `json:"message_id"`
	FetchID   string    `json:"fetch_id,omitempty"`
}

// Status is the lifecycle state of a stored record.
type Status string

const (
	StatusPending          Status = "pending"
	StatusSorted           Status = "sorted"
	StatusTriaged          Status = "triaged"
	StatusQueuedLowComplex Status = "queued_low_complex"
	StatusClosed           Status = "closed"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
)

// Priority is the whitelist engine's urgency tier.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities in scan order, most urgent first.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Category is the whitelist engine's coarse sender category.
type Category string

const (
	CategoryLegal        Category = "LEGAL"
	CategoryCourt        Category = "COURT"
	CategoryGovernment   Category = "GOVERNMENT"
	CategoryNotification Category = "NOTIFICATION"
	CategorySpam         Category = "SPAM"
)

// Action is what the whitelist engine recommends doing with a match.
type Action string

const (
	ActionAllow    Action = "allow"
	ActionPriority Action = "priority"
	ActionBlock    Action = "block"
)

// TriageLevel is the terminal handling tier of a filtered email.
type TriageLevel string

const (
	TriageNoAction    TriageLevel = "NO_ACTION"
	TriageSimple      TriageLevel = "SIMPLE"
	TriageLowComplex  TriageLevel = "LOW_COMPLEX"
	TriageHighComplex TriageLevel = "HIGH_COMPLEX"
)

// RuleConditions are the substring condition lists of a classification rule.
// Lists are OR-combined within themselves and across each other.
type RuleConditions struct {
	FromIncludes    []string `json:"fromIncludes,omitempty"`
	ToIncludes      []string `json:"toIncludes,omitempty"`
	SubjectIncludes []string `json:"subjectIncludes,omitempty"`
}

// ClassificationRule routes matching emails into one destination category
// partition. Matching is case-insensitive substring containment.
type ClassificationRule struct {
	Category   string         `json:"category"`
	Conditions RuleConditions `json:"conditions"`
}

// MatchType says how a whitelist entry's pattern is compared.
type MatchType string

const (
	MatchAddress MatchType = "address" // exact sender address
	MatchDomain  MatchType = "domain"  // sender domain suffix
	MatchSubject MatchType = "subject" // substring of the subject
	MatchKeyword MatchType = "keyword" // substring of sender, subject or body
)

// EntryTags is the tag bundle carried by a whitelist entry.
type EntryTags struct {
	LegalType    []string `json:"legal_type,omitempty"`
	Jurisdiction []string `json:"jurisdiction,omitempty"`
	Institution  []string `json:"institution,omitempty"`
}

// WhitelistEntry is one priority- and tag-annotated pattern. Entries are
// scanned in priority order; the first match decides.
type WhitelistEntry struct {
	ID         string    `json:"id"`
	Pattern    string    `json:"pattern"`
	Match      MatchType `json:"match"`
	Priority   Priority  `json:"priority"`
	Category   Category  `json:"category"`
	Action     Action    `json:"action"`
	Partitions []string  `json:"partitions,omitempty"`
	Tags       EntryTags `json:"tags"`
}

// Classification is the whitelist engine's verdict for one email.
type Classification struct {
	Matched  bool            `json:"matched"`
	Rule     *WhitelistEntry `json:"rule,omitempty"`
	Priority Priority        `json:"priority"`
	Category Category        `json:"category"`
	Action   Action          `json:"action"`
	Score    int             `json:"score"`
}

// StoredRecord is the persisted shape of an email inside a partition.
// Categories is exactly what the classifier returned at store time.
type StoredRecord struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Date       time.Time `json:"date"`
	MessageID  string    `json:"message_id"`
	FetchID    string    `json:"fetch_id,omitempty"`
	Categories []string  `json:"categories"`
	Status     Status    `json:"status"`
	StoredAt   time.Time `json:"stored_at"`

	// Set by the sort stage.
	Priority      Priority  `json:"priority,omitempty"`
	SortCategory  Category  `json:"sort_category,omitempty"`
	Score         int       `json:"relevance_score,omitempty"`
	WhitelistRule string    `json:"whitelist_rule,omitempty"`
	SortedAt      time.Time `json:"sorted_at,omitempty"`

	// Set when a triage decision is applied.
	TriageLevel  TriageLevel `json:"triage_level,omitempty"`
	TriageReason string      `json:"triage_reason,omitempty"`
	TriageAction string      `json:"triage_action,omitempty"`
	TriagedAt    time.Time   `json:"triaged_at,omitempty"`
}

// Age returns how long ago the email was received, relative to now.
func (r *StoredRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.Date)
}

// TriageDecision is a derived view over one stored record. It is never
// persisted on its own; applying it projects the level, reason and action
// back onto the record.
type TriageDecision struct {
	Key             string      `json:"key"`
	From            string      `json:"from"`
	Subject         string      `json:"subject"`
	Date            time.Time   `json:"date"`
	Category        string      `json:"category"`
	Level           TriageLevel `json:"level"`
	Reason          string      `json:"reason"`
	SuggestedAction string      `json:"suggested_action,omitempty"`
}

// TriageTotals is the per-level tally of one triage pass.
type TriageTotals struct {
	Total       int `json:"total"`
	NoAction    int `json:"no_action"`
	Simple      int `json:"simple"`
	LowComplex  int `json:"low_complex"`
	HighComplex int `json:"high_complex"`
}

// Count tallies one decision.
func (t *TriageTotals) Count(level TriageLevel) {
	t.Total++
	switch level {
	case TriageNoAction:
		t.NoAction++
	case TriageSimple:
		t.Simple++
	case TriageLowComplex:
		t.LowComplex++
	case TriageHighComplex:
		t.HighComplex++
	}
}

// RunSummary is the single record written per pipeline run.
type RunSummary struct {
	Timestamp      time.Time      `json:"timestamp"`
	Status         string         `json:"status"` // "complete" or "skipped"
	Reason         string         `json:"reason,omitempty"`
	Partial        bool           `json:"partial"`
	Fetched        int            `json:"fetched"`
	Inbound        int            `json:"inbound"`
	RawStored      int            `json:"raw_stored"`
	FilteredStored int            `json:"filtered_stored"`
	RouteStats     map[string]int `json:"route_stats,omitempty"`
	Triage         TriageTotals   `json:"triage"`
}
