package whitelist

import (
	"testing"
	"time"

	"mailtriage/internal/domain"
)

func TestPriorityGroupsScannedUrgentFirst(t *testing.T) {
	// The urgent entry sits after the high entry in list order; it must
	// still be tested first.
	entries := []domain.WhitelistEntry{
		{ID: "high-first", Pattern: "example.com", Match: domain.MatchDomain,
			Priority: domain.PriorityHigh, Category: domain.CategoryLegal, Action: domain.ActionPriority},
		{ID: "urgent-later", Pattern: "example.com", Match: domain.MatchDomain,
			Priority: domain.PriorityUrgent, Category: domain.CategoryCourt, Action: domain.ActionPriority},
	}
	e := New(entries)

	got := e.Classify(domain.Email{From: "clerk@example.com", Date: time.Now()}, time.Now())
	if !got.Matched {
		t.Fatal("Classify() matched = false, want true")
	}
	if got.Rule.ID != "urgent-later" {
		t.Errorf("Classify() rule = %s, want urgent-later", got.Rule.ID)
	}
	if got.Priority != domain.PriorityUrgent {
		t.Errorf("Classify() priority = %s, want urgent", got.Priority)
	}
}

func TestMatchTypes(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		entry   domain.WhitelistEntry
		email   domain.Email
		matched bool
	}{
		{
			name:    "exact address",
			entry:   domain.WhitelistEntry{Pattern: "casework@ico.org.uk", Match: domain.MatchAddress, Priority: domain.PriorityHigh},
			email:   domain.Email{From: "casework@ico.org.uk"},
			matched: true,
		},
		{
			name:    "exact address rejects superstring",
			entry:   domain.WhitelistEntry{Pattern: "casework@ico.org.uk", Match: domain.MatchAddress, Priority: domain.PriorityHigh},
			email:   domain.Email{From: "not-casework@ico.org.uk.evil.com"},
			matched: false,
		},
		{
			name:    "domain suffix matches subdomain",
			entry:   domain.WhitelistEntry{Pattern: "gov.uk", Match: domain.MatchDomain, Priority: domain.PriorityHigh},
			email:   domain.Email{From: "clerk@courts.gov.uk"},
			matched: true,
		},
		{
			name:    "domain suffix matches bare domain",
			entry:   domain.WhitelistEntry{Pattern: "gov.uk", Match: domain.MatchDomain, Priority: domain.PriorityHigh},
			email:   domain.Email{From: "someone@gov.uk"},
			matched: true,
		},
		{
			name:    "domain suffix rejects lookalike",
			entry:   domain.WhitelistEntry{Pattern: "gov.uk", Match: domain.MatchDomain, Priority: domain.PriorityHigh},
			email:   domain.Email{From: "someone@notgov.uk"},
			matched: false,
		},
		{
			name:    "subject substring",
			entry:   domain.WhitelistEntry{Pattern: "hearing", Match: domain.MatchSubject, Priority: domain.PriorityUrgent},
			email:   domain.Email{Subject: "Notice of Hearing"},
			matched: true,
		},
		{
			name:    "keyword searches body",
			entry:   domain.WhitelistEntry{Pattern: "noreply", Match: domain.MatchKeyword, Priority: domain.PriorityLow},
			email:   domain.Email{From: "x@y.z", Subject: "hi", Body: "sent from a noreply account"},
			matched: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.email.Date = now
			e := New([]domain.WhitelistEntry{tt.entry})
			got := e.Classify(tt.email, now)
			if got.Matched != tt.matched {
				t.Errorf("Classify() matched = %v, want %v", got.Matched, tt.matched)
			}
		})
	}
}

func TestScore(t *testing.T) {
	now := time.Now()
	entry := domain.WhitelistEntry{
		Pattern: "hmcts.gov.uk", Match: domain.MatchDomain,
		Priority: domain.PriorityUrgent, Category: domain.CategoryCourt,
	}
	e := New([]domain.WhitelistEntry{entry})

	tests := []struct {
		name  string
		date  time.Time
		score int
	}{
		{"fresh email gets full lift", now.Add(-1 * time.Hour), 50 + 25 + 20},
		{"recent email gets smaller lift", now.Add(-48 * time.Hour), 50 + 25 + 10},
		{"mid-age email gets no lift", now.Add(-100 * time.Hour), 50 + 25},
		{"stale email is docked", now.Add(-200 * time.Hour), 50 + 25 - 5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := e.Classify(domain.Email{From: "listing@hmcts.gov.uk", Date: tt.date}, now)
			if got.Score != tt.score {
				t.Errorf("Classify() score = %d, want %d", got.Score, tt.score)
			}
		})
	}
}

func TestScoreClampedAtZero(t *testing.T) {
	now := time.Now()
	entry := domain.WhitelistEntry{
		Pattern: "unsubscribe", Match: domain.MatchSubject,
		Priority: domain.PriorityLow, Category: domain.CategorySpam,
	}
	e := New([]domain.WhitelistEntry{entry})

	// low(5) + spam(-10) + stale(-5) would be -10 unclamped.
	got := e.Classify(domain.Email{Subject: "please unsubscribe", Date: now.Add(-200 * time.Hour)}, now)
	if got.Score != 0 {
		t.Errorf("Classify() score = %d, want 0", got.Score)
	}
}

func TestUnmatchedDefault(t *testing.T) {
	e := New(nil)
	got := e.Classify(domain.Email{From: "anyone@anywhere.net", Subject: "hello", Date: time.Now()}, time.Now())

	if got.Matched {
		t.Error("Classify() matched = true, want false")
	}
	if got.Priority != domain.PriorityMedium {
		t.Errorf("Classify() priority = %s, want medium", got.Priority)
	}
	if got.Category != domain.CategoryNotification {
		t.Errorf("Classify() category = %s, want NOTIFICATION", got.Category)
	}
	if got.Score != 10 {
		t.Errorf("Classify() score = %d, want 10", got.Score)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	entries := []domain.WhitelistEntry{
		{Pattern: "spam", Match: domain.MatchKeyword, Priority: domain.PriorityLow, Category: domain.CategorySpam},
	}
	e := New(entries)
	now := time.Now()

	for _, age := range []time.Duration{0, 48 * time.Hour, 400 * time.Hour} {
		got := e.Classify(domain.Email{Subject: "spam", Date: now.Add(-age)}, now)
		if got.Score < 0 {
			t.Errorf("Classify() score = %d for age %v, want >= 0", got.Score, age)
		}
	}
}
