package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"mailtriage/internal/domain"
)

func TestFormatKey(t *testing.T) {
	date := time.Date(2026, 3, 7, 9, 5, 3, 0, time.UTC)

	tests := []struct {
		name string
		from string
		want string
	}{
		{"plain address", "casework@ico.org.uk", "2026.03.07_casework_ico_org_uk_09-05-03"},
		{"uppercase folded", "Casework@ICO.org.uk", "2026.03.07_casework_ico_org_uk_09-05-03"},
		{"whitespace trimmed", "  a@b.c ", "2026.03.07_a_b_c_09-05-03"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatKey(tt.from, date); got != tt.want {
				t.Errorf("FormatKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatKeyMinute(t *testing.T) {
	date := time.Date(2026, 3, 7, 9, 5, 3, 0, time.UTC)
	want := "2026.03.07_a_b_c_09:05"
	if got := FormatKeyMinute("a@b.c", date); got != want {
		t.Errorf("FormatKeyMinute() = %q, want %q", got, want)
	}
}

func TestKeysSortLexicallyByTime(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 1, 9, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 30, 8, 0, 0, 0, time.UTC),
	}

	var keys []string
	for _, d := range dates {
		keys = append(keys, FormatKey("a@b.c", d))
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("keys not lexically sorted in time order: %v", keys)
	}
}

func TestUniqueKeyCollision(t *testing.T) {
	ctx := context.Background()
	part := NewMem().Partition("courts-supreme-court")
	from := "registry@supremecourt.uk"

	first := time.Date(2026, 3, 7, 9, 5, 3, 0, time.UTC)
	second := time.Date(2026, 3, 7, 9, 5, 41, 0, time.UTC) // same minute

	key1, err := UniqueKey(ctx, part, from, first)
	if err != nil {
		t.Fatalf("UniqueKey() error = %v", err)
	}
	if err := part.Put(ctx, key1, &domain.StoredRecord{From: from}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	key2, err := UniqueKey(ctx, part, from, second)
	if err != nil {
		t.Fatalf("UniqueKey() error = %v", err)
	}

	if key1 == key2 {
		t.Errorf("UniqueKey() produced colliding keys %q", key1)
	}
	if want := key1 + ":41"; key2 != want {
		t.Errorf("UniqueKey() second key = %q, want %q", key2, want)
	}

	// The non-avoiding variant collides by design: last write wins.
	if FormatKeyMinute(from, first) != FormatKeyMinute(from, second) {
		t.Error("FormatKeyMinute() should collide for same-minute emails")
	}
}
