package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FormatKey derives the full-resolution storage key for one email:
// YYYY.MM.DD_sender_HH-MM-SS with the sender's '@' and '.' replaced so the
// key stays filesystem-safe. Components are zero-padded, so keys sharing a
// year sort lexically in time order.
func FormatKey(from string, date time.Time) string {
	d := date.UTC()
	return fmt.Sprintf("%04d.%02d.%02d_%s_%02d-%02d-%02d",
		d.Year(), d.Month(), d.Day(), safeSender(from), d.Hour(), d.Minute(), d.Second())
}

// FormatKeyMinute is the minute-resolution variant used by the
// collision-avoiding path. Two emails from one sender in the same minute
// share this key; without the unique variant the second write wins.
func FormatKeyMinute(from string, date time.Time) string {
	d := date.UTC()
	return fmt.Sprintf("%04d.%02d.%02d_%s_%02d:%02d",
		d.Year(), d.Month(), d.Day(), safeSender(from), d.Hour(), d.Minute())
}

// UniqueKey returns the minute key unless it already exists in the target
// partition, in which case seconds are appended to disambiguate. The result
// depends on partition state at call time; a concurrent check-then-write can
// still race.
func UniqueKey(ctx context.Context, p Partition, from string, date time.Time) (string, error) {
	base := FormatKeyMinute(from, date)
	exists, err := p.Exists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check key %s: %w", base, err)
	}
	if !exists {
		return base, nil
	}
	return fmt.Sprintf("%s:%02d", base, date.UTC().Second()), nil
}

func safeSender(from string) string {
	s := strings.ToLower(strings.TrimSpace(from))
	s = strings.ReplaceAll(s, "@", "_")
	return strings.ReplaceAll(s, ".", "_")
}
