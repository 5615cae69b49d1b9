package core

import (
	"strings"
	"time"
)

// Filter selects notes for ListNotes. Every set field must match (logical AND).
type Filter struct {
	// SearchText matches title or content, case-insensitively, as a substring.
	SearchText string
	// Category matches by equality. Empty or CategoryAll matches everything.
	Category Category
	// OnDate matches notes created on the same calendar day. Zero disables it.
	OnDate time.Time
}

// Match reports whether n satisfies f, resolving calendar days in loc.
func (f Filter) Match(n Note, loc *time.Location) bool {
	if f.SearchText != "" {
		q := strings.ToLower(f.SearchText)
		if !strings.Contains(strings.ToLower(n.Title), q) &&
			!strings.Contains(strings.ToLower(n.Content), q) {
			return false
		}
	}

	if f.Category != "" && f.Category != CategoryAll && n.Category != f.Category {
		return false
	}

	if !f.OnDate.IsZero() && !SameDay(n.CreatedAt, f.OnDate, loc) {
		return false
	}

	return true
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
