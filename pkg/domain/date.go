package domain

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is used for dates stamped on new projects and posts.
const DateLayout = "2006-01-02"

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, DateLayout}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDates orders two date strings as timestamps when both parse,
// falling back to plain string order.
func CompareDates(a, b string) int {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if okA && okB {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

// SortByDateDesc sorts newest first. Equal dates keep their input order.
func SortByDateDesc[T Entity](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return CompareDates(b.EntityDate(), a.EntityDate())
	})
}
