// Package query translates external list requests (filter, sort, pagination,
// date range) into store-level terms and handles the CSV wire format for
// transaction import/export.
package query

import (
	"errors"
	"strings"
	"time"
)

// Pagination bounds. Page is 1-based; PageSize is clamped to [MinPageSize,
// MaxPageSize].
const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 20
)

// ErrInvalidDate is returned when a date bound cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// SortKey is a single ordering term. Keys apply in listed order as
// tie-breaks.
type SortKey struct {
	Field string
	Desc  bool
}

// sortableFields is the allow-list of client-exposed sort fields. Unknown
// keys are dropped rather than forwarded to the store.
var sortableFields = map[string]bool{
	"createdAt": true,
	"amount":    true,
	"category":  true,
	"status":    true,
}

// DefaultSort orders newest entries first.
var DefaultSort = []SortKey{{Field: "createdAt", Desc: true}}

// ParseSort parses a comma-separated sort expression ("-amount,createdAt").
// A "-" prefix means descending. Fields outside the allow-list are ignored;
// if nothing survives, DefaultSort is returned.
func ParseSort(expr string) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(part, "-") {
			desc = true
			part = part[1:]
		} else if strings.HasPrefix(part, "+") {
			part = part[1:]
		}
		if !sortableFields[part] {
			continue
		}
		keys = append(keys, SortKey{Field: part, Desc: desc})
	}
	if len(keys) == 0 {
		return DefaultSort
	}
	return keys
}

// Filter describes a transaction list request. The zero value lists
// everything, newest first, with the default page size.
type Filter struct {
	// Text matches case-insensitively as a substring of description OR
	// category.
	Text string

	// Category is an exact match when non-empty.
	Category string

	// From and To bound createdAt inclusively (Unix seconds, 0 = unbounded).
	From int64
	To   int64

	// Sort holds ordered sort keys; empty means DefaultSort.
	Sort []SortKey

	// Page is 1-based. PageSize is clamped to [MinPageSize, MaxPageSize].
	Page     int
	PageSize int
}

// Normalize clamps pagination and fills in default sort keys.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < MinPageSize {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if len(f.Sort) == 0 {
		f.Sort = DefaultSort
	}
}

// Offset returns the row offset for the normalized page.
func (f *Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// dateLayouts are accepted for date bounds and CSV date cells, tried in
// order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a date string into Unix seconds (UTC). When endOfDay is
// set and the input carries no time component, the result covers the whole
// day so the bound stays inclusive.
func ParseDate(s string, endOfDay bool) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if endOfDay && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t.Unix(), nil
	}
	return 0, ErrInvalidDate
}
