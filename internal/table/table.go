// Package table holds the pure filter, sort and selection logic behind the
// inventory table.
package table

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Record is a row the table engine can filter, sort and select.
type Record interface {
	// Key identifies the row for selection.
	Key() string
	// Field returns the display string of a sortable field.
	Field(name string) string
	// Fields returns every value free-text search looks at.
	Fields() []string
}

// Filter returns the rows with at least one field containing query,
// compared case-insensitively after trimming. An empty query returns rows
// unchanged.
func Filter[R Record](rows []R, query string) []R {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		for _, f := range r.Fields() {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sorter orders rows with the collation rules of a language.
type Sorter struct {
	Tag language.Tag
}

// DefaultSorter collates as English.
var DefaultSorter = Sorter{Tag: language.English}

// NewSorter parses a BCP 47 locale, falling back to English.
func NewSorter(locale string) Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultSorter
	}
	return Sorter{Tag: tag}
}

// Sort orders rows by field with English collation, then filters them by
// query. See SortWith.
func Sort[R Record](rows []R, field string, reversed bool, query string) []R {
	return SortWith(DefaultSorter, rows, field, reversed, query)
}

// SortWith returns a filtered copy of rows ordered by the collated string
// form of field, ascending unless reversed. Equal keys keep their relative
// order in both directions. With no field it is Filter.
func SortWith[R Record](s Sorter, rows []R, field string, reversed bool, query string) []R {
	if field == "" {
		return Filter(rows, query)
	}

	sorted := make([]R, len(rows))
	copy(sorted, rows)

	// A Collator keeps internal buffers, so each sort gets its own.
	col := collate.New(s.Tag)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := col.CompareString(sorted[i].Field(field), sorted[j].Field(field))
		if reversed {
			return c > 0
		}
		return c < 0
	})
	return Filter(sorted, query)
}
