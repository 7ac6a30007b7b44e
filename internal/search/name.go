// Package search provides the case-insensitive name matching used by the
// habit store's search operation.
//
// Matching lower-cases both sides with a locale-neutral caser from
// golang.org/x/text/cases and then performs a plain substring test, so
// "app" matches "Apple" and "APPLICATION". A cases.Caser carries state and is
// not safe for concurrent use; each NameMatcher owns its own.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameMatcher tests names against a single, pre-folded query.
type NameMatcher struct {
	caser cases.Caser
	query string
}

// NewNameMatcher prepares a matcher for query. An empty query matches every
// name.
func NewNameMatcher(query string) *NameMatcher {
	c := cases.Lower(language.Und)
	return &NameMatcher{caser: c, query: c.String(query)}
}

// Match reports whether name contains the query, ignoring case.
func (m *NameMatcher) Match(name string) bool {
	if m.query == "" {
		return true
	}
	return strings.Contains(m.caser.String(name), m.query)
}

// ContainsFold is a one-shot convenience for NewNameMatcher(query).Match(name).
func ContainsFold(name, query string) bool {
	return NewNameMatcher(query).Match(name)
}
