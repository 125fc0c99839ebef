// Package coverage implements the coverage computation and auto-linking engine.
package coverage

import "strings"

// Matcher decides whether a test case title names a feature. Matching is
// case-insensitive substring containment, nothing more: no tokenization, no
// word boundaries, no fuzzy distance. A short feature name like "API" will
// match any title containing it, which is accepted imprecision.
type Matcher struct{}

// NewMatcher creates a new Matcher
func NewMatcher() Matcher {
	return Matcher{}
}

// Matches returns true iff the lowercased feature name appears as a
// contiguous substring of the lowercased test case title. An empty feature
// name matches everything; callers guard against empty names.
func (Matcher) Matches(featureName, testCaseTitle string) bool {
	return strings.Contains(strings.ToLower(testCaseTitle), strings.ToLower(featureName))
}
