// Package dedup decides whether a submitted title already exists in the
// catalog. Matching is a single in-order scan that stops at the first
// sufficiently similar row; it deliberately does not look for the globally
// best match.
package dedup

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityThreshold is the ratio at or above which two titles are treated
// as the same song pending human confirmation.
const SimilarityThreshold = 0.75

// Normalize lowercases the title, strips punctuation (anything that is not
// a letter, digit or underscore) and collapses whitespace. Normalizing an
// already-normalized string returns it unchanged.
func Normalize(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Ratio is the difflib sequence ratio over characters, the same measure the
// 0.75 threshold was tuned against.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Verdict classifies the scan outcome.
type Verdict int

const (
	NoMatch Verdict = iota
	ExactMatch
	FuzzyMatch
)

// Candidate is one stored row to test against. Key is the string compared
// (original title for catalog rows, normalized title for ledger rows);
// Title, Regent and Link describe the row for user-facing messages.
type Candidate struct {
	Key    string
	Title  string
	Regent string
	Link   string
}

// Match is the resolver result. Title/Regent/Link are only set for exact
// and fuzzy verdicts.
type Match struct {
	Verdict Verdict
	Title   string
	Regent  string
	Link    string
}

// Resolve scans candidates in order and returns on the first row whose key
// matches normalized exactly (case-insensitive) or with similarity at or
// above SimilarityThreshold.
func Resolve(normalized string, candidates []Candidate) Match {
	needle := strings.TrimSpace(strings.ToLower(normalized))
	for _, c := range candidates {
		if c.Key == "" {
			continue
		}
		key := strings.TrimSpace(strings.ToLower(c.Key))
		if key == needle {
			return Match{Verdict: ExactMatch, Title: c.Title, Regent: c.Regent, Link: c.Link}
		}
		if Ratio(needle, key) >= SimilarityThreshold {
			return Match{Verdict: FuzzyMatch, Title: c.Title, Regent: c.Regent, Link: c.Link}
		}
	}
	return Match{Verdict: NoMatch}
}
