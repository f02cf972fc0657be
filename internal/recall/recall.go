// Package recall ranks productions against a free-text title query.
package recall

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tier is how closely a title matches a query. Higher is better.
type Tier int

const (
	TierNone Tier = iota
	TierSubstring
	TierPrefix
	TierExact
)

// String returns the tier name used in API responses.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPrefix:
		return "prefix"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// Candidate is a searchable production.
type Candidate struct {
	ID      string
	Title   string
	Opening time.Time
}

// Match is a candidate that matched a query.
type Match struct {
	Candidate
	Tier Tier
}

// Fold returns s composed, case folded and with whitespace collapsed, so
// that "CAFÉ" and "café" compare equal.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// MatchTier classifies how title matches query. Both are folded first.
func MatchTier(title, query string) Tier {
	t, q := Fold(title), Fold(query)
	switch {
	case q == "":
		return TierNone
	case t == q:
		return TierExact
	case strings.HasPrefix(t, q):
		return TierPrefix
	case strings.Contains(t, q):
		return TierSubstring
	default:
		return TierNone
	}
}

// Recaller ranks title matches.
type Recaller struct {
	logger *slog.Logger
}

// NewRecaller creates a new recaller.
func NewRecaller(logger *slog.Logger) *Recaller {
	return &Recaller{logger: logger}
}

// Rank returns the candidates whose title contains query, best tier first,
// then earliest opening. Equal entries keep their input order.
func (r *Recaller) Rank(candidates []Candidate, query string) []Match {
	if Fold(query) == "" {
		return nil
	}

	var matches []Match
	for _, c := range candidates {
		if tier := MatchTier(c.Title, query); tier != TierNone {
			matches = append(matches, Match{Candidate: c, Tier: tier})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Tier != matches[j].Tier {
			return matches[i].Tier > matches[j].Tier
		}
		return matches[i].Opening.Before(matches[j].Opening)
	})

	r.logger.Debug("ranked title matches", "query", query, "candidates", len(candidates), "matches", len(matches))
	return matches
}
