package resolve

import "strings"

// MatchKind identifies which matching pass produced a result.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchPartial
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is the diagnostic trail of one matcher invocation: the pass that won,
// the query as given, the winning display name, and (fuzzy only) the
// transformations that normalizing the winning name applied.
type Match struct {
	Kind            MatchKind
	Query           string
	Name            string
	Transformations []Transformation
}

// Found reports whether any pass produced a winner.
func (m Match) Found() bool {
	return m.Kind != MatchNone
}

// Best finds the best candidate for query using three passes in increasing
// cost order, short-circuiting on the first that yields a match:
//
//  1. exact: case-insensitive equality on raw display names; first
//     occurrence wins among equals.
//  2. partial: case-insensitive substring containment in either direction;
//     the shortest display name wins, equal lengths fall back to first
//     occurrence.
//  3. fuzzy: the query is normalized once and every candidate name is
//     normalized, then the exact-then-partial check repeats on the
//     normalized forms with the same tie-breaks. The returned Match carries
//     the transformations recorded while normalizing the winning candidate's
//     name, since that is what explains the match to the caller.
//
// Candidates with an empty display name are skipped. Normalization is the
// expensive stage, so deferring it keeps the common cases cheap even when a
// library listing runs to hundreds of candidates.
//
// Best is generic over a name accessor so playlists, tracks, albums, and
// artists share one implementation.
func Best[T any](query string, candidates []T, name func(T) string) (T, Match) {
	var zero T

	// Pass 1: exact, no normalization.
	for _, c := range candidates {
		n := name(c)
		if n == "" {
			continue
		}
		if strings.EqualFold(query, n) {
			return c, Match{Kind: MatchExact, Query: query, Name: n}
		}
	}

	// Pass 2: substring containment either direction.
	queryLower := strings.ToLower(query)
	if c, n, ok := bestContainment(queryLower, candidates, name, strings.ToLower); ok {
		return c, Match{Kind: MatchPartial, Query: query, Name: n}
	}

	// Pass 3: fuzzy over normalized forms. A query that normalizes away to
	// nothing (all symbols) can never match meaningfully.
	normQuery := Normalize(query).Normalized
	if normQuery == "" {
		return zero, Match{Kind: MatchNone, Query: query}
	}

	type normalized struct {
		candidate T
		display   string
		norm      NormalizedText
	}
	normed := make([]normalized, 0, len(candidates))
	for _, c := range candidates {
		n := name(c)
		if n == "" {
			continue
		}
		normed = append(normed, normalized{candidate: c, display: n, norm: Normalize(n)})
	}

	for _, nc := range normed {
		if normQuery == nc.norm.Normalized {
			return nc.candidate, Match{
				Kind:            MatchFuzzy,
				Query:           query,
				Name:            nc.display,
				Transformations: nc.norm.Transformations,
			}
		}
	}

	var winner *normalized
	for i := range normed {
		nc := &normed[i]
		if nc.norm.Normalized == "" {
			continue
		}
		if !strings.Contains(nc.norm.Normalized, normQuery) && !strings.Contains(normQuery, nc.norm.Normalized) {
			continue
		}
		if winner == nil || len(nc.display) < len(winner.display) {
			winner = nc
		}
	}
	if winner != nil {
		return winner.candidate, Match{
			Kind:            MatchFuzzy,
			Query:           query,
			Name:            winner.display,
			Transformations: winner.norm.Transformations,
		}
	}

	return zero, Match{Kind: MatchNone, Query: query}
}

// bestContainment scans for substring hits in either direction and applies
// the shortest-name, then first-occurrence tie-break.
func bestContainment[T any](queryLower string, candidates []T, name func(T) string, fold func(string) string) (T, string, bool) {
	var (
		winner     T
		winnerName string
		found      bool
	)
	for _, c := range candidates {
		n := name(c)
		if n == "" {
			continue
		}
		folded := fold(n)
		if !strings.Contains(folded, queryLower) && !strings.Contains(queryLower, folded) {
			continue
		}
		if !found || len(n) < len(winnerName) {
			winner, winnerName, found = c, n, true
		}
	}
	return winner, winnerName, found
}
