// Package scoring ranks shortage records by how well they match a query.
package scoring

import (
	"sort"
	"strings"

	"rxmcp/internal/search"
	"rxmcp/internal/upstream"
)

// MaxScore is the upper clamp for a relevance score
const MaxScore = 100

// Weights are the additive score components
type Weights struct {
	Exact        int
	Substring    int
	Reverse      int
	Active       int
	Reason       int
	Availability int
}

// DefaultWeights returns the standard weights
func DefaultWeights() Weights {
	return Weights{
		Exact:        100,
		Substring:    60,
		Reverse:      40,
		Active:       20,
		Reason:       10,
		Availability: 5,
	}
}

// Scored is a record with its relevance score
type Scored struct {
	Record upstream.ShortageRecord
	Score  int
}

// Scorer scores shortage records
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score returns the relevance of rec for query, clamped to [0, MaxScore]
func (s *Scorer) Score(rec upstream.ShortageRecord, query string) int {
	terms := queryTerms(query)
	score := 0
	for _, alias := range aliases(rec) {
		for _, q := range terms {
			if m := s.match(alias, q); m > score {
				score = m
			}
		}
	}

	if strings.EqualFold(strings.TrimSpace(rec.Status), "current") {
		score += s.weights.Active
	}
	if strings.TrimSpace(rec.ShortageReason) != "" {
		score += s.weights.Reason
	}
	if strings.TrimSpace(rec.Availability) != "" {
		score += s.weights.Availability
	}

	switch {
	case score > MaxScore:
		return MaxScore
	case score < 0:
		return 0
	}
	return score
}

// Rank scores records, sorts them by descending score keeping upstream order
// for ties, and truncates to limit. A limit <= 0 keeps everything.
func (s *Scorer) Rank(records []upstream.ShortageRecord, query string, limit int) []Scored {
	scored := make([]Scored, len(records))
	for i, rec := range records {
		scored[i] = Scored{Record: rec, Score: s.Score(rec, query)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (s *Scorer) match(alias, q string) int {
	switch {
	case alias == q:
		return s.weights.Exact
	case strings.Contains(alias, q):
		return s.weights.Substring
	case strings.Contains(q, alias):
		return s.weights.Reverse
	}
	return 0
}

func queryTerms(query string) []string {
	q := strings.ToLower(search.Clean(query))
	if q == "" {
		return nil
	}
	terms := []string{q}
	if n := search.Normalize(q); n != "" && n != q {
		terms = append(terms, n)
	}
	return terms
}

// aliases returns the lowercased names of rec and their normalized variants
func aliases(rec upstream.ShortageRecord) []string {
	names := []string{rec.GenericName, rec.ProprietaryName}
	if rec.OpenFDA != nil {
		names = append(names, rec.OpenFDA.GenericName...)
		names = append(names, rec.OpenFDA.BrandName...)
	}

	seen := make(map[string]struct{}, len(names)*2)
	out := make([]string, 0, len(names)*2)
	add := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	for _, n := range names {
		lower := strings.ToLower(search.Clean(n))
		add(lower)
		add(search.Normalize(lower))
	}
	return out
}
