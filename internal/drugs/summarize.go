package drugs

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const truncationMarker = "... [truncated]"

// truncate shortens s to at most limit runes, marking the cut
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := limit - utf8.RuneCountInString(truncationMarker)
	if cut < 0 {
		cut = 0
	}
	return strings.TrimSpace(string(runes[:cut])) + truncationMarker
}

// section joins label paragraphs and truncates the result
func section(paragraphs []string, limit int) string {
	if len(paragraphs) == 0 {
		return ""
	}
	return truncate(strings.Join(paragraphs, "\n\n"), limit)
}

var dateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"20060102",
	"January 2, 2006",
	time.RFC3339,
}

// parseDate parses the date formats seen in openFDA records
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// topCounts returns the n most frequent keys, ties broken alphabetically
func topCounts(counts map[string]int, n int) []TermCount {
	out := make([]TermCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, TermCount{Term: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func valueOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

func isActiveStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "current")
}

func isResolvedStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "resolved")
}

func firstNonEmpty(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
