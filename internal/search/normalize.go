package search

import (
	"strings"
	"unicode"
)

// trailing tokens dropped when deriving the normalized variant of a drug name
var strippable = map[string]struct{}{
	"hydrochloride": {}, "hcl": {}, "hydrobromide": {}, "sodium": {}, "potassium": {},
	"calcium": {}, "sulfate": {}, "sulphate": {}, "phosphate": {}, "acetate": {},
	"citrate": {}, "maleate": {}, "mesylate": {}, "tartrate": {}, "succinate": {},
	"besylate": {}, "bromide": {}, "chloride": {}, "fumarate": {}, "monohydrate": {},
	"dihydrate": {}, "tablet": {}, "tablets": {}, "capsule": {}, "capsules": {},
	"injection": {}, "injectable": {}, "solution": {}, "suspension": {}, "oral": {},
	"er": {}, "xr": {}, "sr": {}, "extended-release": {}, "usp": {},
}

// Clean trims the term, collapses inner whitespace and removes characters that
// would break an openFDA quoted phrase
func Clean(term string) string {
	term = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '*':
			return -1
		}
		return r
	}, term)
	return strings.Join(strings.Fields(term), " ")
}

// Normalize lowercases a drug name and strips trailing salt, dosage-form and
// strength tokens. The first token is always kept.
func Normalize(term string) string {
	fields := strings.Fields(strings.ToLower(Clean(term)))
	if len(fields) == 0 {
		return ""
	}

	kept := []string{fields[0]}
	for _, f := range fields[1:] {
		if hasDigit(f) {
			break
		}
		kept = append(kept, f)
	}
	for len(kept) > 1 {
		if _, ok := strippable[kept[len(kept)-1]]; !ok {
			break
		}
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, " ")
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
