package search

import (
	"fmt"
	"strings"
)

// Label identifier types
const (
	IdentifierAny     = "any"
	IdentifierGeneric = "generic"
	IdentifierBrand   = "brand"
)

// Serious adverse event filters
const (
	SeriousAny             = "any"
	SeriousDeath           = "death"
	SeriousHospitalization = "hospitalization"
	SeriousDisability      = "disability"
	SeriousLifeThreatening = "life_threatening"
)

var seriousnessFields = map[string]string{
	SeriousDeath:           "seriousnessdeath",
	SeriousHospitalization: "seriousnesshospitalization",
	SeriousDisability:      "seriousnessdisabling",
	SeriousLifeThreatening: "seriousnesslifethreatening",
}

func quoted(field, term string) string {
	return fmt.Sprintf("%s:%q", field, term)
}

// ShortageStrategies builds the fallback list for /drug/shortages.json
func ShortageStrategies(term string) []Strategy {
	t := Clean(term)
	strategies := []Strategy{
		{Name: "generic_name_exact", Query: quoted("generic_name", t)},
		{Name: "proprietary_name_exact", Query: quoted("proprietary_name", t)},
		{Name: "openfda_generic_name", Query: quoted("openfda.generic_name", t)},
		{Name: "openfda_brand_name", Query: quoted("openfda.brand_name", t)},
	}

	v := Normalize(t)
	if v == "" {
		return strategies
	}
	if v != strings.ToLower(t) {
		strategies = append(strategies, Strategy{Name: "normalized_generic_name", Query: quoted("generic_name", v)})
	}
	stem := strings.Fields(v)[0]
	strategies = append(strategies, Strategy{Name: "generic_name_wildcard", Query: "generic_name:" + stem + "*"})
	return strategies
}

// LabelStrategies builds the fallback list for /drug/label.json
func LabelStrategies(identifier, identifierType string) []Strategy {
	t := Clean(identifier)
	generic := Strategy{Name: "openfda_generic_name", Query: quoted("openfda.generic_name", t)}
	brand := Strategy{Name: "openfda_brand_name", Query: quoted("openfda.brand_name", t)}
	substance := Strategy{Name: "openfda_substance_name", Query: quoted("openfda.substance_name", t)}
	freeText := Strategy{Name: "free_text", Query: fmt.Sprintf("%q", t)}

	switch identifierType {
	case IdentifierGeneric:
		return []Strategy{generic, substance, freeText}
	case IdentifierBrand:
		return []Strategy{brand, freeText}
	default:
		return []Strategy{generic, brand, substance, freeText}
	}
}

// RecallStrategies builds the fallback list for /drug/enforcement.json.
// A non-empty classification is appended to every query as a filter.
func RecallStrategies(term, classification string) []Strategy {
	t := Clean(term)
	strategies := []Strategy{
		{Name: "openfda_generic_name", Query: quoted("openfda.generic_name", t)},
		{Name: "openfda_brand_name", Query: quoted("openfda.brand_name", t)},
		{Name: "product_description_exact", Query: quoted("product_description", t)},
		{Name: "product_description_terms", Query: allTerms("product_description", t)},
	}
	if classification != "" {
		filter := " AND " + quoted("classification", classification)
		for i := range strategies {
			strategies[i].Query += filter
		}
	}
	return strategies
}

// AdverseEventStrategies builds the fallback list for /drug/event.json
func AdverseEventStrategies(term string) []Strategy {
	t := Clean(term)
	return []Strategy{
		{Name: "openfda_generic_name", Query: quoted("patient.drug.openfda.generic_name", t)},
		{Name: "openfda_brand_name", Query: quoted("patient.drug.openfda.brand_name", t)},
		{Name: "medicinal_product", Query: quoted("patient.drug.medicinalproduct", t)},
	}
}

// SeriousAdverseEventStrategies restricts AdverseEventStrategies to serious reports,
// optionally narrowed to one seriousness outcome
func SeriousAdverseEventStrategies(term, seriousType string) []Strategy {
	filter := " AND serious:1"
	if field, ok := seriousnessFields[seriousType]; ok {
		filter += " AND " + field + ":1"
	}

	strategies := AdverseEventStrategies(term)
	for i := range strategies {
		strategies[i].Query += filter
	}
	return strategies
}

// allTerms matches every word of term in field, unquoted
func allTerms(field, term string) string {
	words := strings.Fields(term)
	clauses := make([]string, len(words))
	for i, w := range words {
		clauses[i] = field + ":" + w
	}
	return strings.Join(clauses, " AND ")
}

// Names returns the strategy names in order
func Names(strategies []Strategy) []string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	return names
}
