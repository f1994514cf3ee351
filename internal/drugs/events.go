package drugs

import (
	"context"
	"fmt"
	"strings"

	"rxmcp/internal/cache"
	"rxmcp/internal/search"
	"rxmcp/internal/upstream"
)

const (
	defaultEventLimit = 5
	topReactionCount  = 10
	flagYes           = "1"
	suspectDrug       = "1"
	eventsDisclaimer  = "FAERS reports are submitted voluntarily and do not establish that the drug caused the reported reaction."
)

var ageUnits = map[string]string{
	"800": "decades",
	"801": "years",
	"802": "months",
	"803": "weeks",
	"804": "days",
	"805": "hours",
}

var patientSexes = map[string]string{
	"0": "unknown",
	"1": "male",
	"2": "female",
}

func eventSuggestions(name string) []string {
	return []string{
		fmt.Sprintf("No adverse event reports matched %q", name),
		"Try the generic name, or the brand name as printed on the package",
		"Check the spelling and remove strength or dosage-form words",
	}
}

// SearchAdverseEvents summarizes FAERS reports for a drug.
// Individual reports are included only when Detailed is set.
func (s *Service) SearchAdverseEvents(ctx context.Context, args AdverseArgs) (*AdverseResult, error) {
	name, err := requireName("drug_name", args.DrugName)
	if err != nil {
		return nil, err
	}
	args.DrugName = name
	args.Limit = clampLimit(args.Limit, defaultEventLimit)

	return cached(ctx, s, "search_adverse_events", cache.CategoryAdverseEvent, args, func(ctx context.Context) (*AdverseResult, error) {
		res, err := s.resolve(ctx, "adverse_events", upstream.EndpointEvent, search.AdverseEventStrategies(name), args.Limit)
		if err != nil {
			return nil, err
		}

		out := &AdverseResult{
			Meta:       s.meta(res, SourceEvents, eventSuggestions(name)),
			DrugName:   name,
			Disclaimer: eventsDisclaimer,
		}
		if res.Found {
			summarizeEvents(out, upstream.Decode[upstream.EventRecord](res.Page), args.Detailed)
		}
		return out, nil
	})
}

// SearchSeriousAdverseEvents summarizes serious FAERS reports, optionally
// narrowed to one outcome such as death or hospitalization
func (s *Service) SearchSeriousAdverseEvents(ctx context.Context, args SeriousArgs) (*AdverseResult, error) {
	name, err := requireName("drug_name", args.DrugName)
	if err != nil {
		return nil, err
	}
	args.DrugName = name
	args.Limit = clampLimit(args.Limit, defaultEventLimit)

	args.SeriousType = strings.ToLower(strings.TrimSpace(args.SeriousType))
	switch args.SeriousType {
	case "":
		args.SeriousType = search.SeriousAny
	case search.SeriousAny, search.SeriousDeath, search.SeriousHospitalization,
		search.SeriousDisability, search.SeriousLifeThreatening:
	default:
		return nil, fmt.Errorf("%w: serious_type must be one of any, death, hospitalization, disability, life_threatening", ErrInvalidArgument)
	}

	return cached(ctx, s, "search_serious_adverse_events", cache.CategoryAdverseEvent, args, func(ctx context.Context) (*AdverseResult, error) {
		strategies := search.SeriousAdverseEventStrategies(name, args.SeriousType)
		res, err := s.resolve(ctx, "serious_adverse_events", upstream.EndpointEvent, strategies, args.Limit)
		if err != nil {
			return nil, err
		}

		suggestions := eventSuggestions(name)
		if args.SeriousType != search.SeriousAny {
			suggestions = append(suggestions, "Use serious_type 'any' to include every serious outcome")
		}

		out := &AdverseResult{
			Meta:        s.meta(res, SourceEvents, suggestions),
			DrugName:    name,
			SeriousType: args.SeriousType,
			Disclaimer:  eventsDisclaimer,
		}
		if res.Found {
			summarizeEvents(out, upstream.Decode[upstream.EventRecord](res.Page), true)
		}
		return out, nil
	})
}

// summarizeEvents fills reaction frequencies and seriousness counts
func summarizeEvents(out *AdverseResult, events []upstream.EventRecord, withReports bool) {
	out.ReportsSampled = len(events)
	reactions := make(map[string]int)

	for _, ev := range events {
		report := EventReport{
			SafetyReportID: ev.SafetyReportID,
			ReceiveDate:    ev.ReceiveDate,
			Serious:        ev.Serious == flagYes,
			Outcomes:       outcomes(ev),
		}
		if report.Serious {
			out.Seriousness.Serious++
		}
		for _, o := range report.Outcomes {
			switch o {
			case "death":
				out.Seriousness.Death++
			case "hospitalization":
				out.Seriousness.Hospitalization++
			case "disability":
				out.Seriousness.Disability++
			case "life_threatening":
				out.Seriousness.LifeThreatening++
			case "congenital_anomaly":
				out.Seriousness.Congenital++
			case "other":
				out.Seriousness.Other++
			}
		}

		if ev.PrimarySource != nil {
			report.ReporterCountry = ev.PrimarySource.ReporterCountry
		}
		if p := ev.Patient; p != nil {
			if p.OnsetAge != "" {
				report.PatientAge = strings.TrimSpace(p.OnsetAge + " " + ageUnits[p.OnsetAgeUnit])
			}
			report.PatientSex = patientSexes[p.Sex]
			seen := make(map[string]struct{}, len(p.Reactions))
			for _, r := range p.Reactions {
				term := strings.ToLower(strings.TrimSpace(r.Term))
				if term == "" {
					continue
				}
				if _, dup := seen[term]; dup {
					continue
				}
				seen[term] = struct{}{}
				reactions[term]++
				report.Reactions = append(report.Reactions, term)
			}
			for _, d := range p.Drugs {
				if d.Characterization == suspectDrug && d.MedicinalProduct != "" {
					report.SuspectDrugs = append(report.SuspectDrugs, d.MedicinalProduct)
				}
			}
		}

		if withReports {
			out.Reports = append(out.Reports, report)
		}
	}

	out.TopReactions = topCounts(reactions, topReactionCount)
}

func outcomes(ev upstream.EventRecord) []string {
	var out []string
	flags := []struct {
		value, name string
	}{
		{ev.SeriousnessDeath, "death"},
		{ev.SeriousnessLifeThreatening, "life_threatening"},
		{ev.SeriousnessHospitalization, "hospitalization"},
		{ev.SeriousnessDisabling, "disability"},
		{ev.SeriousnessCongenital, "congenital_anomaly"},
		{ev.SeriousnessOther, "other"},
	}
	for _, f := range flags {
		if f.value == flagYes {
			out = append(out, f.name)
		}
	}
	return out
}
