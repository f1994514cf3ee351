package drugs

import (
	"context"
	"fmt"
	"strings"

	"rxmcp/internal/cache"
	"rxmcp/internal/search"
	"rxmcp/internal/upstream"
)

// Recall classifications
var recallClasses = map[string]string{
	"class i":   "Class I",
	"class ii":  "Class II",
	"class iii": "Class III",
}

// SearchRecalls finds FDA enforcement reports for a drug.
// Recalls are never served from cache.
func (s *Service) SearchRecalls(ctx context.Context, args RecallArgs) (*RecallResult, error) {
	name, err := requireName("drug_name", args.DrugName)
	if err != nil {
		return nil, err
	}
	args.DrugName = name
	args.Limit = clampLimit(args.Limit, defaultLimit)

	if c := strings.TrimSpace(args.Classification); c != "" {
		canonical, ok := recallClasses[strings.ToLower(strings.Join(strings.Fields(c), " "))]
		if !ok {
			return nil, fmt.Errorf("%w: classification must be one of Class I, Class II, Class III", ErrInvalidArgument)
		}
		args.Classification = canonical
	}

	return cached(ctx, s, "search_drug_recalls", cache.CategoryRecall, args, func(ctx context.Context) (*RecallResult, error) {
		strategies := search.RecallStrategies(name, args.Classification)
		res, err := s.resolve(ctx, "recalls", upstream.EndpointEnforcement, strategies, args.Limit)
		if err != nil {
			return nil, err
		}

		suggestions := []string{
			fmt.Sprintf("No recall records matched %q; no recall may have been issued", name),
			"Try the generic name, or a shorter product name",
		}
		if args.Classification != "" {
			suggestions = append(suggestions, "Remove the classification filter to see recalls of every class")
		}

		out := &RecallResult{
			Meta:                 s.meta(res, SourceRecalls, suggestions),
			DrugName:             name,
			ClassificationFilter: args.Classification,
			Recalls:              []RecallItem{},
		}
		if !res.Found {
			return out, nil
		}

		records := upstream.Decode[upstream.RecallRecord](res.Page)
		out.ClassificationBreakdown = make(map[string]int)
		for _, rec := range records {
			out.ClassificationBreakdown[valueOr(rec.Classification, "Unclassified")]++
			if strings.EqualFold(rec.Status, "ongoing") {
				out.OngoingRecalls++
			}
			out.Recalls = append(out.Recalls, RecallItem{
				RecallNumber:         rec.RecallNumber,
				Classification:       rec.Classification,
				Status:               rec.Status,
				ProductDescription:   truncate(rec.ProductDescription, s.opts.MaxSectionLength),
				ReasonForRecall:      rec.ReasonForRecall,
				RecallingFirm:        rec.RecallingFirm,
				RecallInitiationDate: rec.RecallInitiationDate,
				ReportDate:           rec.ReportDate,
				DistributionPattern:  rec.DistributionPattern,
				VoluntaryMandated:    rec.VoluntaryMandated,
			})
		}
		out.Returned = len(out.Recalls)
		return out, nil
	})
}
