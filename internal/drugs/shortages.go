package drugs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rxmcp/internal/cache"
	"rxmcp/internal/search"
	"rxmcp/internal/upstream"
)

const (
	shortageFetchLimit = 100
	defaultLimit       = 10
	maxLimit           = 50
	defaultMonthsBack  = 12
	maxMonthsBack      = 60
	topReasonCount     = 5
)

// Risk levels
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Trend directions
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendNoActivity = "no_recent_activity"
)

func shortageSuggestions(name string) []string {
	return []string{
		fmt.Sprintf("No shortage records matched %q; this usually means the drug is not currently in shortage", name),
		"Check the spelling or try the generic name instead of a brand name",
		"Remove strength, salt or dosage-form words (for example 'hydrochloride' or '10 mg tablets')",
	}
}

func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

func requireName(field, value string) (string, error) {
	name := search.Clean(value)
	if name == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	return name, nil
}

// SearchShortages finds current and past shortages for a drug, ranked by relevance
func (s *Service) SearchShortages(ctx context.Context, args ShortageArgs) (*ShortageResult, error) {
	name, err := requireName("drug_name", args.DrugName)
	if err != nil {
		return nil, err
	}
	args.DrugName = name
	args.Limit = clampLimit(args.Limit, defaultLimit)

	return cached(ctx, s, "search_drug_shortages", cache.CategoryShortage, args, func(ctx context.Context) (*ShortageResult, error) {
		res, err := s.resolve(ctx, "shortages", upstream.EndpointShortages, search.ShortageStrategies(name), shortageFetchLimit)
		if err != nil {
			return nil, err
		}

		out := &ShortageResult{
			Meta:      s.meta(res, SourceShortages, shortageSuggestions(name)),
			DrugName:  name,
			Shortages: []ShortageItem{},
		}
		if !res.Found {
			return out, nil
		}

		records := upstream.Decode[upstream.ShortageRecord](res.Page)
		out.StatusBreakdown = make(map[string]int)
		for _, rec := range records {
			out.StatusBreakdown[valueOr(rec.Status, "Unknown")]++
		}
		for _, scored := range s.scorer.Rank(records, name, args.Limit) {
			out.Shortages = append(out.Shortages, newShortageItem(scored.Record, scored.Score))
		}
		out.Returned = len(out.Shortages)
		return out, nil
	})
}

func newShortageItem(rec upstream.ShortageRecord, score int) ShortageItem {
	return ShortageItem{
		GenericName:         rec.GenericName,
		ProprietaryName:     rec.ProprietaryName,
		CompanyName:         rec.CompanyName,
		Status:              rec.Status,
		ShortageReason:      rec.ShortageReason,
		Availability:        rec.Availability,
		DosageForm:          rec.DosageForm,
		Presentation:        rec.Presentation,
		TherapeuticCategory: rec.TherapeuticCategory,
		InitialPostingDate:  rec.InitialPostingDate,
		UpdateDate:          rec.UpdateDate,
		RelevanceScore:      score,
	}
}

// AnalyzeTrends summarizes the shortage history of a drug over the last MonthsBack months
func (s *Service) AnalyzeTrends(ctx context.Context, args TrendArgs) (*TrendResult, error) {
	name, err := requireName("drug_name", args.DrugName)
	if err != nil {
		return nil, err
	}
	args.DrugName = name
	switch {
	case args.MonthsBack <= 0:
		args.MonthsBack = defaultMonthsBack
	case args.MonthsBack > maxMonthsBack:
		args.MonthsBack = maxMonthsBack
	}

	return cached(ctx, s, "analyze_drug_market_trends", cache.CategoryShortage, args, func(ctx context.Context) (*TrendResult, error) {
		res, err := s.resolve(ctx, "trends", upstream.EndpointShortages, search.ShortageStrategies(name), s.opts.TrendSampleSize)
		if err != nil {
			return nil, err
		}

		out := &TrendResult{
			Meta:       s.meta(res, SourceShortages, shortageSuggestions(name)),
			DrugName:   name,
			MonthsBack: args.MonthsBack,
		}
		if res.Found {
			records := upstream.Decode[upstream.ShortageRecord](res.Page)
			out.Analysis = analyzeTrend(records, s.now(), args.MonthsBack)
		}
		return out, nil
	})
}

// analyzeTrend computes posting activity, status counts and a risk level
func analyzeTrend(records []upstream.ShortageRecord, now time.Time, monthsBack int) *TrendAnalysis {
	end := now
	start := now.AddDate(0, -monthsBack, 0)
	mid := start.Add(end.Sub(start) / 2)

	a := &TrendAnalysis{
		WindowStart:     start.Format("2006-01-02"),
		WindowEnd:       end.Format("2006-01-02"),
		RecordsAnalyzed: len(records),
		StatusCounts:    make(map[string]int),
	}

	reasons := make(map[string]int)
	var earlier, later int
	var mostRecent time.Time

	for _, rec := range records {
		a.StatusCounts[valueOr(rec.Status, "Unknown")]++
		switch {
		case isActiveStatus(rec.Status):
			a.ActiveShortages++
		case isResolvedStatus(rec.Status):
			a.ResolvedShortages++
		}
		if r := strings.TrimSpace(rec.ShortageReason); r != "" {
			reasons[r]++
		}

		posted, ok := parseDate(rec.InitialPostingDate)
		if !ok {
			posted, ok = parseDate(rec.UpdateDate)
		}
		if !ok {
			a.UndatedRecords++
			continue
		}
		if posted.After(mostRecent) {
			mostRecent = posted
		}
		if posted.Before(start) || posted.After(end) {
			continue
		}
		a.PostingsInWindow++
		if posted.Before(mid) {
			earlier++
		} else {
			later++
		}
	}

	if !mostRecent.IsZero() {
		a.MostRecentPosting = mostRecent.Format("2006-01-02")
	}
	for _, tc := range topCounts(reasons, topReasonCount) {
		a.TopReasons = append(a.TopReasons, ReasonCount{Reason: tc.Term, Count: tc.Count})
	}

	switch {
	case a.PostingsInWindow == 0:
		a.Trend = TrendNoActivity
	case later > earlier:
		a.Trend = TrendIncreasing
	case later < earlier:
		a.Trend = TrendDecreasing
	default:
		a.Trend = TrendStable
	}

	switch {
	case a.ActiveShortages >= 3 || (a.ActiveShortages > 0 && a.Trend == TrendIncreasing):
		a.RiskLevel = RiskHigh
	case a.ActiveShortages > 0 || a.PostingsInWindow >= 3:
		a.RiskLevel = RiskMedium
	default:
		a.RiskLevel = RiskLow
	}
	return a
}

// BatchAnalyze checks the shortage status of up to MaxBatchSize drugs concurrently.
// Per-drug failures are reported in the item and do not fail the batch.
func (s *Service) BatchAnalyze(ctx context.Context, args BatchArgs) (*BatchResult, error) {
	if len(args.DrugList) == 0 {
		return nil, fmt.Errorf("%w: drug_list must contain at least one drug", ErrInvalidArgument)
	}
	if len(args.DrugList) > MaxBatchSize {
		return nil, fmt.Errorf("%w: drug_list holds %d drugs, the maximum is %d", ErrInvalidArgument, len(args.DrugList), MaxBatchSize)
	}

	items := make([]BatchItem, len(args.DrugList))
	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, name := range args.DrugList {
		i, name := i, name
		g.Go(func() error {
			items[i] = s.analyzeOne(ctx, name, args.IncludeRiskAssessment)
			return nil
		})
	}
	_ = g.Wait()

	out := &BatchResult{
		Status:     StatusOK,
		Results:    items,
		DataSource: SourceShortages,
		Timestamp:  s.now().Format(time.RFC3339),
		Summary:    BatchSummary{TotalDrugs: len(items)},
	}
	if args.IncludeRiskAssessment {
		out.Summary.RiskLevels = make(map[string]int)
	}
	for _, item := range items {
		switch item.Status {
		case batchShortageFound:
			out.Summary.WithShortages++
		case batchNoShortage:
			out.Summary.WithoutShortages++
		default:
			out.Summary.Failed++
		}
		if item.Risk != nil {
			out.Summary.RiskLevels[item.Risk.Level]++
		}
	}

	s.logger.Info().
		Int("drugs", out.Summary.TotalDrugs).
		Int("with_shortages", out.Summary.WithShortages).
		Int("failed", out.Summary.Failed).
		Msg("batch analysis complete")
	return out, nil
}

const (
	batchShortageFound = "shortage_found"
	batchNoShortage    = "no_shortage"
	batchError         = "error"
)

func (s *Service) analyzeOne(ctx context.Context, name string, includeRisk bool) BatchItem {
	item := BatchItem{DrugName: name}

	res, err := s.SearchShortages(ctx, ShortageArgs{DrugName: name, Limit: defaultLimit})
	if err != nil {
		item.Status = batchError
		item.Error, item.ErrorCategory = describeError(err)
		s.logger.Warn().Err(err).Str("drug", name).Msg("batch item failed")
		return item
	}

	item.StrategyUsed = res.StrategyUsed
	if res.Returned == 0 {
		item.Status = batchNoShortage
	} else {
		item.Status = batchShortageFound
		item.ShortageCount = res.TotalFound
		top := res.Shortages[0]
		item.TopMatch = &top
		for status, n := range res.StatusBreakdown {
			if isActiveStatus(status) {
				item.ActiveShortages += n
			}
		}
	}

	if includeRisk {
		item.Risk = assessRisk(item)
	}
	return item
}

// assessRisk scores supply risk from the shortage lookup of one drug
func assessRisk(item BatchItem) *RiskAssessment {
	r := &RiskAssessment{}
	if item.ActiveShortages > 0 {
		r.Score += 30 * item.ActiveShortages
		r.Factors = append(r.Factors, fmt.Sprintf("%d active shortage record(s)", item.ActiveShortages))
	}
	if item.ShortageCount > 0 {
		r.Score += 10
		r.Factors = append(r.Factors, "listed in the FDA shortage database")
	}
	if item.TopMatch != nil && item.TopMatch.ShortageReason != "" {
		r.Score += 10
		r.Factors = append(r.Factors, "reason: "+item.TopMatch.ShortageReason)
	}
	if r.Score > 100 {
		r.Score = 100
	}

	switch {
	case r.Score >= 60:
		r.Level = RiskHigh
	case r.Score >= 30:
		r.Level = RiskMedium
	default:
		r.Level = RiskLow
	}
	return r
}

// describeError returns a client-safe message and category for a failed lookup
func describeError(err error) (string, string) {
	var classified *upstream.ClassifiedError
	if errors.As(err, &classified) {
		msg := "openFDA lookup failed"
		if len(classified.Classification.Suggestions) > 0 {
			msg = classified.Classification.Suggestions[0]
		}
		return msg, string(classified.Classification.Category)
	}
	if errors.Is(err, ErrInvalidArgument) {
		return err.Error(), "invalid_argument"
	}
	return "lookup failed", string(upstream.CategoryUnknown)
}
