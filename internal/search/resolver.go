// Package search resolves openFDA queries through ordered fallback strategies.
package search

import (
	"context"
	"errors"

	"rxmcp/internal/upstream"
)

// Strategy is one query formulation
type Strategy struct {
	Name  string
	Query string
}

// FetchFunc runs a strategy against openFDA. A nil or empty page means no match.
type FetchFunc func(ctx context.Context, s Strategy) (*upstream.Page, error)

// Result is the outcome of a resolution
type Result struct {
	Found     bool
	Strategy  Strategy
	Index     int
	Page      *upstream.Page
	Attempted []string
}

// StrategyName returns the winning strategy name or an empty string
func (r *Result) StrategyName() string {
	if r == nil || !r.Found {
		return ""
	}
	return r.Strategy.Name
}

// Resolve tries strategies strictly in order and returns the first non-empty page.
// When every strategy comes back empty the result has Found=false and a nil error.
// A bad_request failure moves on to the next strategy; any other failure aborts.
// If every strategy was rejected as a bad request, the last of those errors is returned.
func Resolve(ctx context.Context, strategies []Strategy, fetch FetchFunc) (*Result, error) {
	res := &Result{Index: -1, Attempted: make([]string, 0, len(strategies))}

	var badRequest error
	badRequests := 0

	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res.Attempted = append(res.Attempted, s.Name)

		page, err := fetch(ctx, s)
		if err != nil {
			if isBadRequest(err) {
				badRequest = err
				badRequests++
				continue
			}
			return nil, err
		}

		if !page.Empty() {
			res.Found = true
			res.Strategy = s
			res.Index = i
			res.Page = page
			return res, nil
		}
	}

	if len(strategies) > 0 && badRequests == len(strategies) {
		return nil, badRequest
	}
	return res, nil
}

func isBadRequest(err error) bool {
	var classified *upstream.ClassifiedError
	if errors.As(err, &classified) {
		return classified.Classification.Category == upstream.CategoryBadRequest
	}
	return false
}
