// Package tools holds the static tool registry: definitions, argument
// validation and the binding of each tool to its drug operation.
package tools

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"rxmcp/internal/drugs"
)

// ErrUnknownTool is returned when a tool name is not registered
var ErrUnknownTool = errors.New("unknown tool")

// Operations are the drug operations the tools are bound to
type Operations interface {
	SearchShortages(ctx context.Context, args drugs.ShortageArgs) (*drugs.ShortageResult, error)
	GetMedicationProfile(ctx context.Context, args drugs.ProfileArgs) (*drugs.ProfileResult, error)
	SearchRecalls(ctx context.Context, args drugs.RecallArgs) (*drugs.RecallResult, error)
	AnalyzeTrends(ctx context.Context, args drugs.TrendArgs) (*drugs.TrendResult, error)
	BatchAnalyze(ctx context.Context, args drugs.BatchArgs) (*drugs.BatchResult, error)
	SearchAdverseEvents(ctx context.Context, args drugs.AdverseArgs) (*drugs.AdverseResult, error)
	SearchSeriousAdverseEvents(ctx context.Context, args drugs.SeriousArgs) (*drugs.AdverseResult, error)
}

type handler func(ctx context.Context, ops Operations, args map[string]any) (any, error)

// run decodes validated arguments into T and calls fn
func run[T any, R any](ctx context.Context, args map[string]any, fn func(context.Context, T) (R, error)) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}
	var typed T
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("failed to bind arguments: %w", err)
	}
	result, err := fn(ctx, typed)
	if err != nil {
		return nil, err
	}
	return result, nil
}

var handlers = map[string]handler{
	SearchDrugShortages: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.SearchShortages)
	},
	GetMedicationProfile: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.GetMedicationProfile)
	},
	SearchDrugRecalls: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.SearchRecalls)
	},
	AnalyzeDrugMarketTrends: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.AnalyzeTrends)
	},
	BatchDrugAnalysis: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.BatchAnalyze)
	},
	SearchAdverseEvents: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.SearchAdverseEvents)
	},
	SearchSeriousAdverseEvents: func(ctx context.Context, ops Operations, args map[string]any) (any, error) {
		return run(ctx, args, ops.SearchSeriousAdverseEvents)
	},
}

// Registry resolves tool calls to operations
type Registry struct {
	ops     Operations
	byName  map[string]Definition
	ordered []Definition
}

// NewRegistry creates a registry bound to ops
func NewRegistry(ops Operations) *Registry {
	r := &Registry{
		ops:     ops,
		byName:  make(map[string]Definition, len(definitions)),
		ordered: Definitions(),
	}
	for _, def := range r.ordered {
		r.byName[def.Name] = def
	}
	return r
}

// Definitions returns the tool definitions in registration order
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// List returns the registered definitions
func (r *Registry) List() []Definition {
	return r.ordered
}

// Lookup returns the definition of a tool
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Call validates the arguments of a tool and runs its operation.
// Validation failures are returned as *ValidationError before any upstream work.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	def, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	h, ok := handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	validated, err := Validate(def, args)
	if err != nil {
		return nil, err
	}
	return h(ctx, r.ops, validated)
}
