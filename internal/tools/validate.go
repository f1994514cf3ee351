package tools

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidationError describes an argument that failed validation.
// It carries enough guidance for the client to correct the call.
type ValidationError struct {
	Tool     string           `json:"tool"`
	Field    string           `json:"field,omitempty"`
	Message  string           `json:"message"`
	Guidance string           `json:"guidance,omitempty"`
	Examples []map[string]any `json:"examples,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid argument %q for %s: %s", e.Field, e.Tool, e.Message)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Message)
}

// Validate checks args against the definition schema and returns a copy with
// defaults applied, strings trimmed and enum values in their canonical form.
// Arguments the schema does not declare are dropped.
func Validate(def Definition, args map[string]any) (map[string]any, error) {
	fail := func(field, format string, a ...any) error {
		return &ValidationError{
			Tool:     def.Name,
			Field:    field,
			Message:  fmt.Sprintf(format, a...),
			Guidance: def.Guidance,
			Examples: def.Examples,
		}
	}

	for _, name := range def.InputSchema.Required {
		v, ok := args[name]
		if !ok || v == nil {
			return nil, fail(name, "is required")
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return nil, fail(name, "must not be empty")
		}
	}

	out := make(map[string]any, len(def.InputSchema.Properties))
	for _, name := range sortedKeys(def.InputSchema.Properties) {
		prop := def.InputSchema.Properties[name]
		v, ok := args[name]
		if !ok || v == nil {
			if prop.Default != nil {
				out[name] = prop.Default
			}
			continue
		}

		value, err := checkValue(prop, v)
		if err != nil {
			return nil, fail(name, "%s", err.Error())
		}
		out[name] = value
	}
	return out, nil
}

func checkValue(prop Property, v any) (any, error) {
	switch prop.Type {
	case "string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		s = strings.Join(strings.Fields(s), " ")
		if len(prop.Enum) > 0 {
			canonical, ok := matchEnum(prop.Enum, s)
			if !ok {
				return nil, fmt.Errorf("must be one of %s", strings.Join(prop.Enum, ", "))
			}
			return canonical, nil
		}
		return s, nil

	case "integer":
		n, ok := toInt(v)
		if !ok {
			return nil, fmt.Errorf("must be an integer")
		}
		if prop.Minimum != nil && n < *prop.Minimum {
			return nil, fmt.Errorf("must be at least %d", *prop.Minimum)
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			return nil, fmt.Errorf("must be at most %d", *prop.Maximum)
		}
		return n, nil

	case "boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("must be true or false")
		}
		return b, nil

	case "array":
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("must be an array")
		}
		if prop.MinItems != nil && len(items) < *prop.MinItems {
			return nil, fmt.Errorf("must contain at least %d item(s)", *prop.MinItems)
		}
		if prop.MaxItems != nil && len(items) > *prop.MaxItems {
			return nil, fmt.Errorf("must contain at most %d items, got %d", *prop.MaxItems, len(items))
		}
		if prop.Items == nil {
			return items, nil
		}
		checked := make([]any, len(items))
		for i, item := range items {
			c, err := checkValue(*prop.Items, item)
			if err != nil {
				return nil, fmt.Errorf("item %d %s", i, err.Error())
			}
			if s, isString := c.(string); isString && s == "" {
				return nil, fmt.Errorf("item %d must not be empty", i)
			}
			checked[i] = c
		}
		return checked, nil
	}
	return v, nil
}

// toInt accepts JSON numbers with an integral value
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func matchEnum(enum []string, s string) (string, bool) {
	for _, e := range enum {
		if strings.EqualFold(e, s) {
			return e, true
		}
	}
	return "", false
}

func sortedKeys(m map[string]Property) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
