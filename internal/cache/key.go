package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// GenerateKey creates a cache key from an operation name and its arguments.
// Arguments that differ only in key order, case or surrounding whitespace map to the same key.
func GenerateKey(operation string, args interface{}) string {
	normalized := normalizeArgs(args)
	hash := sha256.Sum256(normalized)
	return operation + ":" + hex.EncodeToString(hash[:8])
}

// normalizeArgs renders args as canonical JSON
func normalizeArgs(args interface{}) []byte {
	if args == nil {
		return []byte("null")
	}

	// Round-trip through JSON so structs and maps normalize the same way
	raw, err := json.Marshal(args)
	if err != nil {
		return []byte("null")
	}
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return raw
	}

	var b strings.Builder
	writeNormalized(&b, data)
	return []byte(b.String())
}

// writeNormalized writes v with sorted object keys and normalized strings
func writeNormalized(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSON(b, k)
			b.WriteByte(':')
			writeNormalized(b, val[k])
		}
		b.WriteByte('}')
	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNormalized(b, item)
		}
		b.WriteByte(']')
	case string:
		writeJSON(b, NormalizeTerm(val))
	default:
		writeJSON(b, val)
	}
}

func writeJSON(b *strings.Builder, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		b.WriteString("null")
		return
	}
	b.Write(data)
}

// NormalizeTerm lowercases s, trims it and collapses inner whitespace
func NormalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
