package jsonrpc

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// Request represents a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      ID              `json:"id"`
}

// Validate checks if the request is valid
func (r *Request) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("invalid jsonrpc version: %q", r.JSONRPC)
	}
	if r.Method == "" {
		return errors.New("method is required")
	}
	if !r.ID.Valid() {
		return errors.New("id must be a string, number or null")
	}
	if len(r.Params) > 0 {
		switch trimWhitespace(r.Params)[0] {
		case '{', '[', 'n':
		default:
			return errors.New("params must be an object or array")
		}
	}
	return nil
}

// IsNotification returns true if this is a notification.
// Only a missing id member counts; "id": null is a request and gets a reply.
func (r *Request) IsNotification() bool {
	return r.ID.IsAbsent()
}

// BindParams decodes the params object into v.
// Missing or null params leave v untouched.
func (r *Request) BindParams(v interface{}) error {
	if len(r.Params) == 0 || string(r.Params) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// ParseRequest parses a single JSON-RPC request from bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.ID.IsAbsent() && hasMember(data, "id") {
		req.ID = NewIDNull()
	}
	return &req, nil
}

// hasMember reports whether the object in data has a top-level member named name
func hasMember(data []byte, name string) bool {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return false
	}
	_, ok := members[name]
	return ok
}

// SplitBatch separates a payload into its messages without decoding them.
// isBatch reports whether the payload was a JSON array. A payload that is
// blank or an empty array yields ErrInvalidRequest; a malformed array yields ErrParse.
func SplitBatch(data []byte) (messages []json.RawMessage, isBatch bool, err error) {
	data = trimWhitespace(data)
	if len(data) == 0 {
		return nil, false, ErrInvalidRequest
	}

	if data[0] != '[' {
		return []json.RawMessage{data}, false, nil
	}

	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(messages) == 0 {
		return nil, true, ErrInvalidRequest
	}
	return messages, true, nil
}

// NewRequest creates a new JSON-RPC request
func NewRequest(method string, params interface{}, id ID) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
		ID:      id,
	}

	if params != nil {
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = paramsBytes
	}

	return req, nil
}

// Bytes returns the request as JSON bytes
func (r *Request) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

// trimWhitespace removes leading whitespace from byte slice
func trimWhitespace(data []byte) []byte {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return data[i:]
		}
	}
	return data[len(data):]
}
