package jsonrpc

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Version is the JSON-RPC version
const Version = "2.0"

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ID represents a JSON-RPC request/response ID.
// The raw bytes are kept so the ID is echoed back exactly as the client sent it.
type ID struct {
	raw json.RawMessage
}

// NewIDInt creates an ID from an integer
func NewIDInt(n int64) ID {
	data, _ := json.Marshal(n)
	return ID{raw: data}
}

// NewIDNull creates an explicit null ID
func NewIDNull() ID {
	return ID{raw: json.RawMessage("null")}
}

// IsNull returns true if the ID is absent or JSON null
func (id ID) IsNull() bool {
	return len(id.raw) == 0 || bytes.Equal(id.raw, []byte("null"))
}

// IsAbsent returns true if the message carried no id member at all
func (id ID) IsAbsent() bool {
	return len(id.raw) == 0
}

// String returns the raw ID text, used for logging
func (id ID) String() string {
	if id.IsNull() {
		return "null"
	}
	return string(id.raw)
}

// MarshalJSON implements json.Marshaler
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNull() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	id.raw = append(id.raw[:0], bytes.TrimSpace(data)...)
	return nil
}

// Valid reports whether the ID is a string, a number or null
func (id ID) Valid() bool {
	if id.IsNull() {
		return true
	}
	c := id.raw[0]
	return c == '"' || c == '-' || (c >= '0' && c <= '9')
}

// Error represents a JSON-RPC error
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// NewError creates a new JSON-RPC error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithData creates a new JSON-RPC error with data
func NewErrorWithData(code int, message string, data interface{}) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if data != nil {
		if rawData, err := json.Marshal(data); err == nil {
			e.Data = rawData
		}
	}
	return e
}

// Common errors
var (
	ErrParse          = NewError(CodeParseError, "Parse error")
	ErrInvalidRequest = NewError(CodeInvalidRequest, "Invalid Request")
	ErrInternal       = NewError(CodeInternalError, "Internal error")
)
