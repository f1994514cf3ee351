package jsonrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatch_Single(t *testing.T) {
	msgs, isBatch, err := SplitBatch([]byte(`  {"jsonrpc":"2.0","id":7,"method":"ping"}`))
	require.NoError(t, err)
	assert.False(t, isBatch)
	require.Len(t, msgs, 1)

	req, err := ParseRequest(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Method)
	assert.Equal(t, "7", req.ID.String())
	assert.NoError(t, req.Validate())
}

func TestSplitBatch_Batch(t *testing.T) {
	msgs, isBatch, err := SplitBatch([]byte(`[{"jsonrpc":"2.0","id":"a","method":"ping"},{"jsonrpc":"2.0","method":"notifications/initialized"}, 3]`))
	require.NoError(t, err)
	assert.True(t, isBatch)
	require.Len(t, msgs, 3)

	first, err := ParseRequest(msgs[0])
	require.NoError(t, err)
	assert.False(t, first.IsNotification())

	second, err := ParseRequest(msgs[1])
	require.NoError(t, err)
	assert.True(t, second.IsNotification())

	_, err = ParseRequest(msgs[2])
	assert.Error(t, err)
}

func TestSplitBatch_Errors(t *testing.T) {
	_, _, err := SplitBatch([]byte("   "))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = SplitBatch([]byte("[]"))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = SplitBatch([]byte(`[{"jsonrpc":`))
	assert.ErrorIs(t, err, ErrParse)
}

func TestRequest_NullIDIsNotANotification(t *testing.T) {
	absent, err := ParseRequest([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	assert.True(t, absent.IsNotification())
	assert.True(t, absent.ID.IsAbsent())

	null, err := ParseRequest([]byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	require.NoError(t, err)
	assert.False(t, null.IsNotification())
	assert.True(t, null.ID.IsNull())
	assert.False(t, null.ID.IsAbsent())
	assert.NoError(t, null.Validate())

	spaced, err := ParseRequest([]byte(`{"jsonrpc":"2.0", "id" : null ,"method":"ping"}`))
	require.NoError(t, err)
	assert.False(t, spaced.IsNotification())
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("tools/call", map[string]any{"name": "x"}, NewIDInt(1))
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	data, err := req.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"x"}}`, string(data))
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, false},
		{"valid object params", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"x"}}`, false},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, true},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, true},
		{"object id", `{"jsonrpc":"2.0","id":{"a":1},"method":"ping"}`, true},
		{"string params", `{"jsonrpc":"2.0","id":1,"method":"ping","params":"x"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.body))
			require.NoError(t, err)
			if tt.wantErr {
				assert.Error(t, req.Validate())
			} else {
				assert.NoError(t, req.Validate())
			}
		})
	}
}

func TestResponse_EchoesIDVerbatim(t *testing.T) {
	ids := []string{`"abc-123"`, `42`, `12345678901234567890`, `null`}
	for _, raw := range ids {
		req, err := ParseRequest([]byte(`{"jsonrpc":"2.0","id":` + raw + `,"method":"ping"}`))
		require.NoError(t, err)

		resp, err := NewResponse(req.ID, map[string]string{})
		require.NoError(t, err)
		data, err := resp.Bytes()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"id":`+raw)
	}
}

func TestNewErrorWithData(t *testing.T) {
	e := NewErrorWithData(CodeInvalidParams, "bad", map[string]string{"field": "limit"})
	resp := NewErrorResponse(NewIDInt(3), e)
	data, err := resp.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"error":{"code":-32602,"message":"bad","data":{"field":"limit"}}}`, string(data))
}
