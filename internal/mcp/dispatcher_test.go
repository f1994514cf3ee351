package mcp

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxmcp/internal/drugs"
	"rxmcp/internal/jsonrpc"
	"rxmcp/internal/tools"
	"rxmcp/internal/upstream"
)

type fakeOps struct {
	shortageErr error
	calls       int
}

func (f *fakeOps) SearchShortages(_ context.Context, a drugs.ShortageArgs) (*drugs.ShortageResult, error) {
	f.calls++
	if f.shortageErr != nil {
		return nil, f.shortageErr
	}
	return &drugs.ShortageResult{
		Meta:      drugs.Meta{Status: drugs.StatusOK, StrategyUsed: "generic_name_exact", TotalFound: 1},
		DrugName:  a.DrugName,
		Returned:  1,
		Shortages: []drugs.ShortageItem{{GenericName: a.DrugName, RelevanceScore: 100}},
	}, nil
}

func (f *fakeOps) GetMedicationProfile(context.Context, drugs.ProfileArgs) (*drugs.ProfileResult, error) {
	f.calls++
	return &drugs.ProfileResult{}, nil
}

func (f *fakeOps) SearchRecalls(context.Context, drugs.RecallArgs) (*drugs.RecallResult, error) {
	f.calls++
	return &drugs.RecallResult{}, nil
}

func (f *fakeOps) AnalyzeTrends(context.Context, drugs.TrendArgs) (*drugs.TrendResult, error) {
	f.calls++
	return &drugs.TrendResult{}, nil
}

func (f *fakeOps) BatchAnalyze(context.Context, drugs.BatchArgs) (*drugs.BatchResult, error) {
	f.calls++
	return &drugs.BatchResult{}, nil
}

func (f *fakeOps) SearchAdverseEvents(context.Context, drugs.AdverseArgs) (*drugs.AdverseResult, error) {
	f.calls++
	return &drugs.AdverseResult{}, nil
}

func (f *fakeOps) SearchSeriousAdverseEvents(context.Context, drugs.SeriousArgs) (*drugs.AdverseResult, error) {
	f.calls++
	return &drugs.AdverseResult{}, nil
}

func newDispatcher(ops tools.Operations) *Dispatcher {
	return NewDispatcher(tools.NewRegistry(ops), ServerInfo{Name: "rxmcp", Version: "test"}, nil, zerolog.Nop())
}

type rpcReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

func call(t *testing.T, d *Dispatcher, payload string) rpcReply {
	t.Helper()
	out := d.HandleMessage(context.Background(), []byte(payload))
	require.NotNil(t, out)
	var reply rpcReply
	require.NoError(t, json.Unmarshal(out, &reply), string(out))
	return reply
}

func TestInitialize(t *testing.T) {
	d := newDispatcher(&fakeOps{})
	reply := call(t, d, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test"}}}`)

	require.Nil(t, reply.Error)
	assert.Equal(t, "1", string(reply.ID))

	var res initializeResult
	require.NoError(t, json.Unmarshal(reply.Result, &res))
	assert.Equal(t, "2024-11-05", res.ProtocolVersion)
	assert.False(t, res.Capabilities.Tools.ListChanged)
	assert.Equal(t, ServerInfo{Name: "rxmcp", Version: "test"}, res.ServerInfo)
	assert.NotEmpty(t, res.Instructions)

	reply = call(t, d, `{"jsonrpc":"2.0","id":2,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)
	require.NoError(t, json.Unmarshal(reply.Result, &res))
	assert.Equal(t, supportedProtocolVersions[0], res.ProtocolVersion)
}

func TestPing(t *testing.T) {
	reply := call(t, newDispatcher(&fakeOps{}), `{"jsonrpc":"2.0","id":"p","method":"ping"}`)
	require.Nil(t, reply.Error)
	assert.JSONEq(t, `{}`, string(reply.Result))
	assert.Equal(t, `"p"`, string(reply.ID))
}

func TestToolsList(t *testing.T) {
	reply := call(t, newDispatcher(&fakeOps{}), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, reply.Error)

	var res struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &res))
	require.Len(t, res.Tools, 7)
	assert.Equal(t, tools.SearchDrugShortages, res.Tools[0].Name)
	assert.Equal(t, "object", res.Tools[0].InputSchema["type"])
}

func TestToolsCall_UnknownTool(t *testing.T) {
	ops := &fakeOps{}
	reply := call(t, newDispatcher(ops), `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"unknown_tool","arguments":{}}}`)

	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, reply.Error.Code)
	assert.Equal(t, "7", string(reply.ID))
	assert.Contains(t, string(reply.Error.Data), "search_drug_shortages")
	assert.Zero(t, ops.calls)
}

func TestToolsCall_Success(t *testing.T) {
	reply := call(t, newDispatcher(&fakeOps{}), `{"jsonrpc":"2.0","id":"abc","method":"tools/call","params":{"name":"search_drug_shortages","arguments":{"drug_name":"insulin","limit":5}}}`)
	require.Nil(t, reply.Error)
	assert.Equal(t, `"abc"`, string(reply.ID))

	var res ToolResult
	require.NoError(t, json.Unmarshal(reply.Result, &res))
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	assert.False(t, res.IsError)

	var payload drugs.ShortageResult
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &payload))
	assert.Equal(t, "insulin", payload.DrugName)
	assert.Equal(t, "generic_name_exact", payload.StrategyUsed)
}

func TestToolsCall_ValidationError(t *testing.T) {
	ops := &fakeOps{}
	reply := call(t, newDispatcher(ops), `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search_drug_shortages","arguments":{"limit":500}}}`)

	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, reply.Error.Code)

	var data tools.ValidationError
	require.NoError(t, json.Unmarshal(reply.Error.Data, &data))
	assert.Equal(t, "drug_name", data.Field)
	assert.NotEmpty(t, data.Guidance)
	assert.NotEmpty(t, data.Examples)
	assert.Zero(t, ops.calls)
}

func TestToolsCall_ServiceArgumentError(t *testing.T) {
	ops := &fakeOps{shortageErr: drugs.ErrInvalidArgument}
	reply := call(t, newDispatcher(ops), `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search_drug_shortages","arguments":{"drug_name":"x"}}}`)
	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, reply.Error.Code)
}

func TestToolsCall_UpstreamError(t *testing.T) {
	ops := &fakeOps{shortageErr: &upstream.ClassifiedError{
		Op:             "shortages",
		Classification: upstream.Classifier{}.ClassifyStatus(503),
		Attempts:       4,
		StatusCode:     503,
		Err:            &upstream.StatusError{StatusCode: 503, Message: "dial tcp 10.0.0.1:443: secret detail"},
	}}
	reply := call(t, newDispatcher(ops), `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"search_drug_shortages","arguments":{"drug_name":"aspirin"}}}`)

	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeInternalError, reply.Error.Code)
	assert.NotContains(t, reply.Error.Message, "secret detail")
	assert.NotContains(t, string(reply.Error.Data), "secret detail")

	var data upstreamErrorData
	require.NoError(t, json.Unmarshal(reply.Error.Data, &data))
	assert.Equal(t, "server_error", data.Category)
	assert.True(t, data.RetryRecommended)
	assert.Equal(t, 4, data.Attempts)
	assert.NotEmpty(t, data.Suggestions)
}

func TestToolsCall_BadRequestNotRetryRecommended(t *testing.T) {
	ops := &fakeOps{shortageErr: &upstream.ClassifiedError{
		Op:             "shortages",
		Classification: upstream.Classifier{}.ClassifyStatus(400),
		Attempts:       1,
		Err:            &upstream.StatusError{StatusCode: 400},
	}}
	reply := call(t, newDispatcher(ops), `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"search_drug_shortages","arguments":{"drug_name":"aspirin"}}}`)

	var data upstreamErrorData
	require.NoError(t, json.Unmarshal(reply.Error.Data, &data))
	assert.Equal(t, "bad_request", data.Category)
	assert.False(t, data.RetryRecommended)
}

func TestToolsCall_MissingName(t *testing.T) {
	reply := call(t, newDispatcher(&fakeOps{}), `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`)
	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, reply.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	reply := call(t, newDispatcher(&fakeOps{}), `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, reply.Error.Code)
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		code    int
		id      string
	}{
		{"parse error", `{"jsonrpc":"2.0",`, jsonrpc.CodeParseError, "null"},
		{"wrong version", `{"jsonrpc":"1.0","id":5,"method":"ping"}`, jsonrpc.CodeInvalidRequest, "5"},
		{"missing method", `{"jsonrpc":"2.0","id":"x"}`, jsonrpc.CodeInvalidRequest, `"x"`},
		{"not an object", `42`, jsonrpc.CodeInvalidRequest, "null"},
		{"object id", `{"jsonrpc":"2.0","id":{"a":1},"method":"ping"}`, jsonrpc.CodeInvalidRequest, "null"},
		{"empty batch", `[]`, jsonrpc.CodeInvalidRequest, "null"},
		{"empty body", `  `, jsonrpc.CodeInvalidRequest, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := call(t, newDispatcher(&fakeOps{}), tt.payload)
			require.NotNil(t, reply.Error)
			assert.Equal(t, tt.code, reply.Error.Code)
			assert.Equal(t, tt.id, string(reply.ID))
		})
	}
}

func TestIDEchoedVerbatim(t *testing.T) {
	reply := call(t, newDispatcher(&fakeOps{}), `{"jsonrpc":"2.0","id":12345678901234567890,"method":"ping"}`)
	assert.Equal(t, "12345678901234567890", string(reply.ID))
}

func TestNotificationsHaveNoReply(t *testing.T) {
	d := newDispatcher(&fakeOps{})
	assert.Nil(t, d.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	assert.Nil(t, d.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`)))
	assert.Nil(t, d.HandleMessage(context.Background(), []byte(`[{"jsonrpc":"2.0","method":"notifications/initialized"}]`)))
}

func TestNullIDGetsReply(t *testing.T) {
	d := newDispatcher(&fakeOps{})

	out := d.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	require.NotNil(t, out)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{}}`, string(out))

	out = d.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":null,"method":"bogus"}`))
	require.NotNil(t, out)
	var reply rpcReply
	require.NoError(t, json.Unmarshal(out, &reply))
	require.NotNil(t, reply.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, reply.Error.Code)
	assert.Contains(t, string(out), `"id":null`)

	out = d.HandleMessage(context.Background(), []byte(`[{"jsonrpc":"2.0","id":null,"method":"ping"},{"jsonrpc":"2.0","method":"notifications/initialized"}]`))
	require.NotNil(t, out)
	var replies []rpcReply
	require.NoError(t, json.Unmarshal(out, &replies))
	assert.Len(t, replies, 1)
}

func TestBatch(t *testing.T) {
	d := newDispatcher(&fakeOps{})
	out := d.HandleMessage(context.Background(), []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"ping"},
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"unknown_tool"}},
		7
	]`))
	require.NotNil(t, out)

	var replies []rpcReply
	require.NoError(t, json.Unmarshal(out, &replies))
	require.Len(t, replies, 3)

	assert.Equal(t, "1", string(replies[0].ID))
	assert.Nil(t, replies[0].Error)

	assert.Equal(t, "2", string(replies[1].ID))
	require.NotNil(t, replies[1].Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, replies[1].Error.Code)

	require.NotNil(t, replies[2].Error)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, replies[2].Error.Code)
}
