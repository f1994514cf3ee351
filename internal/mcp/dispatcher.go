// Package mcp implements the MCP JSON-RPC method dispatcher.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rxmcp/internal/drugs"
	"rxmcp/internal/jsonrpc"
	"rxmcp/internal/metrics"
	"rxmcp/internal/tools"
	"rxmcp/internal/upstream"
)

// Dispatcher routes JSON-RPC requests to MCP methods
type Dispatcher struct {
	registry *tools.Registry
	info     ServerInfo
	metrics  *metrics.Recorder
	logger   zerolog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(registry *tools.Registry, info ServerInfo, rec *metrics.Recorder, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		info:     info,
		metrics:  rec,
		logger:   logger.With().Str("component", "mcp").Logger(),
	}
}

// HandleMessage processes a raw JSON-RPC payload, single or batch, and returns
// the encoded reply. It returns nil when there is nothing to send back
// (notifications only).
func (d *Dispatcher) HandleMessage(ctx context.Context, data []byte) []byte {
	batch, isBatch, err := jsonrpc.SplitBatch(data)
	if err != nil {
		rpcErr := jsonrpc.ErrInvalidRequest
		if errors.Is(err, jsonrpc.ErrParse) {
			rpcErr = jsonrpc.ErrParse
		}
		return encode(jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), rpcErr))
	}

	if !isBatch {
		resp := d.handleRaw(ctx, batch[0])
		if resp == nil {
			return nil
		}
		return encode(resp)
	}

	responses := make([]*jsonrpc.Response, 0, len(batch))
	for _, raw := range batch {
		if resp := d.handleRaw(ctx, raw); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil
	}

	out, err := jsonrpc.MarshalBatchResponse(responses)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to encode batch response")
		return encode(jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), jsonrpc.ErrInternal))
	}
	return out
}

func (d *Dispatcher) handleRaw(ctx context.Context, raw []byte) *jsonrpc.Response {
	req, err := jsonrpc.ParseRequest(raw)
	if err != nil {
		if json.Valid(raw) {
			return jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), jsonrpc.ErrInvalidRequest)
		}
		return jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), jsonrpc.ErrParse)
	}

	if err := req.Validate(); err != nil {
		d.logger.Debug().Err(err).Msg("invalid request")
		id := req.ID
		if !id.Valid() {
			id = jsonrpc.NewIDNull()
		}
		return jsonrpc.NewErrorResponse(id, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "Invalid Request: "+err.Error()))
	}

	return d.Handle(ctx, req)
}

// Handle dispatches a validated request. Notifications return nil.
func (d *Dispatcher) Handle(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	if req.IsNotification() {
		d.handleNotification(req)
		return nil
	}

	switch req.Method {
	case MethodInitialize:
		return d.handleInitialize(req)
	case MethodPing:
		return d.result(req.ID, struct{}{})
	case MethodToolsList:
		return d.result(req.ID, toolsListResult{Tools: d.registry.List()})
	case MethodToolsCall:
		return d.handleToolsCall(ctx, req)
	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "Method not found: "+req.Method))
	}
}

func (d *Dispatcher) handleNotification(req *jsonrpc.Request) {
	switch {
	case req.Method == NotifyInitialized:
		d.logger.Info().Msg("client initialized")
	case req.Method == NotifyCancelled:
		d.logger.Debug().RawJSON("params", paramsOrNull(req.Params)).Msg("client cancelled a request")
	case strings.HasPrefix(req.Method, notificationsPrefix):
		d.logger.Debug().Str("method", req.Method).Msg("ignoring notification")
	default:
		d.logger.Warn().Str("method", req.Method).Msg("request without id ignored")
	}
}

func (d *Dispatcher) handleInitialize(req *jsonrpc.Request) *jsonrpc.Response {
	var params initializeParams
	if err := req.BindParams(&params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "Invalid params: "+err.Error()))
	}

	version := supportedProtocolVersions[0]
	for _, v := range supportedProtocolVersions {
		if v == params.ProtocolVersion {
			version = v
			break
		}
	}

	d.logger.Info().
		Str("client_version", params.ProtocolVersion).
		Str("negotiated", version).
		Msg("initialize")

	return d.result(req.ID, initializeResult{
		ProtocolVersion: version,
		Capabilities:    capabilities{Tools: toolsCapability{ListChanged: false}},
		ServerInfo:      d.info,
		Instructions:    instructions,
	})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params toolCallParams
	if err := req.BindParams(&params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "Invalid params: tools/call expects {name, arguments}"))
	}
	if params.Name == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "Invalid params: tool name is required"))
	}

	callID := uuid.NewString()
	logger := d.logger.With().Str("call_id", callID).Str("tool", params.Name).Logger()
	start := time.Now()

	result, err := d.registry.Call(ctx, params.Name, params.Arguments)
	duration := time.Since(start)
	if err != nil {
		rpcErr := d.toolError(params.Name, err)
		d.metrics.ToolCall(ctx, params.Name, outcome(rpcErr.Code), duration)
		logger.Warn().
			Err(err).
			Int("code", rpcErr.Code).
			Dur("duration", duration).
			Msg("tool call failed")
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode tool result")
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInternal)
	}

	d.metrics.ToolCall(ctx, params.Name, "ok", duration)
	logger.Info().Dur("duration", duration).Msg("tool call")

	return d.result(req.ID, ToolResult{Content: []Content{{Type: "text", Text: string(text)}}})
}

// toolError maps a tool failure to a JSON-RPC error. Transport details are
// logged by the caller and never returned to the client.
func (d *Dispatcher) toolError(tool string, err error) *jsonrpc.Error {
	var validation *tools.ValidationError
	var classified *upstream.ClassifiedError

	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		names := make([]string, 0, len(d.registry.List()))
		for _, def := range d.registry.List() {
			names = append(names, def.Name)
		}
		return jsonrpc.NewErrorWithData(jsonrpc.CodeMethodNotFound, "Unknown tool: "+tool,
			unknownToolData{Tool: tool, AvailableTools: names})

	case errors.As(err, &validation):
		return jsonrpc.NewErrorWithData(jsonrpc.CodeInvalidParams, validation.Error(), validation)

	case errors.Is(err, drugs.ErrInvalidArgument):
		data := &tools.ValidationError{Tool: tool, Message: err.Error()}
		if def, ok := d.registry.Lookup(tool); ok {
			data.Guidance = def.Guidance
			data.Examples = def.Examples
		}
		return jsonrpc.NewErrorWithData(jsonrpc.CodeInvalidParams, err.Error(), data)

	case errors.As(err, &classified):
		c := classified.Classification
		return jsonrpc.NewErrorWithData(jsonrpc.CodeInternalError,
			fmt.Sprintf("openFDA request failed (%s)", c.Category),
			upstreamErrorData{
				Category:         string(c.Category),
				Suggestions:      c.Suggestions,
				RetryRecommended: classified.RetryRecommended(),
				Attempts:         classified.Attempts,
			})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return jsonrpc.NewErrorWithData(jsonrpc.CodeInternalError, "Request was cancelled or timed out",
			upstreamErrorData{
				Category:         string(upstream.CategoryNetworkError),
				Suggestions:      []string{"Try the request again"},
				RetryRecommended: true,
			})

	default:
		return jsonrpc.NewError(jsonrpc.CodeInternalError, "Internal error while running "+tool)
	}
}

func (d *Dispatcher) result(id jsonrpc.ID, v any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResponse(id, v)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to encode result")
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrInternal)
	}
	return resp
}

func outcome(code int) string {
	switch code {
	case jsonrpc.CodeInvalidParams:
		return "invalid_params"
	case jsonrpc.CodeMethodNotFound:
		return "unknown_tool"
	default:
		return "error"
	}
}

func encode(resp *jsonrpc.Response) []byte {
	data, err := resp.Bytes()
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal error"},"id":null}`)
	}
	return data
}

func paramsOrNull(p json.RawMessage) []byte {
	if len(p) == 0 {
		return []byte("null")
	}
	return p
}
