package mcp

import "rxmcp/internal/tools"

// Protocol versions this server accepts. The first entry is preferred.
var supportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// MCP method names
const (
	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	NotifyInitialized   = "notifications/initialized"
	NotifyCancelled     = "notifications/cancelled"
	notificationsPrefix = "notifications/"
)

// ServerInfo identifies the server in the initialize handshake
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      map[string]any `json:"clientInfo,omitempty"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type capabilities struct {
	Tools toolsCapability `json:"tools"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Instructions    string       `json:"instructions,omitempty"`
}

type toolsListResult struct {
	Tools []tools.Definition `json:"tools"`
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Content is one item of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result of tools/call
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// upstreamErrorData is attached to -32603 errors caused by openFDA failures
type upstreamErrorData struct {
	Category         string   `json:"category"`
	Suggestions      []string `json:"suggestions"`
	RetryRecommended bool     `json:"retryRecommended"`
	Attempts         int      `json:"attempts,omitempty"`
}

// unknownToolData is attached to -32601 errors for tools/call
type unknownToolData struct {
	Tool           string   `json:"tool"`
	AvailableTools []string `json:"availableTools"`
}

const instructions = "Drug information from the U.S. FDA (openFDA): shortages, recalls, labels and adverse event reports. " +
	"Use generic drug names where possible. Results with status \"no_data\" mean no records matched; follow the suggestions they carry."
