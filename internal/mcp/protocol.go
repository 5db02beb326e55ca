// Package mcp implements the Model Context Protocol server side: JSON-RPC 2.0
// framing, tool dispatch and the line-delimited stdio transport.
package mcp

import (
	"encoding/json"
)

// JSONRPCVersion is the only protocol version accepted.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP revision offered when the client names none.
const ProtocolVersion = "2024-11-05"

// Request is an incoming JSON-RPC 2.0 request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id and so expects
// no response.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is an outgoing JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func newResult(id json.RawMessage, v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		return newError(id, InternalError("failed to marshal result: "+err.Error()))
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: data}
}

func newError(id json.RawMessage, e *Error) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: e}
}

// CallParams are the params of tools/call.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// InitializeParams are the params of initialize; only the version is used.
type InitializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}
