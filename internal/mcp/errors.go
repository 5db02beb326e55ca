package mcp

import "fmt"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Error is a JSON-RPC error object. Tool handlers return it to pick the code
// the client sees.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func InvalidParams(msg string) *Error  { return &Error{Code: CodeInvalidParams, Message: msg} }
func InvalidRequest(msg string) *Error { return &Error{Code: CodeInvalidRequest, Message: msg} }
func MethodNotFound(msg string) *Error { return &Error{Code: CodeMethodNotFound, Message: msg} }
func InternalError(msg string) *Error  { return &Error{Code: CodeInternalError, Message: msg} }
