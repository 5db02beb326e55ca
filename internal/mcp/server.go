package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bryanchriswhite/godotshot/internal/logger"
)

// maxMessageSize bounds a single stdio line.
const maxMessageSize = 10 * 1024 * 1024

// ToolProvider lists and executes tools. Call returns *Error to choose the
// JSON-RPC code; any other error becomes an internal error.
type ToolProvider interface {
	Tools() []Tool
	Call(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error)
}

// Server dispatches MCP requests to a ToolProvider.
type Server struct {
	info     ServerInfo
	provider ToolProvider
}

// NewServer creates a server.
func NewServer(name, version string, provider ToolProvider) *Server {
	return &Server{
		info:     ServerInfo{Name: name, Version: version},
		provider: provider,
	}
}

// HandleRequest processes one request. It returns nil for notifications.
func (s *Server) HandleRequest(ctx context.Context, req Request) *Response {
	log := logger.WithComponent("mcp")

	if req.JSONRPC != JSONRPCVersion {
		if req.IsNotification() {
			return nil
		}
		return newError(req.ID, InvalidRequest(fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPC)))
	}

	log.Debug().Str("method", req.Method).RawJSON("id", idOrNull(req.ID)).Msg("Request received")

	var resp *Response
	switch req.Method {
	case "initialize":
		var params InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				resp = newError(req.ID, InvalidParams("Invalid parameters: "+err.Error()))
				break
			}
		}
		version := params.ProtocolVersion
		if version == "" {
			version = ProtocolVersion
		}
		resp = newResult(req.ID, InitializeResult{
			ProtocolVersion: version,
			ServerInfo:      s.info,
			Capabilities:    Capabilities{Tools: ToolsCapability{ListChanged: false}},
		})
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "ping":
		resp = newResult(req.ID, struct{}{})
	case "tools/list":
		resp = newResult(req.ID, ToolsListResult{Tools: s.provider.Tools()})
	case "tools/call":
		resp = s.callTool(ctx, req)
	default:
		resp = newError(req.ID, MethodNotFound("Method not found: "+req.Method))
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (s *Server) callTool(ctx context.Context, req Request) *Response {
	log := logger.WithComponent("mcp")

	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return newError(req.ID, InvalidParams("tools/call requires a tool name"))
	}

	result, err := s.provider.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			log.Warn().Str("tool", params.Name).Int("code", rpcErr.Code).Msg(rpcErr.Message)
			return newError(req.ID, rpcErr)
		}
		log.Error().Err(err).Str("tool", params.Name).Msg("Error in tool")
		return newError(req.ID, InternalError("Tool execution failed: "+err.Error()))
	}
	return newResult(req.ID, result)
}

// HandleMessage decodes one JSON-RPC message and handles it. It returns nil
// when no response is due.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return newError(nil, &Error{Code: CodeParseError, Message: "Parse error: " + err.Error()})
	}
	return s.HandleRequest(ctx, req)
}

// ServeStdio reads line-delimited requests from in and writes responses to
// out. Each request runs in its own goroutine; writes are serialized. It
// returns after in is exhausted and every in-flight request has answered.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	log := logger.WithComponent("mcp")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)

	var writeMu sync.Mutex
	write := func(resp *Response) {
		data, err := json.Marshal(resp)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal response")
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := out.Write(append(data, '\n')); err != nil {
			log.Error().Err(err).Msg("Failed to write response")
		}
	}

	var wg sync.WaitGroup
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		if len(line) == 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := s.HandleMessage(ctx, line); resp != nil {
				write(resp)
			}
		}()
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	log.Info().Msg("Client disconnected")
	return nil
}

func idOrNull(id json.RawMessage) []byte {
	if len(id) == 0 {
		return []byte("null")
	}
	return id
}
