package mcp

// Tool describes one callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentBlock is a single piece of tool output: text or a base64 image.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolResult is the result of tools/call.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps text in a tool result.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ImageResult wraps a base64 image in a tool result.
func ImageResult(data, mimeType string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "image", Data: data, MimeType: mimeType}}}
}

// ServerInfo identifies the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsCapability declares tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// Capabilities declares what the server supports.
type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// InitializeResult answers initialize.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// ToolsListResult answers tools/list.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}
