// Package rpc implements the newline-delimited JSON-RPC 2.0 protocol layer:
// a sequential stdio server hosting registered tools, and the paired
// synchronous client that spawns it as a subprocess.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version on every wire object.
const Version = "2.0"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RespError      `json:"error,omitempty"`
}

// RespError is the wire error of a failed request.
type RespError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RespError) Error() string {
	return fmt.Sprintf("rpc: server error %d: %s", e.Code, e.Message)
}

// CallParams is the params shape of a tools/call request.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ContentItem is one element of a wrapped tool result.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult wraps a tool's text output the way the wire expects it.
type ToolResult struct {
	Content []ContentItem `json:"content"`
}

// TextResult wraps plain text as a single-item tool result.
func TextResult(text string) ToolResult {
	return ToolResult{Content: []ContentItem{{Type: "text", Text: text}}}
}

// ProtocolError reports a malformed or desynchronized exchange seen from
// the client side of the channel.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "rpc: " + e.Msg }

func marshalJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return b
}
