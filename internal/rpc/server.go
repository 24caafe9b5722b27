package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineBytes bounds a single request line. Repository payloads travel the
// other direction, so requests stay small, but leave generous headroom.
const maxLineBytes = 16 << 20

// Server reads one JSON-RPC request per line, dispatches it, and writes
// exactly one response line before reading the next request. Dispatch is
// strictly sequential, so response order always matches request order and
// registered tools never see concurrent calls from the protocol layer.
type Server struct {
	Name     string
	Version  string
	Registry *Registry
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type listToolsResult struct {
	Tools []ToolSpec `json:"tools"`
}

// Serve runs the read-dispatch-respond loop until end of input or context
// cancellation. Lines that do not parse as a request are skipped silently;
// malformed input never terminates the session.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}
		resp := s.dispatch(ctx, &req)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("rpc: write response: %w", err)
		}
	}
	return sc.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) Response {
	resp := Response{JSONRPC: Version, ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = marshalJSON(initializeResult{
			ProtocolVersion: "2024-11-05",
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: s.Name, Version: s.Version},
		})
	case "tools/list":
		resp.Result = marshalJSON(listToolsResult{Tools: s.Registry.Specs()})
	case "tools/call":
		var p CallParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp.Error = &RespError{Code: -32602, Message: "invalid tools/call params"}
			return resp
		}
		text, err := s.Registry.Call(ctx, p.Name, p.Arguments)
		if err != nil {
			// Tool faults become wire errors keyed to the request id;
			// the server itself keeps running.
			resp.Error = &RespError{Code: -1, Message: err.Error()}
			return resp
		}
		resp.Result = marshalJSON(TextResult(text))
	default:
		resp.Error = &RespError{Code: -32601, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
	return resp
}
