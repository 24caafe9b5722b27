package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Client drives a protocol server over a byte stream, one request in
// flight at a time. Request ids increase strictly and are never reused
// within a session; a response carrying any other id means the channel is
// desynchronized and the call fails loudly.
type Client struct {
	w      io.WriteCloser
	r      *bufio.Reader
	cmd    *exec.Cmd
	nextID int64
}

// NewClient wires a client over an existing channel pair.
func NewClient(r io.Reader, w io.WriteCloser) *Client {
	return &Client{w: w, r: bufio.NewReaderSize(r, 64*1024)}
}

// Start spawns the server command as a subprocess and connects to its
// stdio. The subprocess inherits the environment, so credentials loaded by
// the client are visible to the server. Server stderr passes through.
func Start(ctx context.Context, command string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("rpc: start server %q: %w", command, err)
	}
	c := NewClient(stdout, stdin)
	c.cmd = cmd
	return c, nil
}

// Close closes the outbound stream so the server sees end-of-input, then
// waits for the subprocess to exit.
func (c *Client) Close() error {
	err := c.w.Close()
	if c.cmd != nil {
		if werr := c.cmd.Wait(); err == nil {
			err = werr
		}
	}
	return err
}

// Call sends one request and blocks for its single correlated response.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.nextID++
	id := c.nextID

	req := Request{JSONRPC: Version, ID: id, Method: method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("rpc: encode params: %w", err)
		}
		req.Params = b
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode request: %w", err)
	}
	if _, err := c.w.Write(append(b, '\n')); err != nil {
		return nil, &ProtocolError{Msg: fmt.Sprintf("write request %d: %v", id, err)}
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return nil, &ProtocolError{Msg: fmt.Sprintf("read response %d: %v", id, err)}
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, &ProtocolError{Msg: fmt.Sprintf("decode response %d: %v", id, err)}
	}
	if resp.ID != id {
		return nil, &ProtocolError{Msg: fmt.Sprintf("response id %d does not match request id %d", resp.ID, id)}
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Initialize performs the mandatory handshake. It must precede tool calls.
func (c *Client) Initialize(ctx context.Context) error {
	_, err := c.Call(ctx, "initialize", nil)
	return err
}

// ListTools enumerates the server's registered tools.
func (c *Client) ListTools(ctx context.Context) ([]ToolSpec, error) {
	res, err := c.Call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var out listToolsResult
	if err := json.Unmarshal(res, &out); err != nil {
		return nil, &ProtocolError{Msg: fmt.Sprintf("decode tools/list result: %v", err)}
	}
	return out.Tools, nil
}

// CallTool invokes a named tool and unwraps its text result.
func (c *Client) CallTool(ctx context.Context, name string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("rpc: encode tool arguments: %w", err)
	}
	res, err := c.Call(ctx, "tools/call", CallParams{Name: name, Arguments: raw})
	if err != nil {
		return "", err
	}
	var tr ToolResult
	if err := json.Unmarshal(res, &tr); err != nil {
		return "", &ProtocolError{Msg: fmt.Sprintf("decode tool result: %v", err)}
	}
	if len(tr.Content) == 0 {
		return "", &ProtocolError{Msg: fmt.Sprintf("empty result from tool %q", name)}
	}
	return tr.Content[0].Text, nil
}
