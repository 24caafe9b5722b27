// Package tools defines the repository-fetch tool contracts shared by the
// protocol server and client: tool names, argument shapes, the server-side
// implementations, and the client-side session binding.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"repoqa/internal/githubapi"
	"repoqa/internal/repoload"
	"repoqa/internal/rpc"
)

const (
	RepoDataTool    = "get_repo_data"
	FileContentTool = "get_file_content"
)

type RepoDataArgs struct {
	Username string `json:"username"`
	RepoName string `json:"repo_name"`
}

type FileContentArgs struct {
	Username string `json:"username"`
	RepoName string `json:"repo_name"`
	FilePath string `json:"file_path"`
}

// Host wires repository access for the tool set.
type Host struct {
	GitHub *githubapi.Client
	Loader *repoload.Loader
}

// RegisterDefaultTools installs the default tool set into a registry.
func RegisterDefaultTools(r *rpc.Registry, h Host) {
	if r == nil {
		return
	}
	r.Register(&repoDataTool{host: h})
	r.Register(&fileContentTool{host: h})
}

type repoDataTool struct{ host Host }

func (t *repoDataTool) Spec() rpc.ToolSpec {
	return rpc.ToolSpec{
		Name:        RepoDataTool,
		Description: "Load a bounded snapshot of a GitHub repository: filtered file tree plus file contents, fetched in rate-limited batches.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"username":{"type":"string"},"repo_name":{"type":"string"}},"required":["username","repo_name"]}`),
	}
}

func (t *repoDataTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in RepoDataArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("tools: %s arguments: %w", RepoDataTool, err)
	}
	snap, err := t.host.Loader.Load(ctx, in.Username, in.RepoName)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("tools: encode snapshot: %w", err)
	}
	return string(b), nil
}

type fileContentTool struct{ host Host }

func (t *fileContentTool) Spec() rpc.ToolSpec {
	return rpc.ToolSpec{
		Name:        FileContentTool,
		Description: "Fetch the current content of a single repository file.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"username":{"type":"string"},"repo_name":{"type":"string"},"file_path":{"type":"string"}},"required":["username","repo_name","file_path"]}`),
	}
}

func (t *fileContentTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in FileContentArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("tools: %s arguments: %w", FileContentTool, err)
	}
	content, err := t.host.GitHub.FetchFileContent(ctx, in.Username, in.RepoName, in.FilePath)
	if err != nil {
		return "", err
	}
	if content == "" {
		// A missing single file is a sentinel message, never a fault.
		return fmt.Sprintf("File %q not found or is empty", in.FilePath), nil
	}
	return content, nil
}

// Session binds one repository's tool calls to an RPC client.
type Session struct {
	RPC      *rpc.Client
	Username string
	RepoName string
}

// RepoData calls get_repo_data and decodes the snapshot payload.
func (s *Session) RepoData(ctx context.Context) (*repoload.Snapshot, error) {
	text, err := s.RPC.CallTool(ctx, RepoDataTool, RepoDataArgs{Username: s.Username, RepoName: s.RepoName})
	if err != nil {
		return nil, err
	}
	var snap repoload.Snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return nil, fmt.Errorf("tools: invalid repo data payload: %w", err)
	}
	return &snap, nil
}

// FileContent calls get_file_content for one path.
func (s *Session) FileContent(ctx context.Context, path string) (string, error) {
	return s.RPC.CallTool(ctx, FileContentTool, FileContentArgs{Username: s.Username, RepoName: s.RepoName, FilePath: path})
}
