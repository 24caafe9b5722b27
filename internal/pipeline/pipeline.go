// Package pipeline drives the two-phase question flow: ask the model which
// files matter, fetch them over the protocol channel, then answer from
// their contents.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"repoqa/internal/llm"
	"repoqa/internal/summary"
)

const (
	// maxSelectedFiles caps phase-1 output to bound phase-2 cost.
	maxSelectedFiles = 5
	// fallbackFileCount is the degraded selection size when nothing validates.
	fallbackFileCount = 3
	// maxFileChars bounds a single file's contribution to the phase-2 prompt.
	maxFileChars = 5000
)

// ContentFetcher retrieves one file's current content by repository path.
type ContentFetcher interface {
	FileContent(ctx context.Context, path string) (string, error)
}

// Pipeline answers questions about one loaded repository. The summary is
// the only state carried between questions; file content is re-fetched
// every time a file is selected.
type Pipeline struct {
	LLM     llm.Client
	Fetcher ContentFetcher
	Summary *summary.RepoSummary
}

// Selection is the outcome of phase 1.
type Selection struct {
	Paths []string
	// Fallback is set when the selection degraded to the summary's first
	// files, either because the model call failed or because none of its
	// suggestions named a real file.
	Fallback bool
	// Rejected keeps the model's raw suggestions for the warning path.
	Rejected []string
}

// SelectFiles runs phase 1: prompt the model with the repository summary
// and the question, parse its answer into paths, and validate each one
// against the summary. Suggestions that name no real file are dropped; an
// empty validated set degrades to the summary's first files in order.
func (p *Pipeline) SelectFiles(ctx context.Context, question string) Selection {
	available := p.Summary.Paths()

	raw, err := p.LLM.GenerateText(ctx, selectPrompt(question, p.Summary))
	if err != nil {
		log.Printf("pipeline: file selection failed: %v", err)
		return Selection{Paths: firstN(available, fallbackFileCount), Fallback: true}
	}

	suggested := parseFileList(raw)
	known := make(map[string]bool, len(available))
	for _, path := range available {
		known[path] = true
	}
	valid := make([]string, 0, len(suggested))
	for _, path := range suggested {
		if known[path] {
			valid = append(valid, path)
		}
	}
	if len(valid) == 0 {
		return Selection{Paths: firstN(available, fallbackFileCount), Fallback: true, Rejected: suggested}
	}
	if len(valid) > maxSelectedFiles {
		valid = valid[:maxSelectedFiles]
	}
	return Selection{Paths: valid}
}

// Answer runs phase 2: fetch the selected files, build the multi-file
// prompt, and return the model's free-text answer. A model failure yields
// a visible error string instead of propagating past the pipeline.
func (p *Pipeline) Answer(ctx context.Context, question string, sel Selection) string {
	files := make([]fetchedFile, 0, len(sel.Paths))
	for _, path := range sel.Paths {
		body, err := p.Fetcher.FileContent(ctx, path)
		if err != nil {
			log.Printf("pipeline: fetch %s: %v", path, err)
			body = ""
		}
		files = append(files, fetchedFile{Path: path, Content: body})
	}

	answer, err := p.LLM.GenerateText(ctx, answerPrompt(question, p.Summary, files))
	if err != nil {
		return fmt.Sprintf("Error generating response: %v", err)
	}
	return answer
}

type fetchedFile struct {
	Path    string
	Content string
}

// parseFileList extracts a comma-separated path list from a free-text
// model response: prefer the first plain line containing a comma, else
// fall back to the last non-empty line.
func parseFileList(raw string) []string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var fileLine string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" && !strings.HasPrefix(l, "#") && !strings.HasPrefix(l, "-") && strings.Contains(l, ",") {
			fileLine = l
			break
		}
	}
	if fileLine == "" {
		for i := len(lines) - 1; i >= 0; i-- {
			if l := strings.TrimSpace(lines[i]); l != "" {
				fileLine = l
				break
			}
		}
	}
	var paths []string
	for _, part := range strings.Split(fileLine, ",") {
		if p := strings.Trim(strings.TrimSpace(part), "`\"'"); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func firstN(paths []string, n int) []string {
	if len(paths) > n {
		paths = paths[:n]
	}
	return append([]string(nil), paths...)
}

func truncate(content string, limit int) string {
	r := []rune(content)
	if len(r) <= limit {
		return content
	}
	return string(r[:limit]) + "..."
}
