package repoload

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"repoqa/internal/githubapi"
)

const (
	// maxFileSize is a hard ceiling; files at or above it never enter a snapshot.
	maxFileSize = 50000
	// batchSize bounds how many file bodies are in flight at once.
	batchSize = 5
	// batchPause is the backpressure delay between batches, to stay
	// under the GitHub API rate limit.
	batchPause = 200 * time.Millisecond
)

// allowedExtensions is the fixed allow-list of code, markup, data and
// config file extensions worth loading.
var allowedExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".java": true, ".cpp": true,
	".c": true, ".go": true, ".rs": true, ".php": true, ".rb": true,
	".swift": true, ".kt": true, ".md": true, ".txt": true, ".json": true,
	".yaml": true, ".yml": true, ".html": true, ".css": true, ".sql": true,
	".csv": true,
}

// FileRecord is one loaded file. Content is always UTF-8.
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// Snapshot is the immutable in-memory file set of one session.
type Snapshot struct {
	Username   string       `json:"username"`
	Repository string       `json:"repository"`
	Files      []FileRecord `json:"files"`
}

// LoadError is the single terminal error for a failed repository load.
type LoadError struct {
	Owner string
	Repo  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("repoload: could not fetch repository data for %s/%s: %v", e.Owner, e.Repo, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Fetcher is the slice of the GitHub client the loader depends on.
type Fetcher interface {
	FetchTree(ctx context.Context, owner, repo string) ([]githubapi.TreeEntry, error)
	FetchFileContent(ctx context.Context, owner, repo, path string) (string, error)
}

// Loader assembles bounded repository snapshots.
type Loader struct {
	GitHub Fetcher
}

// Eligible reports whether a tree entry passes the blob/extension/size filter.
func Eligible(e githubapi.TreeEntry) bool {
	if e.Type != "blob" || e.Size >= maxFileSize {
		return false
	}
	return allowedExtensions[strings.ToLower(path.Ext(e.Path))]
}

// Load fetches the recursive tree once, filters it, and pulls eligible file
// bodies in paced batches. A tree failure is fatal for the whole load;
// individual file failures degrade to empty content and are dropped.
func (l *Loader) Load(ctx context.Context, owner, repo string) (*Snapshot, error) {
	tree, err := l.GitHub.FetchTree(ctx, owner, repo)
	if err != nil {
		return nil, &LoadError{Owner: owner, Repo: repo, Err: err}
	}

	var eligible []githubapi.TreeEntry
	for _, e := range tree {
		if Eligible(e) {
			eligible = append(eligible, e)
		}
	}
	log.Printf("repoload: processing %d files from %s/%s", len(eligible), owner, repo)

	snap := &Snapshot{Username: owner, Repository: repo, Files: make([]FileRecord, 0, len(eligible))}
	for start := 0; start < len(eligible); start += batchSize {
		end := min(start+batchSize, len(eligible))
		batch := eligible[start:end]
		contents := make([]string, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, entry := range batch {
			g.Go(func() error {
				body, err := l.GitHub.FetchFileContent(gctx, owner, repo, entry.Path)
				if err != nil {
					log.Printf("repoload: fetch %s: %v", entry.Path, err)
					return nil
				}
				contents[i] = body
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, &LoadError{Owner: owner, Repo: repo, Err: err}
		}

		for i, entry := range batch {
			if strings.TrimSpace(contents[i]) == "" {
				continue
			}
			snap.Files = append(snap.Files, FileRecord{Path: entry.Path, Content: contents[i], Size: entry.Size})
		}

		if end < len(eligible) {
			select {
			case <-ctx.Done():
				return nil, &LoadError{Owner: owner, Repo: repo, Err: ctx.Err()}
			case <-time.After(batchPause):
			}
			log.Printf("repoload: processed %d/%d files", end, len(eligible))
		}
	}

	log.Printf("repoload: loaded %d files", len(snap.Files))
	return snap, nil
}
