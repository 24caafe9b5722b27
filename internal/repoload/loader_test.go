package repoload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"repoqa/internal/githubapi"
)

type fakeFetcher struct {
	tree    []githubapi.TreeEntry
	treeErr error

	mu       sync.Mutex
	contents map[string]string
	errs     map[string]error
	fetched  []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeFetcher) FetchTree(_ context.Context, _, _ string) ([]githubapi.TreeEntry, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	return f.tree, nil
}

func (f *fakeFetcher) FetchFileContent(_ context.Context, _, _, path string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, path)
	if err, ok := f.errs[path]; ok {
		return "", err
	}
	return f.contents[path], nil
}

func TestEligibleFilter(t *testing.T) {
	// Scenario: only allow-listed blob entries under the size ceiling pass.
	entries := []struct {
		e    githubapi.TreeEntry
		want bool
	}{
		{githubapi.TreeEntry{Path: "a.py", Type: "blob", Size: 100}, true},
		{githubapi.TreeEntry{Path: "img.png", Type: "blob", Size: 100}, false},
		{githubapi.TreeEntry{Path: "src", Type: "tree", Size: 0}, false},
		{githubapi.TreeEntry{Path: "big.py", Type: "blob", Size: 50000}, false},
		{githubapi.TreeEntry{Path: "just_under.go", Type: "blob", Size: 49999}, true},
		{githubapi.TreeEntry{Path: "README.md", Type: "blob", Size: 10}, true},
		{githubapi.TreeEntry{Path: "UPPER.PY", Type: "blob", Size: 10}, true},
		{githubapi.TreeEntry{Path: "noext", Type: "blob", Size: 10}, false},
	}
	for _, tc := range entries {
		if got := Eligible(tc.e); got != tc.want {
			t.Errorf("Eligible(%+v) = %v, want %v", tc.e, got, tc.want)
		}
	}
}

func TestLoadFiltersAndSkipsBlank(t *testing.T) {
	f := &fakeFetcher{
		tree: []githubapi.TreeEntry{
			{Path: "a.py", Type: "blob", Size: 100},
			{Path: "img.png", Type: "blob", Size: 100},
			{Path: "blank.md", Type: "blob", Size: 20},
			{Path: "b.go", Type: "blob", Size: 30},
		},
		contents: map[string]string{
			"a.py":     "print('hi')",
			"blank.md": "   \n\t\n",
			"b.go":     "package b",
		},
	}
	snap, err := (&Loader{GitHub: f}).Load(context.Background(), "octocat", "hello")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Username != "octocat" || snap.Repository != "hello" {
		t.Fatalf("snapshot identity: %+v", snap)
	}
	if len(snap.Files) != 2 {
		t.Fatalf("got %d files, want 2 (%+v)", len(snap.Files), snap.Files)
	}
	if snap.Files[0].Path != "a.py" || snap.Files[1].Path != "b.go" {
		t.Fatalf("unexpected files: %+v", snap.Files)
	}
	for _, fr := range snap.Files {
		if strings.TrimSpace(fr.Content) == "" {
			t.Fatalf("blank content leaked into snapshot: %+v", fr)
		}
	}
	for _, p := range f.fetched {
		if p == "img.png" {
			t.Fatal("ineligible file was fetched")
		}
	}
}

func TestLoadTreeFailureIsFatal(t *testing.T) {
	f := &fakeFetcher{treeErr: githubapi.ErrNotFound}
	snap, err := (&Loader{GitHub: f}).Load(context.Background(), "octocat", "gone")
	if snap != nil {
		t.Fatal("no snapshot expected on tree failure")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("got %T, want *LoadError", err)
	}
	if !strings.Contains(err.Error(), "octocat/gone") {
		t.Fatalf("error %q should name owner/repo", err)
	}
	if !errors.Is(err, githubapi.ErrNotFound) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestLoadFileFailureDegradesToEmpty(t *testing.T) {
	f := &fakeFetcher{
		tree: []githubapi.TreeEntry{
			{Path: "ok.py", Type: "blob", Size: 10},
			{Path: "bad.py", Type: "blob", Size: 10},
		},
		contents: map[string]string{"ok.py": "x = 1"},
		errs:     map[string]error{"bad.py": githubapi.ErrRateLimited},
	}
	snap, err := (&Loader{GitHub: f}).Load(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("file-level failure must not abort the load: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != "ok.py" {
		t.Fatalf("unexpected files: %+v", snap.Files)
	}
}

func TestLoadBoundsBatchConcurrency(t *testing.T) {
	var tree []githubapi.TreeEntry
	contents := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		p := name + ".py"
		tree = append(tree, githubapi.TreeEntry{Path: p, Type: "blob", Size: 10})
		contents[p] = "pass"
	}
	f := &fakeFetcher{tree: tree, contents: contents}
	snap, err := (&Loader{GitHub: f}).Load(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Files) != len(tree) {
		t.Fatalf("got %d files, want %d", len(snap.Files), len(tree))
	}
	if got := f.maxInFlight.Load(); got > batchSize {
		t.Fatalf("observed %d concurrent fetches, batch bound is %d", got, batchSize)
	}
}
