package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token")
	c.BaseURL = srv.URL
	t.Cleanup(c.Close)
	return c
}

func TestFetchTree(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/hello/git/trees/HEAD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") != "1" {
			t.Errorf("missing recursive=1, got %q", r.URL.RawQuery)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Errorf("accept header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "token test-token" {
			t.Errorf("authorization header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tree": []map[string]any{
				{"path": "a.py", "type": "blob", "size": 100},
				{"path": "docs", "type": "tree", "size": 0},
			},
		})
	})

	tree, err := c.FetchTree(context.Background(), "octocat", "hello")
	if err != nil {
		t.Fatalf("FetchTree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("got %d entries, want 2", len(tree))
	}
	if tree[0].Path != "a.py" || tree[0].Type != "blob" || tree[0].Size != 100 {
		t.Fatalf("unexpected first entry: %+v", tree[0])
	}
}

func TestFetchTreeErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrRateLimited},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.FetchTree(context.Background(), "octocat", "hello")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
		if err == nil || !strings.Contains(err.Error(), "octocat/hello") {
			t.Errorf("status %d: error %q should name owner/repo", tc.status, err)
		}
	}

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchTree(context.Background(), "octocat", "hello")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusBadGateway {
		t.Fatalf("got %v, want UpstreamError with status 502", err)
	}
}

func TestFetchFileContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/hello/contents/src/main.py" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// GitHub wraps base64 payloads with newlines.
		enc := base64.StdEncoding.EncodeToString([]byte("print('hi')\n"))
		_ = json.NewEncoder(w).Encode(map[string]string{"content": enc[:8] + "\n" + enc[8:]})
	})

	got, err := c.FetchFileContent(context.Background(), "octocat", "hello", "src/main.py")
	if err != nil {
		t.Fatalf("FetchFileContent: %v", err)
	}
	if got != "print('hi')\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestFetchFileContentMissingIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	got, err := c.FetchFileContent(context.Background(), "octocat", "hello", "gone.py")
	if err != nil {
		t.Fatalf("single-file 404 must not be an error, got %v", err)
	}
	if got != "" {
		t.Fatalf("content = %q, want empty", got)
	}
}

func TestFetchFileContentRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := c.FetchFileContent(context.Background(), "octocat", "hello", "a.py")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
}

func TestFetchFileContentCharsetFallback(t *testing.T) {
	// "café" in Latin-1: the final byte is not valid UTF-8.
	raw := []byte{'c', 'a', 'f', 0xe9}
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content": base64.StdEncoding.EncodeToString(raw),
		})
	})
	got, err := c.FetchFileContent(context.Background(), "octocat", "hello", "notes.txt")
	if err != nil {
		t.Fatalf("FetchFileContent: %v", err)
	}
	if got != "café" {
		t.Fatalf("content = %q, want %q", got, "café")
	}
}

func TestDecodeTextAlwaysValid(t *testing.T) {
	inputs := [][]byte{
		[]byte("plain ascii"),
		[]byte("snowman ☃"),
		{0xff, 0xfe, 0x00, 0x41},
		{0x80, 0x81, 0x82},
		{},
	}
	for _, in := range inputs {
		out := decodeText(in)
		if !utf8.ValidString(out) {
			t.Errorf("decodeText(%x) produced invalid UTF-8: %q", in, out)
		}
		if len(in) > 0 && out == "" {
			t.Errorf("decodeText(%x) must populate the field", in)
		}
	}
}

func TestSessionCreatedOnce(t *testing.T) {
	c := NewClient("")
	defer c.Close()

	const callers = 16
	sessions := make([]*http.Client, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = c.session()
		}(i)
	}
	wg.Wait()
	for i := 1; i < callers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("racing first users must share one HTTP client")
		}
	}
}

