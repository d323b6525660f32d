package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeRunner struct {
	out   []byte
	err   error
	calls int
	name  string
	args  []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls++
	f.name = name
	f.args = args
	return f.out, f.err
}

func newTestClient(r Runner) *Client {
	return &Client{binary: "yt-dlp", runner: r, logger: zap.NewNop()}
}

func infoLine(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal info: %v", err)
	}
	return b
}

func writeMedia(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func TestSearchDownload(t *testing.T) {
	dir := t.TempDir()
	path := writeMedia(t, dir, "Example Song.webm")
	runner := &fakeRunner{out: infoLine(t, map[string]any{
		"title":     "Example Song",
		"_filename": path,
	})}

	entry, err := newTestClient(runner).SearchDownload(context.Background(), "example song", dir)
	if err != nil {
		t.Fatalf("SearchDownload: %v", err)
	}

	if entry.Title != "Example Song" {
		t.Errorf("Title = %q, want %q", entry.Title, "Example Song")
	}
	if entry.FilePath != path {
		t.Errorf("FilePath = %q, want %q", entry.FilePath, path)
	}

	if runner.name != "yt-dlp" {
		t.Errorf("ran %q, want yt-dlp", runner.name)
	}
	for _, want := range []string{"bestaudio/best", "--no-playlist", "--print-json", "ytsearch1:example song"} {
		if !hasArg(runner.args, want) {
			t.Errorf("args %v missing %q", runner.args, want)
		}
	}
	if tmpl := argValue(runner.args, "--output"); !strings.HasPrefix(tmpl, dir) || !strings.Contains(tmpl, "%(title)s.%(ext)s") {
		t.Errorf("output template = %q, want title template under %q", tmpl, dir)
	}
}

func TestSearchDownloadPrefersRequestedDownloads(t *testing.T) {
	dir := t.TempDir()
	path := writeMedia(t, dir, "taken.opus")
	runner := &fakeRunner{out: infoLine(t, map[string]any{
		"title":     "Taken",
		"_filename": filepath.Join(dir, "stale.webm"),
		"requested_downloads": []map[string]any{
			{"filepath": path},
		},
	})}

	entry, err := newTestClient(runner).SearchDownload(context.Background(), "taken", dir)
	if err != nil {
		t.Fatalf("SearchDownload: %v", err)
	}
	if entry.FilePath != path {
		t.Errorf("FilePath = %q, want requested_downloads path %q", entry.FilePath, path)
	}
}

func TestSearchDownloadNoResults(t *testing.T) {
	runner := &fakeRunner{out: nil}

	_, err := newTestClient(runner).SearchDownload(context.Background(), "nothing here", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no results") {
		t.Fatalf("SearchDownload = %v, want no-results error", err)
	}
}

func TestSearchDownloadRunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("ERROR: [youtube] unavailable: exit status 1")}

	_, err := newTestClient(runner).SearchDownload(context.Background(), "broken", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("SearchDownload = %v, want wrapped runner error", err)
	}
}

func TestSearchDownloadMissingFile(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{out: infoLine(t, map[string]any{
		"title":     "Ghost",
		"_filename": filepath.Join(dir, "never-written.webm"),
	})}

	_, err := newTestClient(runner).SearchDownload(context.Background(), "ghost", dir)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("SearchDownload = %v, want missing-file error", err)
	}
}

func TestSearchDownloadEmptyQuery(t *testing.T) {
	runner := &fakeRunner{}

	if _, err := newTestClient(runner).SearchDownload(context.Background(), "  ", t.TempDir()); err == nil {
		t.Fatal("SearchDownload accepted empty query")
	}
	if runner.calls != 0 {
		t.Errorf("runner invoked %d times for empty query, want 0", runner.calls)
	}
}

func TestParseInfoGarbage(t *testing.T) {
	if _, err := parseInfo([]byte("not json at all")); err == nil {
		t.Fatal("parseInfo accepted garbage")
	}
	if _, err := parseInfo(nil); !errors.Is(err, errNoEntry) {
		t.Fatalf("parseInfo(nil) = %v, want errNoEntry", err)
	}
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
