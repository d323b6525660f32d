package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const binaryName = "yt-dlp"

// Entry describes a downloaded media item.
type Entry struct {
	Title    string
	FilePath string
}

// Extractor describes the operation the service layer relies on.
type Extractor interface {
	SearchDownload(ctx context.Context, query, destDir string) (Entry, error)
}

// Runner executes the extractor binary; wrapped for easier testing.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Client implements Extractor by shelling out to yt-dlp.
type Client struct {
	binary string
	runner Runner
	logger *zap.Logger
}

// NewClient verifies the yt-dlp binary is reachable and builds a client.
func NewClient(logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := exec.LookPath(binaryName)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found: %w", err)
	}

	return &Client{
		binary: path,
		runner: execRunner{},
		logger: logger,
	}, nil
}

// SearchDownload searches for query, downloads the single best-audio result
// into destDir and reports its title and final on-disk path.
func (c *Client) SearchDownload(ctx context.Context, query, destDir string) (Entry, error) {
	if strings.TrimSpace(query) == "" {
		return Entry{}, fmt.Errorf("query is empty")
	}

	args := []string{
		"--format", "bestaudio/best",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"--print-json",
		"--output", filepath.Join(destDir, "%(title)s.%(ext)s"),
		"ytsearch1:" + query,
	}

	c.logger.Debug("running yt-dlp", zap.String("query", query), zap.String("dest", destDir))

	out, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		return Entry{}, fmt.Errorf("yt-dlp: %w", err)
	}

	info, err := parseInfo(out)
	if err != nil {
		if errors.Is(err, errNoEntry) {
			return Entry{}, fmt.Errorf("no results for %q", query)
		}
		return Entry{}, err
	}

	path := info.downloadedPath()
	if path == "" {
		return Entry{}, fmt.Errorf("no results for %q", query)
	}
	if _, err := os.Stat(path); err != nil {
		return Entry{}, fmt.Errorf("downloaded file missing: %w", err)
	}

	return Entry{Title: info.Title, FilePath: path}, nil
}

type execRunner struct{}

// Run executes the command keeping stdout (the metadata stream) separate from
// stderr, which only matters when the command fails.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
