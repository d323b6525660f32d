package song

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"songbot/internal/client/ytdlp"
)

// Result describes a downloaded song ready for upload. Dir is the scratch
// directory holding the file; Cleanup removes it.
type Result struct {
	Title    string
	FilePath string
	Dir      string
}

// Service orchestrates the search and download workflow.
type Service struct {
	extractor ytdlp.Extractor
	baseDir   string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService constructs a song service instance. Downloads land in scratch
// directories under baseDir and each is bounded by timeout.
func NewService(extractor ytdlp.Extractor, baseDir string, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Service{
		extractor: extractor,
		baseDir:   baseDir,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fetch downloads the best-audio match for query into a fresh scratch
// directory. The caller must call Cleanup on the result whether or not the
// upload succeeds.
func (s *Service) Fetch(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fmt.Errorf("query is empty")
	}

	dir, err := os.MkdirTemp(s.baseDir, "song-*")
	if err != nil {
		return Result{}, fmt.Errorf("scratch dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.extractor.SearchDownload(ctx, query, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return Result{}, fmt.Errorf("download: %w", err)
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		base := filepath.Base(entry.FilePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	s.logger.Debug("song fetched", zap.String("title", title), zap.String("path", entry.FilePath))

	return Result{Title: title, FilePath: entry.FilePath, Dir: dir}, nil
}

// Cleanup removes the scratch directory for a fetched result.
func (s *Service) Cleanup(res Result) {
	if res.Dir == "" {
		return
	}
	_ = os.RemoveAll(res.Dir)
}
