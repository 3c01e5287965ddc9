package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/infra/storage"
)

// Source produces the raw feed.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Posts(ctx context.Context) ([]domain.Post, error)
}

// maxFeedBytes bounds how much of a feed payload is read.
const maxFeedBytes = 8 << 20

// ErrFeedTooLarge is returned when a payload exceeds maxFeedBytes
var ErrFeedTooLarge = errors.New("feed exceeds 8 MiB")

// readFeed reads r fully, failing instead of truncating past limit.
func readFeed(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrFeedTooLarge
	}
	return data, nil
}

// FileSource reads a JSON feed from disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a new file source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Posts(ctx context.Context) ([]domain.Post, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}
	defer f.Close()

	data, err := readFeed(f, maxFeedBytes)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// HTTPSource fetches a JSON feed over HTTP.
type HTTPSource struct {
	URL        string
	httpClient *http.Client
}

// NewHTTPSource creates a new HTTP source.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Posts(ctx context.Context) ([]domain.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch feed: %d", resp.StatusCode)
	}

	data, err := readFeed(resp.Body, maxFeedBytes)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// RepoSource reads posts from a PostRepository.
type RepoSource struct {
	repo  storage.PostRepository
	limit int
}

// NewRepoSource creates a new repository source. limit <= 0 reads every post.
func NewRepoSource(repo storage.PostRepository, limit int) *RepoSource {
	return &RepoSource{repo: repo, limit: limit}
}

func (s *RepoSource) Name() string { return "database" }

func (s *RepoSource) Posts(ctx context.Context) ([]domain.Post, error) {
	return s.repo.List(ctx, s.limit)
}
