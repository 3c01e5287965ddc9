package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietddude/postfeed/internal/core/domain"
)

var (
	// ErrNotArray is returned when the feed payload is not a JSON array
	ErrNotArray = errors.New("feed must contain an array")
)

// Decode parses a feed payload. The top-level value must be an array; its
// elements are decoded leniently (see domain.Post).
func Decode(data []byte) ([]domain.Post, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var posts []domain.Post
	if err := json.Unmarshal(trimmed, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}
