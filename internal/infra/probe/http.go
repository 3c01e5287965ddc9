package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotImage is returned when a source does not serve an image
	ErrNotImage = errors.New("not an image")
	// ErrUnsupportedScheme is returned for sources a browser would not fetch
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// HTTPProber checks media sources the way an img element would load them.
type HTTPProber struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewHTTPProber creates a prober. Relative sources are resolved against
// baseURL; when baseURL is empty they fail.
func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "postfeed/1.0",
	}
}

// Probe loads src and fails unless it returns an image.
func (p *HTTPProber) Probe(ctx context.Context, src string) error {
	if strings.HasPrefix(src, "data:") {
		return probeDataURI(src)
	}

	target, err := p.resolve(src)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()
	// Drain a little so the connection can be reused.
	_, _ = io.CopyN(io.Discard, resp.Body, 64<<10)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	if !isImageType(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%w: %q", ErrNotImage, resp.Header.Get("Content-Type"))
	}
	return nil
}

func (p *HTTPProber) resolve(src string) (string, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src, nil
	case strings.HasPrefix(src, "//"):
		return "https:" + src, nil
	case strings.Contains(src, "://"):
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, src)
	case p.baseURL == "":
		return "", fmt.Errorf("relative source %q without base url", src)
	}

	base, err := url.Parse(p.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("invalid source %q: %w", src, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func probeDataURI(src string) error {
	meta, _, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return fmt.Errorf("%w: malformed data uri", ErrNotImage)
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	if !isImageType(mediaType) {
		return fmt.Errorf("%w: %q", ErrNotImage, mediaType)
	}
	return nil
}

func isImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
