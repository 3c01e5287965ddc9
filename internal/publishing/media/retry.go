package media

import (
	"strconv"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for a media slot.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig retries twice, after 300ms and then 600ms.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 2,
	BaseDelay:   300 * time.Millisecond,
}

// RetryParam is the query parameter appended to defeat intermediary caches.
const RetryParam = "r"

// RetryURI returns ref with r=<unix millis> appended as a query parameter.
func RetryURI(ref string, at time.Time) string {
	sep := "?"
	if strings.Contains(ref, "?") {
		sep = "&"
	}
	return ref + sep + RetryParam + "=" + strconv.FormatInt(at.UnixMilli(), 10)
}

// calculateBackoff grows linearly: BaseDelay * attempt (attempt is 1-indexed).
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return config.BaseDelay * time.Duration(attempt)
}

func (c RetryConfig) withDefaults() RetryConfig {
	// Zero means unset; a negative value disables retries.
	switch {
	case c.MaxAttempts == 0:
		c.MaxAttempts = DefaultRetryConfig.MaxAttempts
	case c.MaxAttempts < 0:
		c.MaxAttempts = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultRetryConfig.BaseDelay
	}
	return c
}
