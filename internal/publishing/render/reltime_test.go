package render

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago    time.Duration
		expect string
	}{
		{0, "0s geleden"},
		{59 * time.Second, "59s geleden"},
		{60 * time.Second, "1m geleden"},
		{59*time.Minute + 59*time.Second, "59m geleden"},
		{time.Hour, "1u geleden"},
		{23 * time.Hour, "23u geleden"},
		{24 * time.Hour, "1d geleden"},
		{10*24*time.Hour + 5*time.Hour, "10d geleden"},
		{-time.Hour, "0s geleden"},
	}

	for _, tt := range tests {
		if got := RelativeTime(now.Add(-tt.ago), now); got != tt.expect {
			t.Errorf("RelativeTime(-%v) = %q, want %q", tt.ago, got, tt.expect)
		}
	}
}

func TestCounter_Dutch(t *testing.T) {
	c := NewCounter(language.Dutch)

	tests := map[int64]string{
		0:       "0",
		5:       "5",
		999:     "999",
		1234:    "1.234",
		1234567: "1.234.567",
	}
	for n, want := range tests {
		if got := c.Format(n); got != want {
			t.Errorf("Format(%d) = %q, want %q", n, got, want)
		}
	}
}
