package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Post is a single entry of the feed. Every field is optional.
type Post struct {
	Author   string `json:"author" db:"author"`
	Caption  string `json:"caption" db:"caption"`
	Avatar   string `json:"avatar" db:"avatar"`
	Image    string `json:"image" db:"image"`
	ImageAlt string `json:"imageAlt" db:"image_alt"`
	Place    string `json:"place" db:"place"`
	Time     string `json:"time" db:"published_at"`
	Likes    int64  `json:"likes" db:"likes"`
	Comments int64  `json:"comments" db:"comments"`
}

// Fallback post shown when the feed itself cannot be loaded.
const (
	FallbackAuthor  = "Fallback"
	FallbackCaption = "Kon niet laden: bekijk de console voor details"
)

// FallbackPost returns the single entry rendered in place of a broken feed.
func FallbackPost() Post {
	return Post{
		Author:  FallbackAuthor,
		Caption: FallbackCaption,
	}
}

// UnmarshalJSON decodes a post leniently: wrong-typed string fields are left
// empty and counters accept numbers or numeric strings. Elements that are not
// objects (null, numbers, strings, bools, arrays) become an empty post.
func (p *Post) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*p = Post{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Post{
		Author:   rawString(raw["author"]),
		Caption:  rawString(raw["caption"]),
		Avatar:   rawString(raw["avatar"]),
		Image:    rawString(raw["image"]),
		ImageAlt: rawString(raw["imageAlt"]),
		Place:    rawString(raw["place"]),
		Time:     rawString(raw["time"]),
		Likes:    rawCount(raw["likes"]),
		Comments: rawCount(raw["comments"]),
	}
	return nil
}

// PublishedAt parses Time, falling back to now when it is empty or invalid.
func (p Post) PublishedAt(now time.Time) time.Time {
	if t, ok := p.ParsedTime(); ok {
		return t
	}
	return now
}

// ParsedTime parses Time and reports whether it held a usable timestamp.
func (p Post) ParsedTime() (time.Time, bool) {
	s := strings.TrimSpace(p.Time)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func rawString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return ""
	}
	return s
}

func rawCount(msg json.RawMessage) int64 {
	if len(msg) == 0 {
		return 0
	}

	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return numberToCount(string(n))
	}

	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return numberToCount(strings.TrimSpace(s))
	}
	return 0
}

func numberToCount(s string) int64 {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(i, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int64(f)
	}
	return 0
}
