package render

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/publishing/media"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// Card is the view model of one rendered post.
type Card struct {
	Author       string
	Place        string
	Caption      string
	AvatarSrc    template.URL
	AvatarAlt    string
	MediaSrc     template.URL
	MediaAlt     string
	MediaBroken  bool
	Likes        string
	CommentsText string
	DateTime     string
	RelativeTime string
}

// Media holds the settled avatar and image slots of a post.
type Media struct {
	Avatar domain.Resolution
	Image  domain.Resolution
}

// UnresolvedMedia binds a post's slots to their first binding without
// probing: the reference, or the placeholder when there is none.
func UnresolvedMedia(p domain.Post) Media {
	return Media{
		Avatar: firstBinding(media.AvatarTarget(p.Avatar)),
		Image:  firstBinding(media.MediaTarget(p.Image)),
	}
}

// Targets returns the avatar and image load targets of a post.
func Targets(p domain.Post) (avatar, image domain.LoadTarget) {
	return media.AvatarTarget(p.Avatar), media.MediaTarget(p.Image)
}

func firstBinding(t domain.LoadTarget) domain.Resolution {
	if t.IsPlaceholder() {
		return domain.Resolution{
			Reference: t.Reference,
			Source:    t.FallbackReference,
			State:     domain.SlotStateFallback,
		}
	}
	return domain.Resolution{
		Reference: t.Reference,
		Source:    t.Reference,
		State:     domain.SlotStateLoading,
	}
}

func (r *Renderer) buildCard(p domain.Post, m Media, now time.Time) Card {
	author := p.Author
	who := author
	if who == "" {
		who = "gebruiker"
	}

	mediaAlt := p.ImageAlt
	if mediaAlt == "" {
		mediaAlt = "Foto van de post"
	}
	if p.Image == "" {
		mediaAlt = "Geen afbeelding"
	}

	published, dateTime := now, now.UTC().Format(isoMillis)
	if t, ok := p.ParsedTime(); ok {
		published, dateTime = t, strings.TrimSpace(p.Time)
	}

	return Card{
		Author:       author,
		Place:        p.Place,
		Caption:      p.Caption,
		AvatarSrc:    safeSrc(m.Avatar.Source, media.AvatarPlaceholder),
		AvatarAlt:    "Profiel van " + who,
		MediaSrc:     safeSrc(m.Image.Source, media.MediaPlaceholder),
		MediaAlt:     mediaAlt,
		MediaBroken:  m.Image.Broken,
		Likes:        r.counter.Format(p.Likes),
		CommentsText: CommentsText(p.Comments),
		DateTime:     dateTime,
		RelativeTime: RelativeTime(published, now),
	}
}

// CommentsText is the "view all comments" line.
func CommentsText(n int64) string {
	return "Bekijk alle " + strconv.FormatInt(n, 10) + " reacties"
}

// safeSrc admits http(s), relative and data:image sources; anything else is
// replaced by fallback.
func safeSrc(src, fallback string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(src))
	switch {
	case lower == "":
		return template.URL(fallback)
	case strings.HasPrefix(lower, "data:image/"),
		strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "//"):
		return template.URL(src)
	case strings.Contains(lower, ":") && !strings.ContainsAny(strings.SplitN(lower, ":", 2)[0], "/?#"):
		// Some other scheme, e.g. javascript:
		return template.URL(fallback)
	default:
		return template.URL(src)
	}
}
