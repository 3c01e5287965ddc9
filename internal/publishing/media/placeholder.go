package media

import (
	"net/url"
	"strings"

	"github.com/vietddude/postfeed/internal/core/domain"
)

const svgDataPrefix = "data:image/svg+xml;utf8,"

const mediaSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="1200" viewBox="0 0 1200 1200">` +
	`<rect width="100%" height="100%" fill="#f3f4f6"/>` +
	`<g fill="#d1d5db">` +
	`<circle cx="600" cy="480" r="180" />` +
	`<rect x="260" y="720" width="680" height="120" rx="20" />` +
	`</g>` +
	`</svg>`

const avatarSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64" viewBox="0 0 64 64">` +
	`<rect width="100%" height="100%" rx="32" fill="#e6e9ee" />` +
	`<circle cx="32" cy="24" r="12" fill="#cbd5e1" />` +
	`<rect x="12" y="40" width="40" height="12" rx="6" fill="#cbd5e1" />` +
	`</svg>`

var (
	// MediaPlaceholder is the 1200x1200 graphic used for post images.
	MediaPlaceholder = svgDataURI(mediaSVG)

	// AvatarPlaceholder is the 64x64 graphic used for author avatars.
	AvatarPlaceholder = svgDataURI(avatarSVG)
)

// MediaTarget returns the load target for a post image.
func MediaTarget(ref string) domain.LoadTarget {
	return domain.LoadTarget{Reference: ref, FallbackReference: MediaPlaceholder}
}

// AvatarTarget returns the load target for an author avatar.
func AvatarTarget(ref string) domain.LoadTarget {
	return domain.LoadTarget{Reference: ref, FallbackReference: AvatarPlaceholder}
}

// svgDataURI percent-encodes svg the way encodeURIComponent does, so the URI
// is safe inside an src attribute.
func svgDataURI(svg string) string {
	escaped := url.QueryEscape(svg)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return svgDataPrefix + escaped
}
