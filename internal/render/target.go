package render

import (
	"net/url"
	"strings"

	"github.com/corp-qr-hub/internal/domain/entry"
)

// PublicPath is the route prefix of the per-entry public page.
const PublicPath = "/p/"

// PublicURL is the stable address of e's public page under baseURL.
func PublicURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + PublicPath + url.PathEscape(id)
}

// EncodeTarget is the text the code of e encodes. Literal kinds encode their
// text as is; page kinds encode their public page URL instead of the stored
// placeholder.
func EncodeTarget(e entry.Entry, baseURL string) string {
	if e.Payload == nil {
		return ""
	}
	if e.Kind().HasPage() {
		return PublicURL(baseURL, e.ID)
	}
	return e.Payload.EncodeText()
}
