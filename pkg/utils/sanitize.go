package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup (including script bodies) from free-text
// input before it is persisted. Transaction descriptions may later be
// rendered in dashboards, so they must never carry executable content.
// The result is stored as plain text, hence the entity unescape.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
