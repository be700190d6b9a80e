package idgen

import (
	"regexp"
	"strings"
)

// maxSlugLength caps the slug part of file names.
const maxSlugLength = 50

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title or name to a lowercase, hyphen-separated file-name fragment.
// The result is never empty.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonAlphanumericRegex.ReplaceAllString(slug, " ")
	slug = strings.Join(strings.Fields(slug), "-")

	if len(slug) > maxSlugLength {
		// Try to truncate at word boundary
		truncated := slug[:maxSlugLength]
		if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLength/2 {
			truncated = truncated[:lastHyphen]
		}
		slug = strings.Trim(truncated, "-")
	}

	if slug == "" {
		return "untitled"
	}
	return slug
}
