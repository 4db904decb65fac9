package task

import (
	"regexp"
	"strings"
)

const maxSlugLength = 50

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug converts a title to a filename-friendly slug.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		truncated := slug[:maxSlugLength]
		if slug[maxSlugLength] != '-' {
			if idx := strings.LastIndex(truncated, "-"); idx > 0 {
				truncated = truncated[:idx]
			}
		}
		slug = strings.TrimRight(truncated, "-")
	}

	return slug
}

// Filename returns the export filename for t: the title slug followed by
// the first eight characters of the ID.
func Filename(t *Task) string {
	id := t.ID
	if len(id) > 8 { //nolint:mnd // short id suffix
		id = id[:8]
	}
	slug := GenerateSlug(t.Title)
	switch {
	case slug == "" && id == "":
		return "task.md"
	case slug == "":
		return id + ".md"
	case id == "":
		return slug + ".md"
	}
	return slug + "-" + id + ".md"
}
