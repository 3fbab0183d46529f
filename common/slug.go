package common

import (
	"errors"
	"regexp"
	"strings"
)

// Plans are shared by URL, and the slug comes from a student-entered
// emphasis title. Cap the length so links stay readable; the plan service
// layers numeric suffixes on top for uniqueness.
const slugMaxLen = 60

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify turns an emphasis title into a URL slug, using fallback when the
// title carries no usable characters.
func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := strings.Trim(nonSlugChars.ReplaceAllString(lower, "-"), "-")
	if len(slug) <= slugMaxLen {
		return slug
	}

	// Cut at a word boundary so the slug never ends mid-word.
	cut := slug[:slugMaxLen]
	if i := strings.LastIndex(cut, "-"); i > 0 {
		cut = cut[:i]
	}
	return strings.Trim(cut, "-")
}
