package catalog

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Slugify maps a category name onto a URL-safe slug. It is deterministic and
// idempotent.
func Slugify(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "&", "-and-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Deslugify turns a slug into a display name by title-casing its words. It is
// not an inverse of Slugify.
func Deslugify(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// SlugIndex resolves URL slugs back to the category and subcategory names
// they were built from.
type SlugIndex struct {
	categories    map[string]string
	subcategories map[string]string
}

// NewSlugIndex slugifies every category and subcategory in h once. When two
// names collide on the same slug the alphabetically first one wins.
func NewSlugIndex(h *Hierarchy) *SlugIndex {
	idx := &SlugIndex{
		categories:    make(map[string]string),
		subcategories: make(map[string]string),
	}
	for _, category := range h.Categories() {
		if slug := Slugify(category); slug != "" {
			if _, taken := idx.categories[slug]; !taken {
				idx.categories[slug] = category
			}
		}
		for _, sub := range h.Subcategories(category) {
			if slug := Slugify(sub); slug != "" {
				if _, taken := idx.subcategories[slug]; !taken {
					idx.subcategories[slug] = sub
				}
			}
		}
	}
	return idx
}

// ResolveCategory returns the category name for slug, or ok=false for an
// unknown category.
func (i *SlugIndex) ResolveCategory(slug string) (string, bool) {
	if i == nil {
		return "", false
	}
	name, ok := i.categories[slug]
	return name, ok
}

// ResolveSubcategory returns the subcategory name for slug
func (i *SlugIndex) ResolveSubcategory(slug string) (string, bool) {
	if i == nil {
		return "", false
	}
	name, ok := i.subcategories[slug]
	return name, ok
}
