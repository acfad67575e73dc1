// Package post defines the blog post domain model and frontmatter parsing.
package post

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// slugRe matches URL-safe slugs: lowercase alphanumerics separated by hyphens.
var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Post represents a parsed markdown post from the content directory.
type Post struct {
	Path        string    `json:"path"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Datetime    time.Time `json:"datetime"`
	Featured    bool      `json:"featured"`
	Draft       bool      `json:"draft"`
	Tags        []string  `json:"tags"`
	Body        string    `json:"body"`
	Checksum    string    `json:"checksum"`
}

// Validate reports whether the post satisfies the content contract:
// title, author, description, and datetime are required; the slug must be
// URL-safe. Slug uniqueness across the content set is checked by the
// build, not here.
func (p *Post) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Author, validation.Required),
		validation.Field(&p.Description, validation.Required),
		validation.Field(&p.Datetime, validation.Required, validation.By(nonZeroTime)),
		validation.Field(&p.Slug, validation.Required, validation.Match(slugRe)),
		validation.Field(&p.Body, validation.Required),
	)
}

func nonZeroTime(value interface{}) error {
	t, ok := value.(time.Time)
	if !ok || t.IsZero() {
		return fmt.Errorf("must be a valid timestamp")
	}
	return nil
}

// Published reports whether the post belongs in generated output.
func (p *Post) Published() bool {
	return !p.Draft
}

// URL returns the site-relative URL of the post page.
func (p *Post) URL() string {
	return "/posts/" + p.Slug + "/"
}

// Slugify converts an arbitrary string into a URL-safe slug:
// lowercase, alphanumeric runs joined by single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// normalizeTags slugifies, deduplicates, and sorts tags. Tags become URL
// path segments (/tags/{tag}/) and file system paths under the output dir,
// so anything that is not lowercase kebab-case is normalised and a tag
// with no slug characters at all is dropped.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = Slugify(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ByDatetimeDesc sorts posts newest first; ties break on slug so that
// ordering is stable across rebuilds.
func ByDatetimeDesc(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Datetime.Equal(posts[j].Datetime) {
			return posts[i].Datetime.After(posts[j].Datetime)
		}
		return posts[i].Slug < posts[j].Slug
	})
}
