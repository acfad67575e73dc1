package post

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/checksum"
)

// frontmatter is the YAML metadata block preceding a post body.
// Datetime is kept as a string here because authors write several
// timestamp shapes; parseDatetime normalises them.
type frontmatter struct {
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	Datetime    string   `yaml:"datetime"`
	Slug        string   `yaml:"slug"`
	Featured    bool     `yaml:"featured"`
	Draft       bool     `yaml:"draft"`
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description"`
}

// datetimeLayouts are accepted in order. RFC 3339 first, then the common
// hand-written forms.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse converts raw markdown bytes into a Post. path is the file path
// relative to the content root and seeds the slug when frontmatter omits one.
//
// A file without a frontmatter block parses as body-only: the title falls
// back to the first H1 and required-field enforcement is left to Validate.
// A frontmatter block with invalid YAML is an error; it indicates a broken
// file rather than a plain one.
func Parse(path string, data []byte) (*Post, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("post: parse %s: %w", path, err)
	}

	p := &Post{
		Path:        path,
		Title:       fm.Title,
		Author:      fm.Author,
		Description: fm.Description,
		Featured:    fm.Featured,
		Draft:       fm.Draft,
		Tags:        normalizeTags(fm.Tags),
		Body:        body,
		Checksum:    checksum.Sum(data),
	}

	if p.Title == "" {
		p.Title = firstHeading(body)
	}

	if fm.Datetime != "" {
		t, err := parseDatetime(fm.Datetime)
		if err != nil {
			return nil, fmt.Errorf("post: parse %s: %w", path, err)
		}
		p.Datetime = t
	}

	p.Slug = fm.Slug
	if p.Slug == "" {
		p.Slug = slugFromPath(path)
	}

	return p, nil
}

// splitFrontmatter separates the YAML block (between leading --- delimiters)
// from the markdown body. No leading delimiter means no frontmatter.
func splitFrontmatter(data []byte) (frontmatter, string, error) {
	const delim = "---"
	var fm frontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, "", fmt.Errorf("frontmatter opened but never closed")
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return fm, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return fm, body, nil
}

// parseDatetime tries each accepted layout in order.
func parseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

// slugFromPath derives a slug from the file name, e.g.
// "drafts/My First Post.md" → "my-first-post".
func slugFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return Slugify(base)
}

// firstHeading returns the text of the first H1, or empty string.
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
