// Package render turns parsed posts into HTML pages, feeds, and sitemaps.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// newMarkdown builds the goldmark instance shared by all page renders.
// GFM covers tables, strikethrough, and autolinks; raw HTML is allowed
// because post authors are trusted (single-author content set).
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
}

// Markdown converts a markdown body to HTML.
func (r *Renderer) Markdown(body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark output + trusted authors
}
