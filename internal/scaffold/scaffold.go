// Package scaffold generates frontmatter-complete draft posts for the
// `raido new` command and the MCP create_post tool.
package scaffold

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/starford/raido/internal/post"
)

// postTemplate is the skeleton written for a new draft. Posts start as
// drafts so an accidental `raido build` never publishes a stub. Every
// required field is pre-filled so the fresh draft passes the content
// contract; the description placeholder is replaced by the author.
const postTemplate = `---
title: {{.Title}}
author: {{.Author}}
datetime: {{.Datetime}}
slug: {{.Slug}}
featured: false
draft: true
tags: []
description: Draft of "{{.Title}}".
---

Write your post here.
`

var tmpl = template.Must(template.New("post").Parse(postTemplate))

// Post holds the variables rendered into the scaffold.
type Post struct {
	Title    string
	Author   string
	Datetime string
	Slug     string
}

// NewPost renders the scaffold for a post with the given title and author,
// stamped with now. It returns the file name (slug.md) and the content.
func NewPost(title, author string, now time.Time) (filename string, content []byte, err error) {
	slug := post.Slugify(title)
	if slug == "" {
		return "", nil, fmt.Errorf("scaffold: title %q produces an empty slug", title)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, Post{
		Title:    title,
		Author:   author,
		Datetime: now.Format(time.RFC3339),
		Slug:     slug,
	})
	if err != nil {
		return "", nil, fmt.Errorf("scaffold: render: %w", err)
	}
	return slug + ".md", buf.Bytes(), nil
}
