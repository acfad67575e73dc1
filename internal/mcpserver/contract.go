package mcpserver

// PostFormatContract describes the canonical markdown post format that
// LLM consumers should follow when creating posts.
const PostFormatContract = `# Raido Post Format Contract

Every markdown post MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title         # REQUIRED
author: Author Name                 # REQUIRED
datetime: 2025-01-15T09:30:00Z      # REQUIRED - ISO-8601 date or datetime
slug: human-readable-title          # OPTIONAL - derived from file name if absent
featured: false                     # OPTIONAL - default false
draft: true                         # OPTIONAL - default false; drafts never publish
tags:                               # OPTIONAL - YAML list
  - tag-one
description: One-sentence summary.  # REQUIRED - used for listings, SEO, RSS
---

Body text in standard Markdown (GFM: tables, strikethrough, autolinks).
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory for publishable posts.** The ` + "```" + `---` + "```" + ` fences
   must be the first thing in the file (no leading blank lines).
2. **title, author, datetime, description are required.** A post missing any of
   them fails the build.
3. **Slugs** are lowercase, kebab-case (e.g. ` + "`" + `my-first-post` + "`" + `) and unique across
   the content set. Duplicate slugs fail the build.
4. **Tags** are lowercase, kebab-case. Authoring order does not matter; output
   ordering is always deterministic.
5. **Drafts** (` + "`" + `draft: true` + "`" + `) are kept in the content directory but never appear
   in listings, tag pages, feeds, or the sitemap.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.
`
