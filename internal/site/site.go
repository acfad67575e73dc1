// Package site orchestrates static site generation: it loads the content
// set, enforces the content contract, and renders pages, feeds, and the
// sitemap into the output directory.
package site

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/starford/raido/internal/post"
	"github.com/starford/raido/internal/render"
	"github.com/starford/raido/internal/storage"
)

// Options configures a Builder.
type Options struct {
	Site         render.SiteMeta
	OutputDir    string
	StaticDir    string // optional; copied verbatim into the output root
	PostsPerPage int
	LiveReload   bool // inject the reload listener into generated pages
}

// Builder renders the content set into a static site.
type Builder struct {
	store  storage.Provider
	r      *render.Renderer
	opts   Options
	logger *slog.Logger
}

// New creates a Builder.
func New(store storage.Provider, opts Options, logger *slog.Logger) (*Builder, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("site: output dir is required")
	}
	if opts.PostsPerPage <= 0 {
		opts.PostsPerPage = 10
	}
	r, err := render.New()
	if err != nil {
		return nil, err
	}
	return &Builder{store: store, r: r, opts: opts, logger: logger}, nil
}

// Report summarises one build.
type Report struct {
	Posts    int           `json:"posts"`
	Drafts   int           `json:"drafts"`
	Pages    int           `json:"pages"`
	Tags     int           `json:"tags"`
	Duration time.Duration `json:"duration"`
}

// Issue is one content-contract violation found while loading the content set.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ContentError aggregates every Issue found in a load pass, so that a
// single build reports all broken files instead of the first one.
type ContentError struct {
	Issues []Issue
}

func (e *ContentError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "site: %d content issue(s):", len(e.Issues))
	for _, is := range e.Issues {
		fmt.Fprintf(&b, "\n  %s: %s", is.Path, is.Message)
	}
	return b.String()
}

// load reads and parses every markdown file under the content root,
// validates each post, and enforces slug uniqueness. All violations are
// collected into a single ContentError.
func (b *Builder) load() ([]*post.Post, error) {
	infos, err := b.store.List("")
	if err != nil {
		return nil, err
	}
	// Stable input order regardless of directory walk quirks.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	var (
		posts  []*post.Post
		issues []Issue
	)
	bySlug := make(map[string]string, len(infos))

	for _, fi := range infos {
		data, err := b.store.Read(fi.Path)
		if err != nil {
			issues = append(issues, Issue{Path: fi.Path, Message: err.Error()})
			continue
		}
		p, err := post.Parse(fi.Path, data)
		if err != nil {
			issues = append(issues, Issue{Path: fi.Path, Message: err.Error()})
			continue
		}
		// Frontmatter may omit the author; the site author stands in.
		if p.Author == "" {
			p.Author = b.opts.Site.Author
		}
		if err := p.Validate(); err != nil {
			issues = append(issues, Issue{Path: fi.Path, Message: err.Error()})
			continue
		}
		if prev, dup := bySlug[p.Slug]; dup {
			issues = append(issues, Issue{
				Path:    fi.Path,
				Message: fmt.Sprintf("duplicate slug %q (also used by %s)", p.Slug, prev),
			})
			continue
		}
		bySlug[p.Slug] = fi.Path
		posts = append(posts, p)
	}

	if len(issues) > 0 {
		return nil, &ContentError{Issues: issues}
	}
	return posts, nil
}

// Check runs the content lint without writing any output. It returns the
// full issue list; an empty list means the content set is clean.
func (b *Builder) Check() ([]Issue, error) {
	_, err := b.load()
	if err != nil {
		var ce *ContentError
		if errors.As(err, &ce) {
			return ce.Issues, nil
		}
		return nil, err
	}
	return nil, nil
}

// groupTags builds the tag taxonomy over the given (published) posts.
// Groups are sorted by count descending, then tag ascending; posts within
// a group stay in datetime-descending order.
func groupTags(posts []*post.Post) ([]render.TagGroup, map[string][]*post.Post) {
	byTag := make(map[string][]*post.Post)
	for _, p := range posts {
		for _, t := range p.Tags {
			byTag[t] = append(byTag[t], p)
		}
	}
	groups := make([]render.TagGroup, 0, len(byTag))
	for t, ps := range byTag {
		groups = append(groups, render.TagGroup{Tag: t, Count: len(ps)})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Tag < groups[j].Tag
	})
	return groups, byTag
}
