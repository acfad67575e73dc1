package site

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/post"
	"github.com/starford/raido/internal/render"
	"github.com/starford/raido/internal/storage"
)

// Build performs a full static site generation pass. It is deterministic:
// the same content set always produces byte-identical output (no build
// timestamps, stable ordering everywhere), so rebuilding after editing one
// post leaves every unaffected page unchanged.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()

	all, err := b.load()
	if err != nil {
		return nil, err
	}

	published := make([]*post.Post, 0, len(all))
	drafts := 0
	for _, p := range all {
		if p.Published() {
			published = append(published, p)
		} else {
			drafts++
		}
	}
	post.ByDatetimeDesc(published)

	featured := make([]*post.Post, 0)
	for _, p := range published {
		if p.Featured {
			featured = append(featured, p)
		}
	}

	tagGroups, byTag := groupTags(published)

	if err := os.MkdirAll(b.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("site: create output dir: %w", err)
	}

	pages := 0
	count := func() { pages++ }

	// Post pages render concurrently; everything else is cheap enough to
	// stay sequential.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, p := range published {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return b.writePostPage(p)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	pages += len(published)

	if err := b.writeIndexPages(published, featured, count); err != nil {
		return nil, err
	}
	for _, tg := range tagGroups {
		if err := b.writeTagPage(tg.Tag, byTag[tg.Tag]); err != nil {
			return nil, err
		}
		count()
	}
	if err := b.writeTagsPage(tagGroups); err != nil {
		return nil, err
	}
	count()
	if err := b.writeNotFoundPage(); err != nil {
		return nil, err
	}
	count()

	if err := b.writeFeed(published); err != nil {
		return nil, err
	}
	if err := b.writeSitemap(published, tagGroups); err != nil {
		return nil, err
	}

	if b.opts.StaticDir != "" {
		if _, err := os.Stat(b.opts.StaticDir); err == nil {
			if err := storage.CopyDir(b.opts.StaticDir, b.opts.OutputDir); err != nil {
				return nil, fmt.Errorf("site: copy static assets: %w", err)
			}
		}
	}

	rep := &Report{
		Posts:    len(published),
		Drafts:   drafts,
		Pages:    pages,
		Tags:     len(tagGroups),
		Duration: time.Since(start),
	}
	b.logger.Info("site: build complete",
		slog.Int("posts", rep.Posts),
		slog.Int("drafts", rep.Drafts),
		slog.Int("pages", rep.Pages),
		slog.Int("tags", rep.Tags),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

// writePage renders a page template into outputDir/relPath atomically.
func (b *Builder) writePage(relPath, tmpl string, data any) error {
	var buf bytes.Buffer
	if err := b.r.Page(&buf, tmpl, data); err != nil {
		return err
	}
	out := filepath.Join(b.opts.OutputDir, relPath)
	if err := storage.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return err
	}
	b.logger.Debug("site: wrote page", slog.String("path", relPath))
	return nil
}

func (b *Builder) writePostPage(p *post.Post) error {
	html, err := b.r.Markdown(p.Body)
	if err != nil {
		return fmt.Errorf("site: render %s: %w", p.Path, err)
	}
	return b.writePage(filepath.Join("posts", p.Slug, "index.html"), "post", render.PostData{
		Site:       b.opts.Site,
		Post:       p,
		HTML:       html,
		LiveReload: b.opts.LiveReload,
	})
}

// writeIndexPages paginates the published listing: page 1 is /index.html,
// page N>1 is /page/N/index.html.
func (b *Builder) writeIndexPages(published, featured []*post.Post, count func()) error {
	perPage := b.opts.PostsPerPage
	totalPages := (len(published) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	pageURL := func(n int) string {
		if n <= 1 {
			return "/"
		}
		return fmt.Sprintf("/page/%d/", n)
	}

	for page := 1; page <= totalPages; page++ {
		lo := (page - 1) * perPage
		hi := min(lo+perPage, len(published))

		data := render.IndexData{
			Site:       b.opts.Site,
			Posts:      published[lo:hi],
			Page:       page,
			TotalPages: totalPages,
			LiveReload: b.opts.LiveReload,
		}
		// Featured posts only decorate the first page.
		if page == 1 {
			data.Featured = featured
		}
		if page > 1 {
			data.PrevURL = pageURL(page - 1)
		}
		if page < totalPages {
			data.NextURL = pageURL(page + 1)
		}

		rel := "index.html"
		if page > 1 {
			rel = filepath.Join("page", fmt.Sprintf("%d", page), "index.html")
		}
		if err := b.writePage(rel, "index", data); err != nil {
			return err
		}
		count()
	}
	return nil
}

func (b *Builder) writeTagPage(tag string, posts []*post.Post) error {
	return b.writePage(filepath.Join("tags", tag, "index.html"), "tag", render.TagData{
		Site:       b.opts.Site,
		Tag:        tag,
		Posts:      posts,
		LiveReload: b.opts.LiveReload,
	})
}

func (b *Builder) writeTagsPage(groups []render.TagGroup) error {
	return b.writePage(filepath.Join("tags", "index.html"), "tags", render.TagsData{
		Site:       b.opts.Site,
		Tags:       groups,
		LiveReload: b.opts.LiveReload,
	})
}

func (b *Builder) writeNotFoundPage() error {
	return b.writePage("404.html", "404", render.NotFoundData{
		Site:       b.opts.Site,
		LiveReload: b.opts.LiveReload,
	})
}

func (b *Builder) writeFeed(published []*post.Post) error {
	var buf bytes.Buffer
	if err := b.r.Feed(&buf, b.opts.Site, published); err != nil {
		return err
	}
	return storage.WriteFileAtomic(filepath.Join(b.opts.OutputDir, "rss.xml"), buf.Bytes())
}

func (b *Builder) writeSitemap(published []*post.Post, groups []render.TagGroup) error {
	var buf bytes.Buffer
	if err := b.r.Sitemap(&buf, b.opts.Site, published, groups); err != nil {
		return err
	}
	return storage.WriteFileAtomic(filepath.Join(b.opts.OutputDir, "sitemap.xml"), buf.Bytes())
}
