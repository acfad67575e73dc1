package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/post"
)

func testSite() SiteMeta {
	return SiteMeta{
		Title:       "Test Blog",
		Author:      "Sam",
		Description: "A test blog",
		BaseURL:     "https://example.com",
	}
}

func testPost(slug string, day int) *post.Post {
	return &post.Post{
		Path:        slug + ".md",
		Slug:        slug,
		Title:       "Title " + slug,
		Author:      "Sam",
		Description: "desc " + slug,
		Datetime:    time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Body:        "body",
	}
}

func TestMarkdown_GFM(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	html, err := r.Markdown("# Heading\n\nSome **bold** text and a [link](https://example.com).\n\n- one\n- two\n")
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	out := string(html)
	for _, want := range []string{"<h1", "<strong>bold</strong>", `<a href="https://example.com"`, "<li>one</li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdown_Table(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	html, err := r.Markdown("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.Contains(string(html), "<table>") {
		t.Errorf("GFM table not rendered:\n%s", html)
	}
}

func TestPage_Index(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	err = r.Page(&buf, "index", IndexData{
		Site:       testSite(),
		Posts:      []*post.Post{testPost("hello", 1)},
		Page:       1,
		TotalPages: 2,
		NextURL:    "/page/2/",
	})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Title hello") {
		t.Errorf("post title missing:\n%s", out)
	}
	if !strings.Contains(out, "/posts/hello/") {
		t.Errorf("post link missing:\n%s", out)
	}
	if !strings.Contains(out, "/page/2/") {
		t.Errorf("next page link missing:\n%s", out)
	}
	if strings.Contains(out, "EventSource") {
		t.Error("live reload script present without LiveReload")
	}
}

func TestPage_LiveReloadScript(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	err = r.Page(&buf, "404", NotFoundData{Site: testSite(), LiveReload: true})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if !strings.Contains(buf.String(), "EventSource") {
		t.Error("live reload script missing with LiveReload set")
	}
}

func TestPage_Post(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	html, err := r.Markdown("**bold**")
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	var buf bytes.Buffer
	err = r.Page(&buf, "post", PostData{Site: testSite(), Post: testPost("p", 1), HTML: html})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("rendered markdown not injected:\n%s", out)
	}
	if !strings.Contains(out, "Title p") {
		t.Errorf("post title missing:\n%s", out)
	}
}

func TestPage_Unknown(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Page(&bytes.Buffer{}, "nope", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestFeed(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	posts := []*post.Post{testPost("newest", 2), testPost("older", 1)}
	if err := r.Feed(&buf, testSite(), posts); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<rss version="2.0">`,
		"<title>Test Blog</title>",
		"https://example.com/posts/newest/",
		"https://example.com/posts/older/",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q:\n%s", want, out)
		}
	}
	// Newest first.
	if strings.Index(out, "newest") > strings.Index(out, "older") {
		t.Error("feed items out of order")
	}
}

func TestSitemap(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	posts := []*post.Post{testPost("p", 1)}
	tags := []TagGroup{{Tag: "go", Count: 1}}
	if err := r.Sitemap(&buf, testSite(), posts, tags); err != nil {
		t.Fatalf("Sitemap: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"http://www.sitemaps.org/schemas/sitemap/0.9",
		"<loc>https://example.com/</loc>",
		"<loc>https://example.com/tags/</loc>",
		"<loc>https://example.com/tags/go/</loc>",
		"<loc>https://example.com/posts/p/</loc>",
		"<lastmod>2024-01-01</lastmod>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("sitemap missing %q:\n%s", want, out)
		}
	}
}
