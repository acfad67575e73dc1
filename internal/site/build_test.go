package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/render"
	"github.com/starford/raido/internal/scaffold"
	"github.com/starford/raido/internal/testutil"
)

func postSource(slug string, day int, draft, featured bool, tags []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: Title %s\nauthor: Sam\ndatetime: 2024-01-%02d\nslug: %s\n", slug, day, slug)
	fmt.Fprintf(&b, "draft: %v\nfeatured: %v\n", draft, featured)
	if len(tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(&b, "description: About %s\n---\n\nBody of %s.\n", slug, slug)
	return b.String()
}

func testBuilder(t *testing.T) (string, string, *Builder) {
	t.Helper()
	contentDir, store := testutil.TestContent(t)
	outputDir := t.TempDir()
	b, err := New(store, Options{
		Site: render.SiteMeta{
			Title:       "Test Blog",
			Author:      "Sam",
			Description: "desc",
			BaseURL:     "https://example.com",
		},
		OutputDir:    outputDir,
		PostsPerPage: 2,
	}, slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return contentDir, outputDir, b
}

func TestBuild_PublishesAllButDrafts(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "one.md", postSource("one", 1, false, false, []string{"go"}))
	testutil.WritePost(t, contentDir, "two.md", postSource("two", 2, false, true, []string{"go", "life"}))
	testutil.WritePost(t, contentDir, "hidden.md", postSource("hidden", 3, true, false, nil))

	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.Posts != 2 {
		t.Errorf("posts = %d, want 2", rep.Posts)
	}
	if rep.Drafts != 1 {
		t.Errorf("drafts = %d, want 1", rep.Drafts)
	}

	for _, p := range []string{
		"index.html",
		"posts/one/index.html",
		"posts/two/index.html",
		"tags/go/index.html",
		"tags/life/index.html",
		"tags/index.html",
		"404.html",
		"rss.xml",
		"sitemap.xml",
	} {
		if _, err := os.Stat(filepath.Join(outputDir, p)); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outputDir, "posts", "hidden")); err == nil {
		t.Error("draft post page was generated")
	}
}

func TestBuild_DraftExcludedFromFeedsAndListings(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "pub.md", postSource("pub", 1, false, false, []string{"go"}))
	testutil.WritePost(t, contentDir, "hidden.md", postSource("hidden", 2, true, false, []string{"go"}))

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, p := range []string{"index.html", "rss.xml", "sitemap.xml", filepath.Join("tags", "go", "index.html")} {
		data, err := os.ReadFile(filepath.Join(outputDir, p))
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if strings.Contains(string(data), "hidden") {
			t.Errorf("%s references the draft", p)
		}
	}
}

func TestBuild_Pagination(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	// PostsPerPage is 2; five posts need three pages.
	for i := 1; i <= 5; i++ {
		slug := fmt.Sprintf("post-%d", i)
		testutil.WritePost(t, contentDir, slug+".md", postSource(slug, i, false, false, nil))
	}

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(outputDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	// Newest posts on page 1.
	if !strings.Contains(string(first), "post-5") || !strings.Contains(string(first), "post-4") {
		t.Error("page 1 missing newest posts")
	}
	if strings.Contains(string(first), `href="/posts/post-3/"`) {
		t.Error("page 1 lists a post that belongs to page 2")
	}
	if !strings.Contains(string(first), "/page/2/") {
		t.Error("page 1 missing next link")
	}

	second, err := os.ReadFile(filepath.Join(outputDir, "page", "2", "index.html"))
	if err != nil {
		t.Fatalf("page 2 missing: %v", err)
	}
	if !strings.Contains(string(second), "post-3") {
		t.Error("page 2 missing post-3")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "page", "3", "index.html")); err != nil {
		t.Errorf("page 3 missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "page", "4", "index.html")); err == nil {
		t.Error("unexpected page 4")
	}
}

func TestBuild_DuplicateSlugFails(t *testing.T) {
	contentDir, _, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "a.md", postSource("same", 1, false, false, nil))
	testutil.WritePost(t, contentDir, "b.md", postSource("same", 2, false, false, nil))

	_, err := b.Build(context.Background())
	if err == nil {
		t.Fatal("expected build failure on duplicate slug")
	}
	var ce *ContentError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContentError, got %T: %v", err, err)
	}
	if len(ce.Issues) != 1 || !strings.Contains(ce.Issues[0].Message, "duplicate slug") {
		t.Errorf("issues = %+v", ce.Issues)
	}
}

func TestBuild_CollectsAllIssues(t *testing.T) {
	contentDir, _, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "no-title.md", "---\nauthor: Sam\ndatetime: 2024-01-01\ndescription: d\n---\nbody\n")
	testutil.WritePost(t, contentDir, "bad-date.md", "---\ntitle: T\nauthor: Sam\ndatetime: not-a-date\ndescription: d\n---\nbody\n")

	_, err := b.Build(context.Background())
	var ce *ContentError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContentError, got %v", err)
	}
	if len(ce.Issues) != 2 {
		t.Errorf("issues = %+v, want one per broken file", ce.Issues)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "one.md", postSource("one", 1, false, false, []string{"go"}))
	testutil.WritePost(t, contentDir, "two.md", postSource("two", 2, false, true, []string{"go"}))

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("first build: %v", err)
	}

	snapshot := func() map[string]string {
		out := make(map[string]string)
		err := filepath.WalkDir(outputDir, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(outputDir, p)
			out[rel] = string(data)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	first := snapshot()
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("second build: %v", err)
	}
	second := snapshot()

	if len(first) != len(second) {
		t.Fatalf("file count changed: %d vs %d", len(first), len(second))
	}
	for p, data := range first {
		if second[p] != data {
			t.Errorf("output %s differs between identical builds", p)
		}
	}
}

func TestBuild_StaticAssetsCopied(t *testing.T) {
	contentDir, store := testutil.TestContent(t)
	outputDir := t.TempDir()
	staticDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(staticDir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "assets", "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	testutil.WritePost(t, contentDir, "one.md", postSource("one", 1, false, false, nil))

	b, err := New(store, Options{
		Site:      render.SiteMeta{Title: "T", Author: "A", Description: "D", BaseURL: "https://example.com"},
		OutputDir: outputDir,
		StaticDir: staticDir,
	}, slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "assets", "style.css")); err != nil {
		t.Errorf("static asset not copied: %v", err)
	}
}

func TestBuild_ScaffoldedDraftBuilds(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "live.md", postSource("live", 1, false, false, nil))

	filename, content, err := scaffold.NewPost("My New Post", "Sam", time.Now())
	if err != nil {
		t.Fatalf("NewPost: %v", err)
	}
	testutil.WritePost(t, contentDir, filename, string(content))

	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("a fresh scaffold must not break the build: %v", err)
	}
	if rep.Posts != 1 || rep.Drafts != 1 {
		t.Errorf("report = %+v, want 1 published and 1 draft", rep)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "posts", "my-new-post")); err == nil {
		t.Error("scaffolded draft was published")
	}
}

func TestBuild_HostileTagsSanitized(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "tagged.md",
		"---\ntitle: Tagged\nauthor: Sam\ndatetime: 2024-01-02\nslug: tagged\n"+
			"tags: ['..', '../..', 'Go Stuff']\ndescription: d\n---\nbody\n")

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Path-traversal tags are dropped; the site index is still the listing.
	idx, err := os.ReadFile(filepath.Join(outputDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(idx), "#..") {
		t.Error("tag page overwrote the site index")
	}
	if !strings.Contains(string(idx), "Tagged") {
		t.Error("index no longer lists the post")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(outputDir), "index.html")); err == nil {
		t.Error("tag page escaped the output dir")
	}

	// Off-contract tags are slugified, and the page matches the links.
	if _, err := os.Stat(filepath.Join(outputDir, "tags", "go-stuff", "index.html")); err != nil {
		t.Errorf("slugified tag page missing: %v", err)
	}
	sm, err := os.ReadFile(filepath.Join(outputDir, "sitemap.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(sm), "/tags/go-stuff/") {
		t.Error("sitemap does not use the slugified tag")
	}
}

func TestBuild_AuthorFallsBackToSiteAuthor(t *testing.T) {
	contentDir, outputDir, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "anon.md",
		"---\ntitle: No Author\ndatetime: 2024-01-01\nslug: no-author\ndescription: d\n---\nbody\n")

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outputDir, "posts", "no-author", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Sam") {
		t.Error("site author not used for authorless post")
	}
}

func TestCheck(t *testing.T) {
	contentDir, _, b := testBuilder(t)
	testutil.WritePost(t, contentDir, "good.md", postSource("good", 1, false, false, nil))
	testutil.WritePost(t, contentDir, "bad.md", "---\ntitle: Bad\n---\nbody\n")

	issues, err := b.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(issues) != 1 || issues[0].Path != "bad.md" {
		t.Errorf("issues = %+v", issues)
	}

	// Check never writes output.
	if _, statErr := os.Stat(filepath.Join(b.opts.OutputDir, "index.html")); statErr == nil {
		t.Error("Check produced output files")
	}
}
