package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"

	"github.com/starford/raido/internal/post"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the page templates; each is parsed together with base.html.
var pageNames = []string{"index", "post", "tag", "tags", "404"}

// Renderer holds the parsed templates and the markdown converter.
type Renderer struct {
	md    goldmark.Markdown
	pages map[string]*template.Template
}

// New parses the embedded templates and constructs a Renderer.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"fmtDate": func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"isoDate": func(t time.Time) string { return t.Format(time.RFC3339) },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("render: parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{md: newMarkdown(), pages: pages}, nil
}

// Page executes the named page template with data.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("render: unknown page template %q", name)
	}
	if err := t.ExecuteTemplate(w, "base.html", data); err != nil {
		return fmt.Errorf("render: execute %s: %w", name, err)
	}
	return nil
}

// SiteMeta is the site-level metadata injected into every page.
type SiteMeta struct {
	Title       string
	Author      string
	Description string
	BaseURL     string
}

// TagGroup is one tag with its published-post count.
type TagGroup struct {
	Tag   string
	Count int
}

// IndexData renders one page of the published listing.
type IndexData struct {
	Site       SiteMeta
	Posts      []*post.Post
	Featured   []*post.Post
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
	LiveReload bool
}

// PostData renders a single post page.
type PostData struct {
	Site       SiteMeta
	Post       *post.Post
	HTML       template.HTML
	LiveReload bool
}

// TagData renders the listing for one tag.
type TagData struct {
	Site       SiteMeta
	Tag        string
	Posts      []*post.Post
	LiveReload bool
}

// TagsData renders the tag overview page.
type TagsData struct {
	Site       SiteMeta
	Tags       []TagGroup
	LiveReload bool
}

// NotFoundData renders the 404 page.
type NotFoundData struct {
	Site       SiteMeta
	LiveReload bool
}
