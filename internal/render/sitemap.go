package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/starford/raido/internal/post"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap writes an XML sitemap covering the landing page, tag pages, and
// every published post.
func (r *Renderer) Sitemap(w io.Writer, site SiteMeta, posts []*post.Post, tags []TagGroup) error {
	base := strings.TrimSuffix(site.BaseURL, "/")
	urls := []sitemapURL{
		{Loc: base + "/"},
		{Loc: base + "/tags/"},
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{Loc: base + "/tags/" + t.Tag + "/"})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     base + p.URL(),
			LastMod: p.Datetime.Format(time.DateOnly),
		})
	}
	sm := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(sm); err != nil {
		return fmt.Errorf("render: sitemap: %w", err)
	}
	return nil
}
