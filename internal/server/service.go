package server

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/post"
)

// PostDetail is the full representation of a post returned by the API.
type PostDetail struct {
	Path        string    `json:"path"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Datetime    time.Time `json:"datetime"`
	Featured    bool      `json:"featured"`
	Draft       bool      `json:"draft"`
	Tags        []string  `json:"tags"`
	Content     string    `json:"content"`
	Checksum    string    `json:"checksum"`
}

// PostListItem is a lightweight item in a list response.
type PostListItem struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Datetime    time.Time `json:"datetime"`
	Featured    bool      `json:"featured"`
	Tags        []string  `json:"tags"`
}

// ContentReader is the slice of storage the service needs.
type ContentReader interface {
	Read(path string) ([]byte, error)
}

// Service backs the JSON API: listings and search come from the index,
// full post content comes from the content directory.
type Service struct {
	store ContentReader
	db    index.PostIndex
}

// NewService creates a new API service.
func NewService(store ContentReader, db index.PostIndex) *Service {
	return &Service{store: store, db: db}
}

// ListPosts returns published posts, newest first, with optional tag filter.
func (s *Service) ListPosts(_ context.Context, limit, offset int, tag string) ([]PostListItem, int, error) {
	rows, total, err := s.db.ListPublished(limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PostListItem, len(rows))
	for i, r := range rows {
		items[i] = PostListItem{
			Slug:        r.Slug,
			Title:       r.Title,
			Description: r.Description,
			Datetime:    r.Datetime,
			Featured:    r.Featured,
			Tags:        nonNilSlice(r.Tags),
		}
	}
	return items, total, nil
}

// GetPost returns one post by slug, drafts included: the API serves the
// author, and drafts are exactly what an author previews.
func (s *Service) GetPost(_ context.Context, slug string) (*PostDetail, error) {
	row, err := s.db.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(row.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	p, err := post.Parse(row.Path, data)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Path:        p.Path,
		Slug:        p.Slug,
		Title:       p.Title,
		Author:      p.Author,
		Description: p.Description,
		Datetime:    p.Datetime,
		Featured:    p.Featured,
		Draft:       p.Draft,
		Tags:        nonNilSlice(p.Tags),
		Content:     string(data),
		Checksum:    p.Checksum,
	}, nil
}

// Tags returns the published tag taxonomy.
func (s *Service) Tags(_ context.Context) ([]index.TagCount, error) {
	return s.db.Tags()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
