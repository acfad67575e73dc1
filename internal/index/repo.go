package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Path        string
	Slug        string
	Title       string
	Author      string
	Description string
	Datetime    time.Time
	Featured    bool
	Draft       bool
	Tags        []string
	Checksum    string
	UpdatedAt   time.Time
}

// TagCount is one entry of the tag taxonomy: a tag and the number of
// published posts carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const postColumns = `path, slug, title, author, description, datetime, featured, draft, tags, checksum, updated_at`

// UpsertPost inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) UpsertPost(row PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)

	_, err = tx.Exec(`
		INSERT INTO posts (path, slug, title, author, description, datetime, featured, draft, tags, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			slug        = excluded.slug,
			title       = excluded.title,
			author      = excluded.author,
			description = excluded.description,
			datetime    = excluded.datetime,
			featured    = excluded.featured,
			draft       = excluded.draft,
			tags        = excluded.tags,
			checksum    = excluded.checksum,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, row.Path, row.Slug, row.Title, row.Author, row.Description, row.Datetime,
		row.Featured, row.Draft, string(tagsJSON), row.Checksum, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when the sqlite_fts5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Slug, row.Title, body, row.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM posts WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a post, or empty string if
// the post is not indexed. Other query failures are surfaced.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetBySlug returns the post with the given slug. Drafts are invisible
// unless includeDrafts is set; a missing slug yields apperr.ErrNotFound.
func (db *DB) GetBySlug(slug string, includeDrafts bool) (*PostRow, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`
	if !includeDrafts {
		q += ` AND draft = 0`
	}
	row := db.conn.QueryRow(q, slug)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: get by slug: %w", err)
	}
	return p, nil
}

// ListPublished returns non-draft posts sorted by datetime descending, with
// optional tag filter and pagination. The second return value is the total
// count before pagination.
func (db *DB) ListPublished(limit, offset int, tag string) ([]PostRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := `draft = 0`
	args := []any{}
	if tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM posts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + where +
		` ORDER BY datetime DESC, slug ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	out, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Featured returns non-draft featured posts, newest first.
func (db *DB) Featured(limit int) ([]PostRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(`SELECT `+postColumns+` FROM posts
		WHERE draft = 0 AND featured = 1
		ORDER BY datetime DESC, slug ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: featured: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// Tags returns the tag taxonomy over published posts, ordered by count
// descending then tag ascending.
func (db *DB) Tags() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT tags FROM posts WHERE draft = 0`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, t := range tags {
			counts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TagCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TagCount{Tag: t, Count: c})
	}
	sortTagCounts(out)
	return out, nil
}

// DuplicateSlugs returns every slug used by more than one post.
func (db *DB) DuplicateSlugs() ([]string, error) {
	rows, err := db.conn.Query(`SELECT slug FROM posts GROUP BY slug HAVING COUNT(*) > 1 ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("index: duplicate slugs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed post path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (*PostRow, error) {
	var (
		p        PostRow
		tagsJSON string
		dt       sql.NullTime
	)
	if err := r.Scan(&p.Path, &p.Slug, &p.Title, &p.Author, &p.Description,
		&dt, &p.Featured, &p.Draft, &tagsJSON, &p.Checksum, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if dt.Valid {
		p.Datetime = dt.Time
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]PostRow, error) {
	var out []PostRow
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func sortTagCounts(tc []TagCount) {
	sort.Slice(tc, func(i, j int) bool {
		if tc[i].Count != tc[j].Count {
			return tc[i].Count > tc[j].Count
		}
		return tc[i].Tag < tc[j].Tag
	})
}
