package index

import (
	"log/slog"
	"time"

	"github.com/starford/raido/internal/post"
	"github.com/starford/raido/internal/storage"
)

// Sync walks the content directory and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// Files that fail to parse are skipped with a warning; the strict
// enforcement of the content contract belongs to the build, not the index.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = struct{}{}

		if checksums[fi.Path] == fi.Checksum {
			continue
		}

		data, err := store.Read(fi.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, fi.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", fi.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePost(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	p, err := post.Parse(path, data)
	if err != nil {
		return err
	}
	return db.UpsertPost(PostRow{
		Path:        p.Path,
		Slug:        p.Slug,
		Title:       p.Title,
		Author:      p.Author,
		Description: p.Description,
		Datetime:    p.Datetime,
		Featured:    p.Featured,
		Draft:       p.Draft,
		Tags:        p.Tags,
		Checksum:    p.Checksum,
		UpdatedAt:   time.Now(),
	}, p.Body)
}
