package index

// PostIndex defines the interface for post indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type PostIndex interface {
	UpsertPost(row PostRow, body string) error
	DeletePost(path string) error
	GetChecksum(path string) (string, error)
	GetBySlug(slug string, includeDrafts bool) (*PostRow, error)
	ListPublished(limit, offset int, tag string) ([]PostRow, int, error)
	Featured(limit int) ([]PostRow, error)
	Tags() ([]TagCount, error)
	DuplicateSlugs() ([]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies PostIndex at compile time.
var _ PostIndex = (*DB)(nil)
