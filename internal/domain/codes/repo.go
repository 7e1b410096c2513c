package codes

import "context"

// Source supplies the raw code collection to the index. Implementations own
// the storage layout (chunked files, a single file, test fixtures); the
// index-building logic is agnostic to it.
type Source interface {
	Load(ctx context.Context) ([]*Code, error)
	// Description identifies the source layout for stats reporting.
	Description() string
}
