package driven

import (
	"context"
	"errors"
)

// ErrUnknownCollection indicates a browse request named a collection that is
// not part of the mirrored data set.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrInvalidBrowseField indicates a filter or sort column outside the
// collection's schema.
var ErrInvalidBrowseField = errors.New("invalid field for collection")

// BrowseOptions controls a paginated collection read.
type BrowseOptions struct {
	Page      int
	Limit     int
	SortBy    string // Empty selects the collection default.
	SortOrder string // "asc" or "desc"; empty means "desc".
	Search    string // Case-insensitive substring over the collection's searchable columns.
	Filters   map[string]string
}

// BrowseResult is one page of records plus the total match count.
type BrowseResult struct {
	Items      []map[string]any
	TotalItems int
}

// BrowseStore is the generic read port over the mirrored collections. It must
// tolerate reads racing an in-progress sync (eventual consistency).
type BrowseStore interface {
	Browse(ctx context.Context, collection string, opts BrowseOptions) (*BrowseResult, error)

	// Search runs the per-collection substring search across all searchable
	// collections, returning up to limit records per collection keyed by
	// collection name.
	Search(ctx context.Context, query string, limit int) (map[string][]map[string]any, error)
}
