package catalog

import "context"

// Repository is the lookup surface the packaging pipeline depends on.
type Repository interface {
	// Company returns the company record, or nil when the id is unknown.
	Company(ctx context.Context, id int64) (*Company, error)
	// Content returns the content record, or nil when the id is unknown.
	Content(ctx context.Context, id int64) (*Content, error)
	// ResolveContents resolves every id, returning resolved records in input
	// order plus the ids that could not be found. It never fails partially:
	// callers decide whether missing ids abort the operation.
	ResolveContents(ctx context.Context, ids []int64) ([]*Content, []int64, error)
	// Advertising returns the advertising record, or nil when the id is unknown.
	Advertising(ctx context.Context, id int64) (*Advertising, error)
}
