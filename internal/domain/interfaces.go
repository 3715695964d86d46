package domain

import "context"

// CatalogClient issues requests against the remote catalog API
type CatalogClient interface {
	// ListEntities returns a page of a collection, or search results when search is non-empty
	ListEntities(ctx context.Context, t EntityType, page int, search string) (ListResult, error)

	// GetEntity returns the full record
	GetEntity(ctx context.Context, t EntityType, id string) (*Detail, error)

	// GetEntityByReference returns the record a relation points at
	GetEntityByReference(ctx context.Context, ref Reference) (*Detail, error)
}

// NameResolver turns references into display names
type NameResolver interface {
	Resolve(ctx context.Context, ref Reference) (string, error)
	ResolveName(ctx context.Context, raw string) (string, error)
}
