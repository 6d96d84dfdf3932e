package config

import "context"

// CatalogLoader resolves the effective catalog, including environment
// overrides.
type CatalogLoader interface {
	Load(ctx context.Context) (Catalog, error)
}

type CatalogValidator interface {
	Validate(ctx context.Context, catalog Catalog) error
}
