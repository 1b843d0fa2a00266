package medicine

import (
	"context"
)

// CatalogRepository is the read side of the medicine catalog.
type CatalogRepository interface {
	// ListActive returns every medicine with is_active = true, ordered by name.
	ListActive(ctx context.Context) ([]*Medicine, error)
}
