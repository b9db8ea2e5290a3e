package repository

import (
	"context"

	"github.com/na4oman/samsung-shop/models"
)

// ProductRepo is the catalog store. Adapters return *StoreError for store
// failures so callers can decide whether a retry can help.
type ProductRepo interface {
	// List returns the whole catalog; used to seed duplicate detection.
	List(ctx context.Context) ([]models.Product, error)
	Find(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, rec models.ProductRecord) (*models.Product, error)
	Update(ctx context.Context, id string, rec models.ProductRecord) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

// ImportRunRepo stores the audit trail of executed import batches.
type ImportRunRepo interface {
	Create(ctx context.Context, run *models.ImportRun) error
	FindAll(ctx context.Context, page, limit int) ([]models.ImportRun, int64, error)
}

// ListFilter narrows and orders a catalog listing. Zero values mean "no constraint".
type ListFilter struct {
	Category string
	Color    string
	Query    string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Skip     int
	Limit    int
}

// Supported sort keys.
const (
	SortPriceAsc      = "price_asc"
	SortPriceDesc     = "price_desc"
	SortNameAsc       = "name_asc"
	SortNameDesc      = "name_desc"
	SortCreatedAsc    = "created_at_asc"
	SortCreatedDesc   = "created_at_desc"
	DefaultSortOption = SortCreatedDesc
)

// IsSupportedSort reports whether s is a sort key adapters understand.
func IsSupportedSort(s string) bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortCreatedAsc, SortCreatedDesc:
		return true
	default:
		return false
	}
}
