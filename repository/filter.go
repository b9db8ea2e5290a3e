package repository

import (
	"sort"
	"strings"

	"github.com/na4oman/samsung-shop/models"
)

// applyFilter filters, sorts and pages an in-memory product slice. Used by
// adapters whose store cannot express the filter natively.
func applyFilter(products []models.Product, f ListFilter) ([]models.Product, int64) {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && string(p.Category) != f.Category {
			continue
		}
		if f.Color != "" && !strings.EqualFold(p.Color, f.Color) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, f.Sort)

	total := int64(len(out))
	if f.Skip > 0 {
		if f.Skip >= len(out) {
			return []models.Product{}, total
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total
}

func matchesQuery(p models.Product, query string) bool {
	for _, field := range []string{p.Name, p.Model, p.PartNumber, p.Description} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func sortProducts(products []models.Product, key string) {
	var less func(a, b models.Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	case SortNameAsc:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortNameDesc:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case SortCreatedAsc:
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		less = func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

// partNumberKey is the normalized form used for uniqueness checks.
func partNumberKey(pn string) string {
	return strings.ToLower(strings.TrimSpace(pn))
}
