package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/na4oman/samsung-shop/models"
	"go.uber.org/zap"
)

// DuplicateCheckUnavailable is reported instead of conflicts when the catalog
// cannot be read; the record is treated as a potential duplicate.
const DuplicateCheckUnavailable = "Unable to verify duplicates due to database connectivity issues. Product may be a duplicate."

// CatalogReader lists the persisted catalog.
type CatalogReader interface {
	List(ctx context.Context) ([]models.Product, error)
}

type nameModelKey struct {
	name  string
	model string
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// KnownSet is the ordered set of products a candidate is checked against:
// the catalog plus everything accepted so far in the batch. Lookups return
// the first product added for a key. Not safe for concurrent use.
type KnownSet struct {
	products     []models.Product
	byPartNumber map[string]int
	byNameModel  map[nameModelKey]int
}

func NewKnownSet(products []models.Product) *KnownSet {
	k := &KnownSet{
		byPartNumber: make(map[string]int, len(products)),
		byNameModel:  make(map[nameModelKey]int, len(products)),
	}
	for _, p := range products {
		k.Add(p)
	}
	return k
}

// Add appends p; earlier entries keep precedence for lookups.
func (k *KnownSet) Add(p models.Product) {
	idx := len(k.products)
	k.products = append(k.products, p)

	if pn := normalize(p.PartNumber); pn != "" {
		if _, exists := k.byPartNumber[pn]; !exists {
			k.byPartNumber[pn] = idx
		}
	}
	key := nameModelKey{name: normalize(p.Name), model: normalize(p.Model)}
	if _, exists := k.byNameModel[key]; !exists {
		k.byNameModel[key] = idx
	}
}

func (k *KnownSet) Len() int { return len(k.products) }

func (k *KnownSet) byPart(pn string) (models.Product, bool) {
	idx, ok := k.byPartNumber[normalize(pn)]
	if !ok {
		return models.Product{}, false
	}
	return k.products[idx], true
}

func (k *KnownSet) byNameAndModel(name, model string) (models.Product, bool) {
	idx, ok := k.byNameModel[nameModelKey{name: normalize(name), model: normalize(model)}]
	if !ok {
		return models.Product{}, false
	}
	return k.products[idx], true
}

// DuplicateDetector finds catalog conflicts for a candidate record.
type DuplicateDetector struct {
	catalog CatalogReader
	logger  *zap.Logger
}

func NewDuplicateDetector(catalog CatalogReader, logger *zap.Logger) *DuplicateDetector {
	return &DuplicateDetector{catalog: catalog, logger: logger}
}

// FindConflicts checks rec against known. The part number check and the
// name+model check are independent, so both messages may be returned.
func (d *DuplicateDetector) FindConflicts(rec models.ProductRecord, known *KnownSet) []string {
	var conflicts []string

	if strings.TrimSpace(rec.PartNumber) != "" {
		if existing, ok := known.byPart(rec.PartNumber); ok {
			conflicts = append(conflicts, fmt.Sprintf(
				"Duplicate part number detected: \"%s\" already exists in the database (Product ID: %s)",
				rec.PartNumber, existing.ID))
		}
	}

	if strings.TrimSpace(rec.Name) != "" && strings.TrimSpace(rec.Model) != "" {
		if existing, ok := known.byNameAndModel(rec.Name, rec.Model); ok && existing.PartNumber != rec.PartNumber {
			conflicts = append(conflicts, fmt.Sprintf(
				"Duplicate product detected: A product with name \"%s\" and model \"%s\" already exists (Part Number: %s)",
				rec.Name, rec.Model, existing.PartNumber))
		}
	}

	return conflicts
}

// Check reads the catalog and returns the conflicts for rec, ignoring products
// whose ID is in exclude. If the catalog cannot be read it returns
// DuplicateCheckUnavailable alone.
func (d *DuplicateDetector) Check(ctx context.Context, rec models.ProductRecord, exclude ...string) []string {
	products, err := d.catalog.List(ctx)
	if err != nil {
		d.logger.Error("Duplicate check could not read catalog", zap.String("part_number", rec.PartNumber), zap.Error(err))
		return []string{DuplicateCheckUnavailable}
	}
	if len(exclude) > 0 {
		skip := make(map[string]bool, len(exclude))
		for _, id := range exclude {
			skip[id] = true
		}
		kept := products[:0]
		for _, p := range products {
			if !skip[p.ID] {
				kept = append(kept, p)
			}
		}
		products = kept
	}
	return d.FindConflicts(rec, NewKnownSet(products))
}
