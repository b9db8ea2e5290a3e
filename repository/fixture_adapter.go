package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
)

// FixtureAdapter is an in-memory catalog, seeded with sample products.
// Selected with CATALOG_SOURCE=fixture for demos and local runs.
type FixtureAdapter struct {
	mu       sync.RWMutex
	products []models.Product
	now      func() time.Time
}

// NewFixtureAdapter returns a store holding a copy of seed.
func NewFixtureAdapter(seed []models.Product) *FixtureAdapter {
	products := make([]models.Product, len(seed))
	copy(products, seed)
	return &FixtureAdapter{products: products, now: time.Now}
}

// SampleProducts is the seed catalog used by the fixture source.
func SampleProducts() []models.Product {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return []models.Product{
		{
			ID: "sample-s23-amoled-blk", Name: "Samsung Galaxy S23 AMOLED Display", Model: "Galaxy S23",
			Category: models.CategoryAMOLED, Color: "Black", PartNumber: "SM-S911B-AMOLED-BLK", Price: 199.99,
			Description: "Original replacement AMOLED display for Samsung Galaxy S23.",
			CreatedAt:   created, UpdatedAt: created,
		},
		{
			ID: "sample-s22-lcd-wht", Name: "Samsung Galaxy S22 LCD Screen", Model: "Galaxy S22",
			Category: models.CategoryLCD, Color: "White", PartNumber: "SM-S901B-LCD-WHT", Price: 149.99,
			Description: "Replacement LCD screen for Samsung Galaxy S22.",
			CreatedAt:   created.Add(time.Hour), UpdatedAt: created.Add(time.Hour),
		},
		{
			ID: "sample-a54-oled-blu", Name: "Samsung Galaxy A54 OLED Panel", Model: "Galaxy A54",
			Category: models.CategoryOLED, Color: "Blue", PartNumber: "SM-A546B-OLED-BLU", Price: 89.5,
			Description: "OLED panel assembly with frame for Samsung Galaxy A54.",
			CreatedAt:   created.Add(2 * time.Hour), UpdatedAt: created.Add(2 * time.Hour),
		},
		{
			ID: "sample-tab-a8-tft-gry", Name: "Samsung Galaxy Tab A8 TFT Screen", Model: "Galaxy Tab A8",
			Category: models.CategoryTFT, Color: "Gray", PartNumber: "SM-X200-TFT-GRY", Price: 64,
			CreatedAt: created.Add(3 * time.Hour), UpdatedAt: created.Add(3 * time.Hour),
		},
	}
}

func (f *FixtureAdapter) List(ctx context.Context) ([]models.Product, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *FixtureAdapter) Find(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	all, _ := f.List(ctx)
	page, total := applyFilter(all, filter)
	return page, total, nil
}

func (f *FixtureAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FixtureAdapter) Create(ctx context.Context, rec models.ProductRecord) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := partNumberKey(rec.PartNumber)
	for _, p := range f.products {
		if partNumberKey(p.PartNumber) == key {
			return nil, clientError("fixture create", ErrConflict)
		}
	}
	now := f.now().UTC()
	p := recordToProduct(uuid.New().String(), rec, now, now)
	f.products = append(f.products, p)
	return &p, nil
}

func (f *FixtureAdapter) Update(ctx context.Context, id string, rec models.ProductRecord) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := -1
	for i, p := range f.products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}
	key := partNumberKey(rec.PartNumber)
	for i, p := range f.products {
		if i != idx && partNumberKey(p.PartNumber) == key {
			return nil, clientError("fixture update", ErrConflict)
		}
	}
	updated := recordToProduct(id, rec, f.products[idx].CreatedAt, f.now().UTC())
	f.products[idx] = updated
	return &updated, nil
}

func (f *FixtureAdapter) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *FixtureAdapter) EnsureIndexes(ctx context.Context) error { return nil }
