package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/pkg/retry"
	"github.com/na4oman/samsung-shop/repository"
)

// --- Fake catalog store ---

type fakeStore struct {
	mu         sync.Mutex
	products   []models.Product
	listErr    error
	createErrs []error
	creates    int
	panicOnPN  string
	nextID     int
}

func (f *fakeStore) List(_ context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, rec models.ProductRecord) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if rec.PartNumber == f.panicOnPN {
		panic("driver exploded")
	}
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.nextID++
	p := models.Product{
		ID:         fmt.Sprintf("prod-%d", f.nextID),
		Name:       rec.Name,
		Model:      rec.Model,
		Category:   rec.Category,
		Color:      rec.Color,
		Price:      rec.Price,
		PartNumber: rec.PartNumber,
		CreatedAt:  time.Now(),
	}
	f.products = append(f.products, p)
	return &p, nil
}

var errOutage = errors.New("connection refused")

func transientErr() error {
	return &repository.StoreError{Kind: retry.KindTransient, Op: "dynamodb PutItem", Err: errors.New("throttled")}
}

func clientErr() error {
	return &repository.StoreError{Kind: retry.KindClient, Op: "dynamodb PutItem", Err: errors.New("item too large")}
}

// --- Fake event publisher ---

type fakePublisher struct {
	events []models.CatalogEvent
}

func (f *fakePublisher) Publish(e models.CatalogEvent) { f.events = append(f.events, e) }

// --- Fake metrics ---

type fakeMetrics struct {
	values map[string]float64
}

func (f *fakeMetrics) RecordValue(_ context.Context, name string, v float64, _ map[string]string) error {
	if f.values == nil {
		f.values = map[string]float64{}
	}
	f.values[name] = v
	return nil
}

// --- Fake import run repository ---

type fakeRuns struct {
	runs []models.ImportRun
	err  error
}

func (f *fakeRuns) Create(_ context.Context, run *models.ImportRun) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRuns) FindAll(_ context.Context, _, _ int) ([]models.ImportRun, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.runs, int64(len(f.runs)), nil
}

func noWaitPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}
