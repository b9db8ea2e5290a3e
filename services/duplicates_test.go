package services_test

import (
	"context"
	"testing"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/services"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func existingCatalog() []models.Product {
	return []models.Product{
		{ID: "p-1", Name: "Galaxy S21 Screen", Model: "Galaxy S21", PartNumber: "EXISTING-001"},
		{ID: "p-2", Name: "Galaxy S22 Screen", Model: "Galaxy S22", PartNumber: "SM-S22-LCD-WHT"},
	}
}

func record(name, model, pn string) models.ProductRecord {
	return models.ProductRecord{Name: name, Model: model, PartNumber: pn}
}

func TestFindConflicts_PartNumberNormalized(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())

	conflicts := d.FindConflicts(record("New Panel", "Galaxy A10", "  existing-001 "), known)
	assert.Equal(t, []string{
		`Duplicate part number detected: "  existing-001 " already exists in the database (Product ID: p-1)`,
	}, conflicts)
}

func TestFindConflicts_NameModelWithDifferentPartNumber(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())

	conflicts := d.FindConflicts(record(" galaxy s22 SCREEN", "GALAXY S22 ", "SM-NEW-1"), known)
	assert.Equal(t, []string{
		`Duplicate product detected: A product with name " galaxy s22 SCREEN" and model "GALAXY S22 " already exists (Part Number: SM-S22-LCD-WHT)`,
	}, conflicts)
}

func TestFindConflicts_BothChecksFire(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())

	// Part number matches p-1 case-insensitively; name+model matches p-2 whose
	// part number differs from the candidate's.
	conflicts := d.FindConflicts(record("Galaxy S22 Screen", "Galaxy S22", "existing-001"), known)
	assert.Len(t, conflicts, 2)
	assert.Contains(t, conflicts[0], "Duplicate part number detected")
	assert.Contains(t, conflicts[1], "Duplicate product detected")
	assert.Contains(t, conflicts[1], "SM-S22-LCD-WHT")
}

func TestFindConflicts_SameNameModelSamePartNumberOnlyReportsPartNumber(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())

	conflicts := d.FindConflicts(record("Galaxy S21 Screen", "Galaxy S21", "EXISTING-001"), known)
	assert.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], "EXISTING-001")
}

func TestFindConflicts_NameModelComparesPartNumberExactly(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())

	conflicts := d.FindConflicts(record("Galaxy S21 Screen", "Galaxy S21", "existing-001"), known)
	assert.Len(t, conflicts, 2)
}

func TestFindConflicts_NoConflict(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())

	assert.Empty(t, d.FindConflicts(record("Galaxy S23 Screen", "Galaxy S23", "SM-S23"), known))
	assert.Empty(t, d.FindConflicts(record("Galaxy S23 Screen", "Galaxy S23", "SM-S23"), services.NewKnownSet(nil)))
}

func TestKnownSet_FirstMatchWins(t *testing.T) {
	d := services.NewDuplicateDetector(&fakeStore{}, zap.NewNop())
	known := services.NewKnownSet(existingCatalog())
	known.Add(models.Product{ID: "p-3", Name: "Other", Model: "Other", PartNumber: "existing-001"})

	conflicts := d.FindConflicts(record("X", "Y", "EXISTING-001"), known)
	assert.Contains(t, conflicts[0], "(Product ID: p-1)")
	assert.Equal(t, 3, known.Len())
}

func TestCheck_ReadsCatalog(t *testing.T) {
	store := &fakeStore{products: existingCatalog()}
	d := services.NewDuplicateDetector(store, zap.NewNop())

	conflicts := d.Check(context.Background(), record("New", "New", "EXISTING-001"))
	assert.Len(t, conflicts, 1)

	// Excluding the product itself, as an update does.
	assert.Empty(t, d.Check(context.Background(), record("Galaxy S21 Screen", "Galaxy S21", "EXISTING-001"), "p-1"))
}

func TestCheck_FailSafeOnOutage(t *testing.T) {
	store := &fakeStore{listErr: errOutage}
	d := services.NewDuplicateDetector(store, zap.NewNop())

	conflicts := d.Check(context.Background(), record("New", "New", "SM-NEW"))
	assert.Equal(t, []string{services.DuplicateCheckUnavailable}, conflicts)
}
