package services_test

import (
	"context"
	"testing"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/repository"
	"github.com/na4oman/samsung-shop/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func s21Row() models.ProductInput {
	return models.ProductInput{
		"name":       "Galaxy S21 LCD Screen",
		"model":      "Galaxy S21",
		"category":   "LCD",
		"color":      "Black",
		"partNumber": "SM-S21-LCD-BLK",
		"price":      129.99,
	}
}

func fixtureImporter(repo services.ProductStore) services.ImportService {
	logger := zap.NewNop()
	return services.NewImportService(repo, services.NewDuplicateDetector(repo, logger), logger,
		services.WithRetryPolicy(noWaitPolicy()))
}

func TestScenario_SingleValidRecord(t *testing.T) {
	repo := repository.NewFixtureAdapter(nil)
	res := fixtureImporter(repo).ImportBatch(context.Background(), []models.ProductInput{s21Row()})

	assert.Equal(t, 1, res.TotalProcessed)
	assert.Empty(t, res.Failed)
	require.Len(t, res.Successful, 1)
	assert.NotEmpty(t, res.Successful[0].ID)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestScenario_NegativePrice(t *testing.T) {
	in := s21Row()
	in["price"] = -5
	res := fixtureImporter(repository.NewFixtureAdapter(nil)).ImportBatch(context.Background(), []models.ProductInput{in})

	assert.Equal(t, 1, res.TotalProcessed)
	assert.Empty(t, res.Successful)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 0, res.Failed[0].Index)
	assert.Contains(t, res.Failed[0].Error, "greater than zero")
}

func TestScenario_SamePartNumberTwice(t *testing.T) {
	second := s21Row()
	second["name"] = "Galaxy S21 LCD Screen (refurbished)"
	res := fixtureImporter(repository.NewFixtureAdapter(nil)).ImportBatch(context.Background(), []models.ProductInput{s21Row(), second})

	assert.Equal(t, 2, res.TotalProcessed)
	require.Len(t, res.Successful, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Index)
	assert.Contains(t, res.Failed[0].Error, "Duplicate part number detected")
	assert.Contains(t, res.Failed[0].Error, "SM-S21-LCD-BLK")
}

func TestScenario_CatalogOutageBeforeImport(t *testing.T) {
	repo := outageRepo{repository.NewFixtureAdapter(nil)}
	res := fixtureImporter(repo).ImportBatch(context.Background(), []models.ProductInput{s21Row()})

	assert.Equal(t, 1, res.TotalProcessed)
	require.Len(t, res.Successful, 1)
	assert.Equal(t, "SM-S21-LCD-BLK", res.Successful[0].PartNumber)
}

func TestScenario_StoreConflictIsClientError(t *testing.T) {
	// The store still rejects a part number the empty known-set missed.
	fixture := repository.NewFixtureAdapter([]models.Product{{ID: "p-1", Name: "x", Model: "y", PartNumber: "SM-S21-LCD-BLK"}})
	res := fixtureImporter(outageRepo{fixture}).ImportBatch(context.Background(), []models.ProductInput{s21Row()})

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "fixture create: part number already exists", res.Failed[0].Error)
}
