package repository

import (
	"context"

	"github.com/na4oman/samsung-shop/models"
	"gorm.io/gorm"
)

// GormImportRunRepository implements ImportRunRepo using GORM.
type GormImportRunRepository struct {
	db *gorm.DB
}

func NewGormImportRunRepository(db *gorm.DB) ImportRunRepo {
	return &GormImportRunRepository{db: db}
}

func (r *GormImportRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *GormImportRunRepository) FindAll(ctx context.Context, page, limit int) ([]models.ImportRun, int64, error) {
	var runs []models.ImportRun
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ImportRun{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).Limit(limit).
		Order("started_at DESC").
		Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
