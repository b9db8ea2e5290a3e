package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/repository"
	"go.uber.org/zap"
)

// ObjectStore presigns direct uploads to the product image bucket.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, map[string]string, error)
	PublicURL(key string) string
}

// ProductService defines the catalog operations exposed over HTTP.
type ProductService interface {
	ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, int64, *ServiceError)
	GetProduct(ctx context.Context, id string) (*models.Product, *ServiceError)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, *ServiceError)
	UpdateProduct(ctx context.Context, id string, changes models.ProductInput) (*models.Product, *ServiceError)
	DeleteProduct(ctx context.Context, id string) *ServiceError
	PresignImageUpload(ctx context.Context, id, filename, contentType string, expires time.Duration) (*PresignedUpload, *ServiceError)
}

type productServiceImpl struct {
	repo     repository.ProductRepo
	detector *DuplicateDetector
	events   EventPublisher
	images   ObjectStore
	logger   *zap.Logger
}

// NewProductService creates a new ProductService. events and images may be nil.
func NewProductService(repo repository.ProductRepo, detector *DuplicateDetector, events EventPublisher, images ObjectStore, logger *zap.Logger) ProductService {
	return &productServiceImpl{
		repo:     repo,
		detector: detector,
		events:   events,
		images:   images,
		logger:   logger,
	}
}

func (s *productServiceImpl) ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, int64, *ServiceError) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = 10
	}
	if params.Sort == "" {
		params.Sort = repository.DefaultSortOption
	}
	if !repository.IsSupportedSort(params.Sort) {
		return nil, 0, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Unsupported sort option: " + params.Sort}
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return nil, 0, &ServiceError{StatusCode: http.StatusBadRequest, Message: "minPrice cannot be greater than maxPrice"}
	}

	products, total, err := s.repo.Find(ctx, repository.ListFilter{
		Category: params.Category,
		Color:    params.Color,
		Query:    params.Query,
		MinPrice: params.MinPrice,
		MaxPrice: params.MaxPrice,
		Sort:     params.Sort,
		Skip:     (params.Page - 1) * params.PerPage,
		Limit:    params.PerPage,
	})
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to list products"}
	}
	return products, total, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id string) (*models.Product, *ServiceError) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get", id, err)
	}
	return product, nil
}

// CreateProduct validates the input and checks it against the catalog before
// persisting. An unreadable catalog rejects the create.
func (s *productServiceImpl) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, *ServiceError) {
	if res := ValidateProduct(in); !res.IsValid {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: strings.Join(res.Errors, "; ")}
	}
	rec := in.Record()
	if serr := s.checkDuplicates(ctx, rec); serr != nil {
		return nil, serr
	}

	product, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, s.storeError("create", rec.PartNumber, err)
	}
	s.logger.Info("Product created", zap.String("id", product.ID), zap.String("part_number", product.PartNumber))
	s.publish(models.EventCreate, product.ID)
	return product, nil
}

// UpdateProduct merges changes into the stored product, then validates and
// checks duplicates against every other product.
func (s *productServiceImpl) UpdateProduct(ctx context.Context, id string, changes models.ProductInput) (*models.Product, *ServiceError) {
	if len(changes) == 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "No update fields provided"}
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("update", id, err)
	}

	merged := current.Input()
	for _, field := range models.ImportFields {
		if v, ok := changes[field]; ok {
			merged[field] = v
		}
	}
	if res := ValidateProduct(merged); !res.IsValid {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: strings.Join(res.Errors, "; ")}
	}
	rec := merged.Record()
	if serr := s.checkDuplicates(ctx, rec, id); serr != nil {
		return nil, serr
	}

	product, err := s.repo.Update(ctx, id, rec)
	if err != nil {
		return nil, s.storeError("update", id, err)
	}
	s.publish(models.EventUpdate, id)
	return product, nil
}

func (s *productServiceImpl) DeleteProduct(ctx context.Context, id string) *ServiceError {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError("delete", id, err)
	}
	s.logger.Info("Product deleted", zap.String("id", id))
	s.publish(models.EventDelete, id)
	return nil
}

// PresignImageUpload returns a presigned PUT for an image of an existing product.
func (s *productServiceImpl) PresignImageUpload(ctx context.Context, id, filename, contentType string, expires time.Duration) (*PresignedUpload, *ServiceError) {
	if s.images == nil {
		return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Image uploads are not configured"}
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, s.storeError("presign", id, err)
	}

	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	key := fmt.Sprintf("product/%s/%s-%s", id, uuid.NewString()[:8], name)

	url, headers, err := s.images.PresignPut(ctx, key, contentType, expires)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.String("id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to generate presigned upload"}
	}
	return &PresignedUpload{
		UploadURL: url,
		ObjectKey: key,
		PublicURL: s.images.PublicURL(key),
		Headers:   headers,
	}, nil
}

func (s *productServiceImpl) checkDuplicates(ctx context.Context, rec models.ProductRecord, exclude ...string) *ServiceError {
	conflicts := s.detector.Check(ctx, rec, exclude...)
	if len(conflicts) == 0 {
		return nil
	}
	status := http.StatusConflict
	if len(conflicts) == 1 && conflicts[0] == DuplicateCheckUnavailable {
		status = http.StatusServiceUnavailable
	}
	return &ServiceError{StatusCode: status, Message: strings.Join(conflicts, "; ")}
}

func (s *productServiceImpl) storeError(op, ref string, err error) *ServiceError {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &ServiceError{StatusCode: http.StatusNotFound, Message: "Product not found"}
	case errors.Is(err, repository.ErrConflict):
		return &ServiceError{StatusCode: http.StatusConflict, Message: "A product with this part number already exists"}
	}
	s.logger.Error("Product store operation failed", zap.String("op", op), zap.String("ref", ref), zap.Error(err))
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: fmt.Sprintf("Failed to %s product", op)}
}

func (s *productServiceImpl) publish(typ models.EventType, id string) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.CatalogEvent{Type: typ, Count: 1, ProductIDs: []string{id}})
}
