package services

import (
	"context"

	"github.com/na4oman/samsung-shop/models"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// ProductStore is the catalog store the import pipeline writes to.
type ProductStore interface {
	CatalogReader
	Create(ctx context.Context, rec models.ProductRecord) (*models.Product, error)
}

// EventPublisher receives catalog change notifications.
type EventPublisher interface {
	Publish(event models.CatalogEvent)
}

// MetricsRecorder is satisfied by the CloudWatch metrics client.
type MetricsRecorder interface {
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

// ImportMeta describes where a batch came from; it is written to the audit trail.
type ImportMeta struct {
	Source models.ImportSource
	Actor  string
	JobID  string

	// SourceRows maps batch indexes to sheet lines; see ParsedFile.
	SourceRows []int
}

// ListProductsParams contains parameters for listing products with filters
type ListProductsParams struct {
	Page     int
	PerPage  int
	Sort     string
	Category string
	Color    string
	Query    string
	MinPrice *float64
	MaxPrice *float64
}

// PresignedUpload is returned to clients uploading a product image directly to S3.
type PresignedUpload struct {
	UploadURL string            `json:"upload_url"`
	ObjectKey string            `json:"object_key"`
	PublicURL string            `json:"public_url"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func (m ImportMeta) sourceRow(idx int) int {
	if idx < len(m.SourceRows) {
		return m.SourceRows[idx]
	}
	return 0
}
