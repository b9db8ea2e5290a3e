package controllers

import "time"

// Default configuration values
const (
	DefaultCacheTTL       = 10 * time.Minute
	DefaultContextTimeout = 30 * time.Second
	DefaultPresignExpiry  = 15 * time.Minute
)

// ListProductsQuery is the query string of GET /products.
type ListProductsQuery struct {
	Page     int      `form:"page" validate:"omitempty,min=1,max=1000000"`
	PerPage  int      `form:"perPage" validate:"omitempty,min=1"`
	Category string   `form:"category" validate:"omitempty,oneof=LCD AMOLED OLED E-Paper TFT"`
	Color    string   `form:"color" validate:"omitempty,max=50"`
	Query    string   `form:"q" validate:"omitempty,max=200"`
	Sort     string   `form:"sort" validate:"omitempty,oneof=price_asc price_desc name_asc name_desc created_at_asc created_at_desc"`
	MinPrice *float64 `form:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice *float64 `form:"maxPrice" validate:"omitempty,gte=0"`
}

// PresignImageRequest is the body of POST /products/:id/images/presign.
type PresignImageRequest struct {
	Filename    string `json:"filename" validate:"required,max=200"`
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp image/gif"`
	ExpiresIn   int    `json:"expires_in" validate:"omitempty,min=60,max=3600"`
}

// ImportRequest is the body of POST /products/import.
type ImportRequest struct {
	Products []map[string]any `json:"products"`
}
