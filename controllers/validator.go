package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Validation constants
const (
	MaxPageSize   = 100
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
)

var allowedImportExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".json": true,
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	// Report fields by their query or JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &RequestValidator{validate: v}
}

// ParseListQuery binds and validates the product listing query string.
// perPage is capped at MaxPageSize.
func (rv *RequestValidator) ParseListQuery(c *gin.Context) (ListProductsQuery, error) {
	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, errors.New("invalid query parameters")
	}
	q.Category = strings.TrimSpace(q.Category)
	q.Color = strings.TrimSpace(q.Color)
	q.Query = strings.TrimSpace(q.Query)
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))

	if err := rv.validate.Struct(&q); err != nil {
		return q, validationError(err)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, errors.New("minPrice must be less than or equal to maxPrice")
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = 10
	}
	if q.PerPage > MaxPageSize {
		q.PerPage = MaxPageSize
	}
	return q, nil
}

// ParsePresignRequest binds and validates an image presign body.
func (rv *RequestValidator) ParsePresignRequest(c *gin.Context) (PresignImageRequest, error) {
	var req PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, errors.New("invalid request body")
	}
	if err := rv.validate.Struct(&req); err != nil {
		return req, validationError(err)
	}
	return req, nil
}

// ValidateImportFile checks the extension and size of an uploaded import file.
func (rv *RequestValidator) ValidateImportFile(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImportExtensions[ext] {
		return errors.New("invalid file type. Only CSV, XLSX and JSON files are allowed")
	}
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large (max %dMB)", MaxUploadSize/(1024*1024))
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid value for '%s'", fe.Field()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
