package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/services"
	"go.uber.org/zap"
)

// ProductController handles HTTP requests for catalog operations.
type ProductController struct {
	service   services.ProductService
	cache     *CacheManager
	validator *RequestValidator
	logger    *zap.Logger
	timeout   time.Duration
}

// NewProductController creates a new ProductController. cache may be nil.
func NewProductController(service services.ProductService, cache *CacheManager, validator *RequestValidator, logger *zap.Logger) *ProductController {
	return &ProductController{
		service:   service,
		cache:     cache,
		validator: validator,
		logger:    logger,
		timeout:   DefaultContextTimeout,
	}
}

// GetProducts handles GET /products.
func (pc *ProductController) GetProducts(c *gin.Context) {
	q, err := pc.validator.ParseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	if cached, ok := pc.cache.GetProductList(ctx, q); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, cached)
		return
	}

	products, total, svcErr := pc.service.ListProducts(ctx, services.ListProductsParams{
		Page:     q.Page,
		PerPage:  q.PerPage,
		Sort:     q.Sort,
		Category: q.Category,
		Color:    q.Color,
		Query:    q.Query,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	})
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	resp := ProductListResponse{
		Products: products,
		Meta: ListMeta{
			Page:       q.Page,
			PerPage:    q.PerPage,
			Total:      total,
			TotalPages: int((total + int64(q.PerPage) - 1) / int64(q.PerPage)),
		},
	}
	pc.cache.SetProductListAsync(q, resp)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, resp)
}

// GetCategories handles GET /products/categories.
func (pc *ProductController) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	product, svcErr := pc.service.GetProduct(c.Request.Context(), c.Param("id"))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct handles POST /products (admin only).
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	product, svcErr := pc.service.CreateProduct(c.Request.Context(), in)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /products/:id (admin only). Only the fields
// present in the body change.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var changes models.ProductInput
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	product, svcErr := pc.service.UpdateProduct(c.Request.Context(), c.Param("id"), changes)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles DELETE /products/:id (admin only).
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if svcErr := pc.service.DeleteProduct(c.Request.Context(), c.Param("id")); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// PresignImageUpload handles POST /products/:id/images/presign (admin only).
func (pc *ProductController) PresignImageUpload(c *gin.Context) {
	req, err := pc.validator.ParsePresignRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expires := DefaultPresignExpiry
	if req.ExpiresIn > 0 {
		expires = time.Duration(req.ExpiresIn) * time.Second
	}

	upload, svcErr := pc.service.PresignImageUpload(c.Request.Context(), c.Param("id"), req.Filename, req.ContentType, expires)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, upload)
}
