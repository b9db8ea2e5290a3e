package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/na4oman/samsung-shop/middleware"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/services"
	"go.uber.org/zap"
)

// ImportController exposes the product import pipeline.
type ImportController struct {
	importer  services.ImportService
	jobs      services.ImportJobService
	validator *RequestValidator
	logger    *zap.Logger
	timeout   time.Duration
}

// NewImportController creates a new ImportController. jobs may be nil, in
// which case async imports are refused.
func NewImportController(importer services.ImportService, jobs services.ImportJobService, validator *RequestValidator, logger *zap.Logger) *ImportController {
	return &ImportController{
		importer:  importer,
		jobs:      jobs,
		validator: validator,
		logger:    logger,
		timeout:   5 * time.Minute,
	}
}

// ImportProducts handles POST /products/import with a JSON body.
func (ic *ImportController) ImportProducts(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Products == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be {\"products\": [...]}"})
		return
	}

	inputs := make([]models.ProductInput, len(req.Products))
	for i, p := range req.Products {
		inputs[i] = models.ProductInput(p)
	}
	ic.runImport(c, inputs, services.ImportMeta{Source: models.SourceJSON})
}

// ImportFile handles POST /products/import/file. With ?async=true the file
// is queued and 202 is returned with the job ID.
func (ic *ImportController) ImportFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if err := ic.validator.ValidateImportFile(file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	source, err := services.SourceFromFilename(file.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := readUpload(file)
	if err != nil {
		ic.logger.Error("Failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}

	if async, _ := strconv.ParseBool(strings.TrimSpace(c.Query("async"))); async {
		ic.queueImport(c, file.Filename, data)
		return
	}

	parsed, err := services.ParseProductSheet(bytes.NewReader(data), source)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ic.runImport(c, parsed.Inputs, services.ImportMeta{Source: source, SourceRows: parsed.Rows})
}

func (ic *ImportController) runImport(c *gin.Context, inputs []models.ProductInput, meta services.ImportMeta) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.timeout)
	defer cancel()

	meta.Actor, _ = middleware.GetUserID(c)
	result := ic.importer.ImportBatchWithMeta(ctx, inputs, meta)
	c.JSON(http.StatusOK, result)
}

func (ic *ImportController) queueImport(c *gin.Context, filename string, data []byte) {
	if ic.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async import is not configured"})
		return
	}
	actor, _ := middleware.GetUserID(c)
	job, svcErr := ic.jobs.Submit(c.Request.Context(), filename, data, actor)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Import queued for processing",
	})
}

// GetImportJob handles GET /products/import/jobs/:id.
func (ic *ImportController) GetImportJob(c *gin.Context) {
	if ic.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async import is not configured"})
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID required"})
		return
	}
	job, svcErr := ic.jobs.Status(c.Request.Context(), id)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, job)
}

// DownloadTemplate handles GET /products/import/template?format=csv|xlsx|json.
func (ic *ImportController) DownloadTemplate(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	contentType, filename, err := services.TemplateContentType(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := services.WriteTemplate(c.Writer, format); err != nil {
		ic.logger.Error("Failed to write import template", zap.String("format", format), zap.Error(err))
	}
}

// ListImportRuns handles GET /products/import/runs.
func (ic *ImportController) ListImportRuns(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	runs, total, svcErr := ic.importer.ListRuns(c.Request.Context(), page, limit)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	if runs == nil {
		runs = []models.ImportRun{}
	}
	c.JSON(http.StatusOK, gin.H{
		"runs": runs,
		"meta": gin.H{
			"page":     page,
			"limit":    limit,
			"total":    total,
			"has_more": total > int64(page*limit),
		},
	})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
}

// parsePaginationParams extracts page and limit, defaulting to 1 and 10.
func parsePaginationParams(c *gin.Context) (int, int) {
	page, limit := 1, 10
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limit = min(l, MaxPageSize)
	}
	return page, limit
}
