package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/na4oman/samsung-shop/controllers"
	"github.com/na4oman/samsung-shop/middleware"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/pkg/retry"
	"github.com/na4oman/samsung-shop/repository"
	"github.com/na4oman/samsung-shop/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock ImportJobService ---

type mockJobService struct {
	submitted string
	actor     string
}

func (m *mockJobService) Submit(_ context.Context, filename string, _ []byte, actor string) (*models.ImportJob, *services.ServiceError) {
	m.submitted, m.actor = filename, actor
	return &models.ImportJob{ID: "job-1", Status: models.JobPending}, nil
}

func (m *mockJobService) Status(_ context.Context, id string) (*models.ImportJob, *services.ServiceError) {
	if id != "job-1" {
		return nil, &services.ServiceError{StatusCode: http.StatusNotFound, Message: "Job not found"}
	}
	return &models.ImportJob{ID: id, Status: models.JobDone, Result: &models.ImportResult{TotalProcessed: 2}}, nil
}

func (m *mockJobService) Process(context.Context, string) error { return nil }

// --- Helpers ---

func setupImportRouter(t *testing.T, jobs services.ImportJobService) *gin.Engine {
	t.Helper()
	store := repository.NewFixtureAdapter(repository.SampleProducts())
	policy := retry.DefaultPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	importer := services.NewImportService(store, services.NewDuplicateDetector(store, zap.NewNop()), zap.NewNop(),
		services.WithRetryPolicy(policy))

	ic := controllers.NewImportController(importer, jobs, controllers.NewRequestValidator(), zap.NewNop())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, "admin-1")
		c.Set(middleware.RoleContextKey, middleware.AdminRole)
		c.Next()
	})
	r.POST("/products/import", ic.ImportProducts)
	r.POST("/products/import/file", ic.ImportFile)
	r.GET("/products/import/jobs/:id", ic.GetImportJob)
	r.GET("/products/import/template", ic.DownloadTemplate)
	return r
}

func uploadFile(t *testing.T, r http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write([]byte(content))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) models.ImportResult {
	t.Helper()
	var result models.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

// --- Tests ---

func TestImportProducts_JSON(t *testing.T) {
	r := setupImportRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/products/import", map[string]any{"products": []map[string]any{
		{"name": "Galaxy S24 Screen", "model": "Galaxy S24", "category": "AMOLED", "color": "Black", "partNumber": "SM-S921B", "price": 229.99},
		{"name": "Copy", "model": "Copy", "category": "LCD", "color": "White", "partNumber": "sm-s901b-lcd-wht", "price": 10},
		{"name": "X"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeResult(t, w)
	assert.Equal(t, 3, result.TotalProcessed)
	require.Len(t, result.Successful, 1)
	assert.Equal(t, "SM-S921B", result.Successful[0].PartNumber)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Contains(t, result.Failed[0].Error, "Duplicate part number detected")
	assert.Equal(t, 2, result.Failed[1].Index)
}

func TestImportProducts_BadBody(t *testing.T) {
	r := setupImportRouter(t, nil)
	w := doJSON(r, http.MethodPost, "/products/import", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportFile_CSV(t *testing.T) {
	r := setupImportRouter(t, nil)
	csvData := "name,model,category,color,price\nGalaxy S24 Screen,Galaxy S24,AMOLED,Black,229.99\n"

	w := uploadFile(t, r, "/products/import/file", "catalog.csv", csvData)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeResult(t, w)
	require.Len(t, result.Successful, 1)
	assert.Equal(t, "SM-S24-AMOLED-BLA", result.Successful[0].PartNumber)
}

func TestImportFile_CSVFailuresReportSheetLine(t *testing.T) {
	r := setupImportRouter(t, nil)
	csvData := "name,model,category,color,price\n" +
		"Galaxy S24 Screen,Galaxy S24,AMOLED,Black,229.99\n" +
		"\n" +
		"Galaxy A10 Screen,Galaxy A10,CRT,Red,10\n"

	w := uploadFile(t, r, "/products/import/file", "catalog.csv", csvData)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeResult(t, w)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, 4, result.Failed[0].Row)
}

func TestImportFile_Rejections(t *testing.T) {
	r := setupImportRouter(t, nil)

	w := uploadFile(t, r, "/products/import/file", "catalog.pdf", "x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = uploadFile(t, r, "/products/import/file", "catalog.csv", "name,model\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrNoRows.Error())

	w = uploadFile(t, r, "/products/import/file?async=true", "catalog.csv", "name\nx\n")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestImportFile_Async(t *testing.T) {
	jobs := &mockJobService{}
	r := setupImportRouter(t, jobs)

	w := uploadFile(t, r, "/products/import/file?async=true", "catalog.xlsx", "binary")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.JSONEq(t, `{"job_id":"job-1","status":"pending","message":"Import queued for processing"}`, w.Body.String())
	assert.Equal(t, "catalog.xlsx", jobs.submitted)
	assert.Equal(t, "admin-1", jobs.actor)

	w = doJSON(r, http.MethodGet, "/products/import/jobs/job-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"done"`)

	w = doJSON(r, http.MethodGet, "/products/import/jobs/other", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadTemplate(t *testing.T) {
	r := setupImportRouter(t, nil)

	w := doJSON(r, http.MethodGet, "/products/import/template?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="products_import_template.csv"`, w.Header().Get("Content-Disposition"))
	firstLine := strings.SplitN(w.Body.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(models.ImportFields, ","), firstLine)

	w = doJSON(r, http.MethodGet, "/products/import/template?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
