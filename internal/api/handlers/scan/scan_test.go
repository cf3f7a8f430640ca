package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-scanner/internal/core/ai"
	"recipe-scanner/internal/core/cache"
	"recipe-scanner/internal/core/media"
	recipeService "recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor returns a recipe named after the call count, so tests can
// tell a fresh extraction from a cached result.
type fakeExtractor struct {
	calls int
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ *ai.Attachment) (*recipeService.Recipe, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &recipeService.Recipe{
		RecipeName:   fmt.Sprintf("Extraction %d", f.calls),
		Instructions: []recipeService.Instruction{{StepNumber: 1, Text: "Cook."}},
	}, nil
}

func newTestRouter(extractor Extractor, c cache.Cache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(extractor, c, media.NewProcessor(800, 85))
	r := gin.New()
	r.POST("/api/v1/recipes/scan", h.Scan)
	return r
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj")

func uploadRequest(t *testing.T, url string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "recipe.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doScan(t *testing.T, router *gin.Engine, url string, content []byte) (*httptest.ResponseRecorder, *Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, url, content))

	if rec.Code != http.StatusOK {
		return rec, nil
	}
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, &resp
}

func TestScanSuccess(t *testing.T) {
	extractor := &fakeExtractor{}
	router := newTestRouter(extractor, cache.NewMemoryCache(10, time.Minute, 0))

	rec, resp := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Extraction 1", resp.Recipe.RecipeName)
	assert.False(t, resp.Cached)
	assert.Equal(t, common.HashBytes(pdfBytes), resp.FileHash)

	require.NotNil(t, resp.Recipe.OriginalFile)
	assert.Contains(t, *resp.Recipe.OriginalFile, "data:application/pdf;base64,")
	require.NotNil(t, resp.Recipe.OriginalFileType)
	assert.Equal(t, "application/pdf", *resp.Recipe.OriginalFileType)
	require.NotNil(t, resp.Recipe.FileHash)
	assert.Equal(t, resp.FileHash, *resp.Recipe.FileHash)
	assert.Nil(t, resp.Recipe.Image, "PDF uploads have no preview image")
}

func TestScanCacheHit(t *testing.T) {
	extractor := &fakeExtractor{}
	router := newTestRouter(extractor, cache.NewMemoryCache(10, time.Minute, 0))

	_, first := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	_, second := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)

	assert.Equal(t, 1, extractor.calls, "second upload must be served from cache")
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, "Extraction 1", second.Recipe.RecipeName)
}

func TestScanRefreshBypassesCacheWithoutWriting(t *testing.T) {
	extractor := &fakeExtractor{}
	router := newTestRouter(extractor, cache.NewMemoryCache(10, time.Minute, 0))

	_, first := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	_, refreshed := doScan(t, router, "/api/v1/recipes/scan?refresh=true", pdfBytes)
	_, third := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)

	assert.Equal(t, 2, extractor.calls)
	assert.Equal(t, "Extraction 1", first.Recipe.RecipeName)
	assert.Equal(t, "Extraction 2", refreshed.Recipe.RecipeName, "refresh must re-extract")
	assert.False(t, refreshed.Cached)
	assert.True(t, third.Cached)
	assert.Equal(t, "Extraction 1", third.Recipe.RecipeName, "refresh must not overwrite the cached entry")
}

func TestScanWorksWithoutCache(t *testing.T) {
	extractor := &fakeExtractor{}
	router := newTestRouter(extractor, nil)

	rec, resp := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Cached)

	doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	assert.Equal(t, 2, extractor.calls)
}

func TestScanMissingFile(t *testing.T) {
	router := newTestRouter(&fakeExtractor{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/scan", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanUnsupportedFileType(t *testing.T) {
	extractor := &fakeExtractor{}
	router := newTestRouter(extractor, nil)

	rec, _ := doScan(t, router, "/api/v1/recipes/scan", []byte("plain text, not a document"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_FILE_TYPE")
	assert.Equal(t, 0, extractor.calls)
}

func TestScanRateLimited(t *testing.T) {
	extractor := &fakeExtractor{err: &common.RateLimitError{RetryAfter: 30 * time.Second}}
	router := newTestRouter(extractor, nil)

	rec, _ := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestScanNoInstructions(t *testing.T) {
	extractor := &fakeExtractor{err: common.ErrNoInstructions}
	router := newTestRouter(extractor, nil)

	rec, _ := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_INSTRUCTIONS")
}

func TestScanMalformedModelResponse(t *testing.T) {
	extractor := &fakeExtractor{err: common.ErrMalformedResponse}
	router := newTestRouter(extractor, nil)

	rec, _ := doScan(t, router, "/api/v1/recipes/scan", pdfBytes)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
