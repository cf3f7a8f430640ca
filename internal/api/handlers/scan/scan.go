// Package scan exposes the document-to-recipe endpoint.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"recipe-scanner/internal/core/ai"
	"recipe-scanner/internal/core/cache"
	"recipe-scanner/internal/core/media"
	recipeService "recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Extractor runs the document-to-recipe pipeline.
type Extractor interface {
	Extract(ctx context.Context, att *ai.Attachment) (*recipeService.Recipe, error)
}

// Handler serves POST /recipes/scan.
type Handler struct {
	extractor Extractor
	cache     cache.Cache
	media     *media.Processor
}

// NewHandler creates the scan handler. cache may be nil when caching is
// disabled.
func NewHandler(extractor Extractor, c cache.Cache, m *media.Processor) *Handler {
	return &Handler{extractor: extractor, cache: c, media: m}
}

// Response is the scan endpoint payload. The recipe is not persisted here;
// the client reviews it and submits it to the recipe CRUD endpoints.
type Response struct {
	Recipe   *recipeService.Recipe `json:"recipe"`
	Cached   bool                  `json:"cached"`
	FileHash string                `json:"file_hash"`
}

// Scan accepts a multipart upload under the "file" field, extracts a recipe
// from it, and returns the normalized result. Re-uploads of a known file are
// answered from the cache; ?refresh=true forces a fresh extraction without
// touching the cached entry.
func (h *Handler) Scan(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "multipart field \"file\" is required",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed to open uploaded file",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed to read uploaded file",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "uploaded file is empty",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	mimeType, err := media.DetectType(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported file type, expected JPEG, PNG, GIF, WebP or PDF",
			"code":  "INVALID_FILE_TYPE",
		})
		return
	}

	fileHash := common.HashBytes(data)
	refresh := c.Query("refresh") == "true"
	ctx := c.Request.Context()

	if h.cache != nil && !refresh {
		if cached, err := h.cache.Get(ctx, fileHash); err == nil {
			common.LogInfo("scan served from cache",
				zap.String("file_hash", fileHash),
				zap.String("mime_type", mimeType))
			c.JSON(http.StatusOK, Response{
				Recipe:   h.withMedia(cached, data, mimeType, fileHeader.Filename, fileHash),
				Cached:   true,
				FileHash: fileHash,
			})
			return
		}
	}

	result, err := h.extractor.Extract(ctx, &ai.Attachment{
		MIMEType: mimeType,
		FileName: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		writeExtractionError(c, err)
		return
	}

	// A cache write failure never fails the scan. The refresh bypass also
	// leaves the cached entry untouched.
	if h.cache != nil && !refresh {
		if err := h.cache.Put(ctx, fileHash, result); err != nil {
			common.LogWarn("failed to cache extraction result",
				zap.Error(err),
				zap.String("file_hash", fileHash))
		}
	}

	c.JSON(http.StatusOK, Response{
		Recipe:   h.withMedia(result, data, mimeType, fileHeader.Filename, fileHash),
		Cached:   false,
		FileHash: fileHash,
	})
}

// withMedia returns a copy of r with the upload embedded. The copy keeps
// cached entries free of per-request media payloads.
func (h *Handler) withMedia(r *recipeService.Recipe, data []byte, mimeType, fileName, fileHash string) *recipeService.Recipe {
	out := *r

	if media.IsImage(mimeType) && h.media != nil {
		preview, err := h.media.Preview(data)
		if err != nil {
			common.LogWarn("failed to build preview image", zap.Error(err))
		} else {
			out.Image = &preview
		}
	}

	original := media.DataURI(mimeType, data)
	out.OriginalFile = &original
	out.OriginalFileName = &fileName
	out.OriginalFileType = &mimeType
	out.FileHash = &fileHash
	return &out
}

func writeExtractionError(c *gin.Context, err error) {
	var rl *common.RateLimitError
	switch {
	case errors.As(err, &rl):
		payload := gin.H{
			"error": "AI service is rate limited, try again later",
			"code":  common.ErrCodeTooManyRequests,
		}
		if rl.RetryAfter > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rl.RetryAfter.Seconds())))
			payload["retry_after"] = rl.RetryAfter.Seconds()
		}
		c.JSON(http.StatusTooManyRequests, payload)

	case errors.Is(err, common.ErrNoInstructions):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "could not extract instructions after multiple attempts",
			"code":  "NO_INSTRUCTIONS",
		})

	case errors.Is(err, common.ErrMalformedResponse):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "AI service returned an unusable response",
			"code":  "MALFORMED_MODEL_RESPONSE",
		})

	case errors.Is(err, common.ErrModelNotFound):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "no configured model is available",
			"code":  "MODEL_UNAVAILABLE",
		})

	case errors.Is(err, common.ErrNoAPIKey):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "AI service is not configured",
			"code":  common.ErrCodeServiceUnavail,
		})

	default:
		common.LogError("extraction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "extraction failed",
			"code":  common.ErrCodeInternalError,
		})
	}
}
