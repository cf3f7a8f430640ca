// Package recipe exposes the owner-scoped recipe CRUD endpoints.
package recipe

import (
	"errors"
	"net/http"

	"recipe-scanner/internal/api/middleware"
	recipeService "recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the /recipes resource.
type Handler struct {
	service *recipeService.Service
}

// NewHandler creates the recipe CRUD handler.
func NewHandler(service *recipeService.Service) *Handler {
	return &Handler{service: service}
}

// Create persists a new recipe for the authenticated user.
func (h *Handler) Create(c *gin.Context) {
	var r recipeService.Recipe
	if err := common.DecodeJSON(c.Request.Body, &r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	created, err := h.service.Create(c.Request.Context(), middleware.UserID(c), &r)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get returns one recipe by ID.
func (h *Handler) Get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

// List returns all recipes of the authenticated user.
func (h *Handler) List(c *gin.Context) {
	recipes, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if recipes == nil {
		recipes = []*recipeService.Recipe{}
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// Update applies a partial update. Fields absent from the body stay
// unchanged; fields set to null are cleared.
func (h *Handler) Update(c *gin.Context) {
	var patch recipeService.Patch
	if err := common.DecodeJSON(c.Request.Body, &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a recipe.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		c.JSON(ce.Status, gin.H{
			"error": ce.Message,
			"code":  ce.Code,
		})
		return
	}

	common.LogError("recipe operation failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
		"code":  common.ErrCodeInternalError,
	})
}
