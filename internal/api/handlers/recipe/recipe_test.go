package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe-scanner/internal/api/middleware"
	recipeService "recipe-scanner/internal/core/recipe"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	recipes map[string]*recipeService.Recipe
}

func newMemStore() *memStore {
	return &memStore{recipes: make(map[string]*recipeService.Recipe)}
}

func (m *memStore) Create(_ context.Context, r *recipeService.Recipe) error {
	clone := *r
	m.recipes[r.ID] = &clone
	return nil
}

func (m *memStore) GetByID(_ context.Context, userID, id string) (*recipeService.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

func (m *memStore) List(_ context.Context, userID string) ([]*recipeService.Recipe, error) {
	var out []*recipeService.Recipe
	for _, r := range m.recipes {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, r *recipeService.Recipe) error {
	if _, ok := m.recipes[r.ID]; !ok {
		return errors.New("row not found")
	}
	clone := *r
	m.recipes[r.ID] = &clone
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, id string) (bool, error) {
	r, ok := m.recipes[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(m.recipes, id)
	return true, nil
}

func (m *memStore) Close() error { return nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(recipeService.NewService(newMemStore()))

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(middleware.UserAuth())
	v1.POST("/recipes", h.Create)
	v1.GET("/recipes", h.List)
	v1.GET("/recipes/:id", h.Get)
	v1.PATCH("/recipes/:id", h.Update)
	v1.DELETE("/recipes/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, url, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createRecipe(t *testing.T, router *gin.Engine, userID, body string) *recipeService.Recipe {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/recipes", userID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var r recipeService.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return &r
}

func TestCreateRequiresAuth(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/recipes", "", `{"recipe_name": "Soup"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGet(t *testing.T) {
	router := newTestRouter()

	created := createRecipe(t, router, "user-1", `{
		"recipe_name": "Chicken Soup",
		"servings": "4-6",
		"type_of_dish": ["soup"],
		"ingredients": [{"quantity": "1", "unit": "lb", "item": "chicken", "notes": ""}]
	}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"Soup"}, created.TypeOfDish, "taxonomy values are canonicalized")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+created.ID, "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got recipeService.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Chicken Soup", got.RecipeName)
	require.NotNil(t, got.Servings)
	assert.Equal(t, "4-6", *got.Servings)
}

func TestCreateInvalidBody(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/recipes", "user-1", `{"recipe_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMissingName(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/recipes", "user-1", `{"description": "no name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScopedToOwner(t *testing.T) {
	router := newTestRouter()

	created := createRecipe(t, router, "user-1", `{"recipe_name": "Soup"}`)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+created.ID, "user-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList(t *testing.T) {
	router := newTestRouter()

	createRecipe(t, router, "user-1", `{"recipe_name": "Soup"}`)
	createRecipe(t, router, "user-1", `{"recipe_name": "Pie"}`)
	createRecipe(t, router, "user-2", `{"recipe_name": "Cake"}`)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/recipes", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Recipes []*recipeService.Recipe `json:"recipes"`
		Count   int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestListEmpty(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/recipes", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recipes":[]`)
}

func TestPatch(t *testing.T) {
	router := newTestRouter()

	created := createRecipe(t, router, "user-1", `{"recipe_name": "Soup", "user_notes": "too salty"}`)

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/recipes/"+created.ID, "user-1", `{
		"made_before": true,
		"user_notes": null
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated recipeService.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.MadeBefore)
	assert.Nil(t, updated.UserNotes)
	assert.Equal(t, "Soup", updated.RecipeName, "omitted fields stay unchanged")
}

func TestPatchRejectsInvalidTaxonomy(t *testing.T) {
	router := newTestRouter()

	created := createRecipe(t, router, "user-1", `{"recipe_name": "Soup"}`)

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/recipes/"+created.ID, "user-1",
		`{"genre_of_food": "Klingon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	router := newTestRouter()

	created := createRecipe(t, router, "user-1", `{"recipe_name": "Soup"}`)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/recipes/"+created.ID, "user-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+created.ID, "user-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteOtherUsersRecipe(t *testing.T) {
	router := newTestRouter()

	created := createRecipe(t, router, "user-1", `{"recipe_name": "Soup"}`)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/recipes/"+created.ID, "user-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
