// Package recipe holds the canonical recipe record, its persistence layer,
// and the owner-scoped CRUD service.
package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-scanner/internal/core/taxonomy"
	"recipe-scanner/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Patch is a partial update. Keys absent from the map leave the field
// unchanged; a key with a JSON null clears the field. Unknown and read-only
// keys are ignored.
type Patch map[string]json.RawMessage

// Service implements owner-scoped recipe CRUD on top of a Store.
type Service struct {
	store Store
}

// NewService creates a recipe service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and persists a new recipe owned by userID. The ID and
// timestamps are assigned here.
func (s *Service) Create(ctx context.Context, userID string, r *Recipe) (*Recipe, error) {
	r.RecipeName = strings.TrimSpace(r.RecipeName)
	if r.RecipeName == "" {
		return nil, common.NewError(common.ErrCodeInvalidRequest, "recipe_name is required", http.StatusBadRequest, nil)
	}
	if err := validateTaxonomy(r); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r.ID = uuid.New().String()
	r.UserID = userID
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}

	common.LogInfo("recipe created",
		zap.String("recipe_id", r.ID),
		zap.String("user_id", userID))
	return r, nil
}

// Get returns one recipe owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	r, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, common.ErrNotFound
	}
	return r, nil
}

// List returns all recipes owned by userID, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]*Recipe, error) {
	return s.store.List(ctx, userID)
}

// Update applies a partial update to a recipe owned by userID and returns
// the updated record.
func (s *Service) Update(ctx context.Context, userID, id string, patch Patch) (*Recipe, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(r, patch); err != nil {
		return nil, err
	}
	if err := validateTaxonomy(r); err != nil {
		return nil, err
	}

	r.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}

	common.LogInfo("recipe updated",
		zap.String("recipe_id", r.ID),
		zap.String("user_id", userID),
		zap.Int("fields_patched", len(patch)))
	return r, nil
}

// Delete removes a recipe owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return common.ErrNotFound
	}

	common.LogInfo("recipe deleted",
		zap.String("recipe_id", id),
		zap.String("user_id", userID))
	return nil
}

func applyPatch(r *Recipe, patch Patch) error {
	for key, raw := range patch {
		var err error
		switch key {
		case "recipe_name":
			var v string
			if err = json.Unmarshal(raw, &v); err == nil {
				v = strings.TrimSpace(v)
				if v == "" {
					return common.NewError(common.ErrCodeInvalidRequest, "recipe_name cannot be empty", http.StatusBadRequest, nil)
				}
				r.RecipeName = v
			}
		case "author":
			err = json.Unmarshal(raw, &r.Author)
		case "description":
			err = json.Unmarshal(raw, &r.Description)
		case "link":
			err = json.Unmarshal(raw, &r.Link)
		case "authors_notes":
			err = json.Unmarshal(raw, &r.AuthorsNotes)
		case "servings":
			err = json.Unmarshal(raw, &r.Servings)
		case "prep_time_minutes":
			err = json.Unmarshal(raw, &r.PrepTimeMinutes)
		case "cook_time_minutes":
			err = json.Unmarshal(raw, &r.CookTimeMinutes)
		case "ingredients":
			r.Ingredients = nil
			err = json.Unmarshal(raw, &r.Ingredients)
		case "instructions":
			r.Instructions = nil
			err = json.Unmarshal(raw, &r.Instructions)
		case "nutrition":
			r.Nutrition = nil
			err = json.Unmarshal(raw, &r.Nutrition)
		case "genre_of_food":
			err = json.Unmarshal(raw, &r.GenreOfFood)
		case "type_of_dish":
			r.TypeOfDish = nil
			err = json.Unmarshal(raw, &r.TypeOfDish)
		case "method_of_cooking":
			err = json.Unmarshal(raw, &r.MethodOfCooking)
		case "made_before":
			err = json.Unmarshal(raw, &r.MadeBefore)
		case "user_notes":
			err = json.Unmarshal(raw, &r.UserNotes)
		case "image":
			err = json.Unmarshal(raw, &r.Image)
		default:
			// Read-only and unknown fields are skipped.
		}
		if err != nil {
			return common.NewError(common.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid value for field %q", key), http.StatusBadRequest, err)
		}
	}
	return nil
}

// validateTaxonomy canonicalizes the categorical fields and rejects values
// outside their vocabularies. User writes are strict, unlike model output
// which is silently filtered.
func validateTaxonomy(r *Recipe) error {
	if r.GenreOfFood != nil {
		label, ok := taxonomy.ValidateGenre(*r.GenreOfFood)
		if !ok {
			return common.NewError(common.ErrCodeInvalidRequest,
				fmt.Sprintf("unknown genre_of_food %q", *r.GenreOfFood), http.StatusBadRequest, nil)
		}
		r.GenreOfFood = &label
	}
	if r.MethodOfCooking != nil {
		label, ok := taxonomy.ValidateMethod(*r.MethodOfCooking)
		if !ok {
			return common.NewError(common.ErrCodeInvalidRequest,
				fmt.Sprintf("unknown method_of_cooking %q", *r.MethodOfCooking), http.StatusBadRequest, nil)
		}
		r.MethodOfCooking = &label
	}
	if len(r.TypeOfDish) > 0 {
		for _, v := range r.TypeOfDish {
			if _, ok := taxonomy.ValidateDishType(v); !ok {
				return common.NewError(common.ErrCodeInvalidRequest,
					fmt.Sprintf("unknown type_of_dish %q", v), http.StatusBadRequest, nil)
			}
		}
		// Duplicates and anything past the first three are dropped silently.
		r.TypeOfDish = taxonomy.ValidateDishTypes(r.TypeOfDish)
	}
	return nil
}
