package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines persistence for recipe records. Every operation is scoped to
// one owner; a recipe is never visible outside the user that created it.
type Store interface {
	Create(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, userID, id string) (*Recipe, error)
	List(ctx context.Context, userID string) ([]*Recipe, error)
	Update(ctx context.Context, r *Recipe) error
	Delete(ctx context.Context, userID, id string) (bool, error)
	Close() error
}

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

const recipeColumns = `id, user_id, recipe_name, author, description, link, authors_notes,
	servings, prep_time_minutes, cook_time_minutes, ingredients, instructions, nutrition,
	genre_of_food, type_of_dish, method_of_cooking, made_before, user_notes,
	image, original_file, original_file_name, original_file_type, file_hash,
	created_at, updated_at`

// NewPostgresStore connects to the database and ensures the recipes table
// exists.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		recipe_name TEXT NOT NULL,
		author TEXT,
		description TEXT,
		link TEXT,
		authors_notes TEXT,
		servings TEXT,
		prep_time_minutes INTEGER,
		cook_time_minutes INTEGER,
		ingredients JSONB,
		instructions JSONB,
		nutrition JSONB,
		genre_of_food TEXT,
		type_of_dish JSONB,
		method_of_cooking TEXT,
		made_before BOOLEAN NOT NULL DEFAULT FALSE,
		user_notes TEXT,
		image TEXT,
		original_file TEXT,
		original_file_name TEXT,
		original_file_type TEXT,
		file_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON recipes (user_id);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipes table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// blobs holds the JSONB column encodings of a recipe's structured fields.
type blobs struct {
	ingredients  []byte
	instructions []byte
	nutrition    []byte
	typeOfDish   []byte
}

func marshalBlobs(r *Recipe) (*blobs, error) {
	var b blobs
	var err error

	if b.ingredients, err = json.Marshal(r.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	if b.instructions, err = json.Marshal(r.Instructions); err != nil {
		return nil, fmt.Errorf("failed to marshal instructions: %w", err)
	}
	if b.nutrition, err = json.Marshal(r.Nutrition); err != nil {
		return nil, fmt.Errorf("failed to marshal nutrition: %w", err)
	}
	if b.typeOfDish, err = json.Marshal(r.TypeOfDish); err != nil {
		return nil, fmt.Errorf("failed to marshal type_of_dish: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) Create(ctx context.Context, r *Recipe) error {
	b, err := marshalBlobs(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recipes (`+recipeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		r.ID, r.UserID, r.RecipeName, r.Author, r.Description, r.Link, r.AuthorsNotes,
		r.Servings, r.PrepTimeMinutes, r.CookTimeMinutes,
		b.ingredients, b.instructions, b.nutrition,
		r.GenreOfFood, b.typeOfDish, r.MethodOfCooking, r.MadeBefore, r.UserNotes,
		r.Image, r.OriginalFile, r.OriginalFileName, r.OriginalFileType, r.FileHash,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no row matches.
func (s *PostgresStore) GetByID(ctx context.Context, userID, id string) (*Recipe, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE id = $1 AND user_id = $2",
		id, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]*Recipe, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE user_id = $1 ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return recipes, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *Recipe) error {
	b, err := marshalBlobs(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE recipes SET
			recipe_name = $3, author = $4, description = $5, link = $6, authors_notes = $7,
			servings = $8, prep_time_minutes = $9, cook_time_minutes = $10,
			ingredients = $11, instructions = $12, nutrition = $13,
			genre_of_food = $14, type_of_dish = $15, method_of_cooking = $16,
			made_before = $17, user_notes = $18,
			image = $19, original_file = $20, original_file_name = $21, original_file_type = $22,
			file_hash = $23, updated_at = $24
		WHERE id = $1 AND user_id = $2`,
		r.ID, r.UserID, r.RecipeName, r.Author, r.Description, r.Link, r.AuthorsNotes,
		r.Servings, r.PrepTimeMinutes, r.CookTimeMinutes,
		b.ingredients, b.instructions, b.nutrition,
		r.GenreOfFood, b.typeOfDish, r.MethodOfCooking, r.MadeBefore, r.UserNotes,
		r.Image, r.OriginalFile, r.OriginalFileName, r.OriginalFileType, r.FileHash,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return nil
}

// Delete reports whether a row was actually removed.
func (s *PostgresStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM recipes WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipe(row rowScanner) (*Recipe, error) {
	var r Recipe
	var ingredientsJSON, instructionsJSON, nutritionJSON, typeOfDishJSON []byte
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&r.ID, &r.UserID, &r.RecipeName, &r.Author, &r.Description, &r.Link, &r.AuthorsNotes,
		&r.Servings, &r.PrepTimeMinutes, &r.CookTimeMinutes,
		&ingredientsJSON, &instructionsJSON, &nutritionJSON,
		&r.GenreOfFood, &typeOfDishJSON, &r.MethodOfCooking, &r.MadeBefore, &r.UserNotes,
		&r.Image, &r.OriginalFile, &r.OriginalFileName, &r.OriginalFileType, &r.FileHash,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// NULL JSONB columns scan as empty byte slices.
	if len(ingredientsJSON) > 0 {
		if err := json.Unmarshal(ingredientsJSON, &r.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
		}
	}
	if len(instructionsJSON) > 0 {
		if err := json.Unmarshal(instructionsJSON, &r.Instructions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal instructions: %w", err)
		}
	}
	if len(nutritionJSON) > 0 {
		if err := json.Unmarshal(nutritionJSON, &r.Nutrition); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nutrition: %w", err)
		}
	}
	if len(typeOfDishJSON) > 0 {
		if err := json.Unmarshal(typeOfDishJSON, &r.TypeOfDish); err != nil {
			return nil, fmt.Errorf("failed to unmarshal type_of_dish: %w", err)
		}
	}

	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt
	return &r, nil
}
