package recipe

import "time"

// Ingredient is one entry of a recipe's ingredient list. All fields default
// to the empty string, never null.
type Ingredient struct {
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Item     string `json:"item"`
	Notes    string `json:"notes"`
}

// Instruction is one numbered step. Text is non-empty after normalization.
type Instruction struct {
	StepNumber int    `json:"step_number"`
	Text       string `json:"text"`
}

// Nutrition holds per-serving values. Each field is independently nullable.
// AIEstimated is true when at least one field was filled by the estimation
// sub-flow rather than read from the source document; ServingsUsed is the
// serving count assumed for that estimation.
type Nutrition struct {
	Calories     *float64 `json:"calories"`
	ProteinG     *float64 `json:"protein_g"`
	FatG         *float64 `json:"fat_g"`
	CarbsG       *float64 `json:"carbs_g"`
	AIEstimated  bool     `json:"ai_estimated"`
	ServingsUsed *int     `json:"servings_used"`
}

// Empty reports whether no nutrition value is present.
func (n *Nutrition) Empty() bool {
	return n == nil || (n.Calories == nil && n.ProteinG == nil && n.FatG == nil && n.CarbsG == nil)
}

// Recipe is the canonical extracted/stored record.
//
// Servings is kept as text because source documents frequently give a range
// ("4-6"); numeric consumers parse it with ParseServings and use the rounded
// average.
type Recipe struct {
	ID     string `json:"id,omitempty" db:"id"`
	UserID string `json:"-" db:"user_id"`

	RecipeName      string        `json:"recipe_name" db:"recipe_name"`
	Author          *string       `json:"author" db:"author"`
	Description     *string       `json:"description" db:"description"`
	Link            *string       `json:"link" db:"link"`
	AuthorsNotes    *string       `json:"authors_notes" db:"authors_notes"`
	Servings        *string       `json:"servings" db:"servings"`
	PrepTimeMinutes *int          `json:"prep_time_minutes" db:"prep_time_minutes"`
	CookTimeMinutes *int          `json:"cook_time_minutes" db:"cook_time_minutes"`
	Ingredients     []Ingredient  `json:"ingredients" db:"-"`
	Instructions    []Instruction `json:"instructions" db:"-"`
	Nutrition       *Nutrition    `json:"nutrition" db:"-"`
	GenreOfFood     *string       `json:"genre_of_food" db:"genre_of_food"`
	TypeOfDish      []string      `json:"type_of_dish" db:"-"`
	MethodOfCooking *string       `json:"method_of_cooking" db:"method_of_cooking"`

	// User-supplied fields, never model-derived.
	MadeBefore bool    `json:"made_before" db:"made_before"`
	UserNotes  *string `json:"user_notes" db:"user_notes"`

	// Embedded media: the dish photo and/or a copy of the source document.
	Image            *string `json:"image" db:"image"`
	OriginalFile     *string `json:"original_file" db:"original_file"`
	OriginalFileName *string `json:"original_file_name" db:"original_file_name"`
	OriginalFileType *string `json:"original_file_type" db:"original_file_type"`

	// FileHash is the content hash of the uploaded source document; nil for
	// manually entered recipes.
	FileHash *string `json:"file_hash" db:"file_hash"`

	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
