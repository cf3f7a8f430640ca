// Package normalize coerces untrusted model output into the canonical
// Recipe shape. Nothing in here returns an error: missing or wrong-typed
// fields fall back to documented defaults.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/core/taxonomy"
)

// Normalize coerces a decoded JSON object into a Recipe. raw is expected to
// come from a decoder using json.Number so real numerics can be told apart
// from strings.
func Normalize(raw map[string]interface{}) *recipe.Recipe {
	r := &recipe.Recipe{}

	if name := stringField(raw, "recipe_name"); name != nil {
		r.RecipeName = TitleCaseIfMostlyUpper(*name)
	}
	if author := stringField(raw, "author"); author != nil {
		titled := TitleCaseIfMostlyUpper(*author)
		r.Author = &titled
	}
	r.Description = stringField(raw, "description")
	r.Link = stringField(raw, "link")
	r.AuthorsNotes = stringField(raw, "authors_notes")

	// Servings stays textual so ranges like "4-6" survive; the nutrition
	// sub-flow parses it later.
	r.Servings = stringField(raw, "servings")
	r.PrepTimeMinutes = intField(raw, "prep_time_minutes")
	r.CookTimeMinutes = intField(raw, "cook_time_minutes")

	r.Ingredients = ingredients(raw["ingredients"])
	r.Instructions = instructions(raw["instructions"])
	r.Nutrition = nutrition(raw["nutrition"])

	if genre := stringField(raw, "genre_of_food"); genre != nil {
		if label, ok := taxonomy.ValidateGenre(*genre); ok {
			r.GenreOfFood = &label
		}
	}
	r.TypeOfDish = taxonomy.ValidateDishTypes(stringSlice(raw["type_of_dish"]))
	if method := stringField(raw, "method_of_cooking"); method != nil {
		if label, ok := taxonomy.ValidateMethod(*method); ok {
			r.MethodOfCooking = &label
		}
	}

	return r
}

// TitleCaseIfMostlyUpper title-cases s when more than half of its alphabetic
// characters are uppercase. Scanned documents often render titles in
// all-caps; mixed-case text passes through untouched.
func TitleCaseIfMostlyUpper(s string) string {
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 || upper*2 <= letters {
		return s
	}

	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// coerceString converts scalar values to a trimmed string. Objects, arrays
// and nulls count as absent.
func coerceString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func stringField(raw map[string]interface{}, key string) *string {
	s, ok := coerceString(raw[key])
	if !ok || s == "" {
		return nil
	}
	return &s
}

// coerceNumber accepts only true numeric values; strings are not parsed.
func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func intField(raw map[string]interface{}, key string) *int {
	f, ok := coerceNumber(raw[key])
	if !ok || f < 0 {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func floatField(raw map[string]interface{}, key string) *float64 {
	f, ok := coerceNumber(raw[key])
	if !ok {
		return nil
	}
	return &f
}

func ingredients(v interface{}) []recipe.Ingredient {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	var out []recipe.Ingredient
	for _, item := range items {
		switch t := item.(type) {
		case map[string]interface{}:
			ing := recipe.Ingredient{
				Quantity: stringOrEmpty(t, "quantity"),
				Unit:     stringOrEmpty(t, "unit"),
				Item:     stringOrEmpty(t, "item"),
				Notes:    stringOrEmpty(t, "notes"),
			}
			out = append(out, ing)
		case string:
			// Some models flatten ingredients to plain strings.
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, recipe.Ingredient{Item: s})
			}
		}
	}
	return out
}

func stringOrEmpty(raw map[string]interface{}, key string) string {
	s, _ := coerceString(raw[key])
	return s
}

// instructions maps entries to numbered steps, dropping any whose text is
// empty after trimming and renumbering the survivors sequentially from 1.
func instructions(v interface{}) []recipe.Instruction {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	var out []recipe.Instruction
	for _, item := range items {
		var text string
		switch t := item.(type) {
		case map[string]interface{}:
			text = stringOrEmpty(t, "text")
		case string:
			text = strings.TrimSpace(t)
		}
		if text == "" {
			continue
		}
		out = append(out, recipe.Instruction{
			StepNumber: len(out) + 1,
			Text:       text,
		})
	}
	return out
}

func nutrition(v interface{}) *recipe.Nutrition {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	n := &recipe.Nutrition{
		Calories: floatField(raw, "calories"),
		ProteinG: floatField(raw, "protein_g"),
		FatG:     floatField(raw, "fat_g"),
		CarbsG:   floatField(raw, "carbs_g"),
	}
	if n.Empty() {
		return nil
	}
	return n
}

func stringSlice(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := coerceString(item); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
