package extract

import (
	"fmt"
	"strings"

	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/core/taxonomy"
)

const extractionSchema = `{
  "recipe_name": "string",
  "author": "string or null",
  "description": "string or null",
  "link": "string or null",
  "authors_notes": "string or null",
  "servings": "string or null (keep ranges like '4-6' as written)",
  "prep_time_minutes": "integer or null",
  "cook_time_minutes": "integer or null",
  "ingredients": [{"quantity": "string", "unit": "string", "item": "string", "notes": "string"}],
  "instructions": [{"step_number": 1, "text": "string"}],
  "nutrition": {"calories": "number or null", "protein_g": "number or null", "fat_g": "number or null", "carbs_g": "number or null"},
  "genre_of_food": "string or null",
  "type_of_dish": ["string"],
  "method_of_cooking": "string or null"
}`

// BuildExtractionPrompt returns the primary extraction prompt. The taxonomy
// vocabularies are embedded inline so the model constrains its own
// categorical answers. retry adds explicit emphasis on locating the
// instructions, used on the second attempt after an empty-instructions
// result.
func BuildExtractionPrompt(retry bool) string {
	var b strings.Builder

	b.WriteString("You are reading a photo or PDF of a recipe. ")
	b.WriteString("Transcribe it into a single JSON object with exactly this shape:\n\n")
	b.WriteString(extractionSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Respond with JSON only. No markdown, no commentary.\n")
	b.WriteString("- Use null for any field not present in the document. Never invent values.\n")
	b.WriteString("- Transcribe every instruction step in order, exactly as written.\n")
	b.WriteString(fmt.Sprintf("- genre_of_food must be one of: %s.\n", strings.Join(taxonomy.Genres, ", ")))
	b.WriteString(fmt.Sprintf("- type_of_dish must contain at most %d values, each one of: %s.\n",
		taxonomy.MaxDishTypes, strings.Join(taxonomy.DishTypes, ", ")))
	b.WriteString(fmt.Sprintf("- method_of_cooking must be one of: %s.\n", strings.Join(taxonomy.CookingMethods, ", ")))

	if retry {
		b.WriteString("\nIMPORTANT: your previous reading returned no instructions. ")
		b.WriteString("The document DOES contain preparation steps. Look again at the entire document, ")
		b.WriteString("including numbered lists, paragraphs of prose, side columns, and continuation text. ")
		b.WriteString("You MUST populate the instructions array with every step you can find.")
	}

	return b.String()
}

// BuildNutritionPrompt returns the estimation prompt for the nutrition
// sub-flow. missing names the sub-fields to estimate; servings is the
// per-serving divisor the model should assume.
func BuildNutritionPrompt(ingredients []recipe.Ingredient, servings int, missing []string) string {
	var b strings.Builder

	b.WriteString("Estimate the nutritional content of one serving of a recipe with these ingredients:\n\n")
	for _, ing := range ingredients {
		line := strings.TrimSpace(strings.Join([]string{ing.Quantity, ing.Unit, ing.Item}, " "))
		if line == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(line)
		if ing.Notes != "" {
			b.WriteString(" (")
			b.WriteString(ing.Notes)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nThe recipe makes %d servings. ", servings)
	fmt.Fprintf(&b, "Estimate only these per-serving values as integers: %s.\n", strings.Join(missing, ", "))
	b.WriteString("Respond with JSON only, in this shape: ")
	b.WriteString(`{"calories": integer, "protein_g": integer, "fat_g": integer, "carbs_g": integer}`)
	b.WriteString(", including only the requested fields.")

	return b.String()
}
