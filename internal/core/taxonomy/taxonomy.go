// Package taxonomy defines the three closed vocabularies that constrain the
// categorical recipe fields. The lists are configuration data: order and
// spelling matter for compatibility with stored records.
package taxonomy

import "strings"

// MaxDishTypes is the maximum number of dish types kept on a recipe.
const MaxDishTypes = 3

// Genres is the fixed cuisine/style vocabulary.
var Genres = []string{
	"American",
	"Italian",
	"Mexican",
	"Chinese",
	"Japanese",
	"Thai",
	"Vietnamese",
	"Korean",
	"Indian",
	"French",
	"Greek",
	"Spanish",
	"Mediterranean",
	"Middle Eastern",
	"Moroccan",
	"Ethiopian",
	"Caribbean",
	"Cajun/Creole",
	"Southern",
	"Tex-Mex",
	"German",
	"British",
	"Irish",
	"Eastern European",
	"Russian",
	"Scandinavian",
	"Brazilian",
	"Peruvian",
	"Filipino",
	"Fusion",
}

// DishTypes is the fixed meal/category vocabulary.
var DishTypes = []string{
	"Appetizer",
	"Soup",
	"Stew",
	"Salad",
	"Sandwich",
	"Wrap",
	"Burger",
	"Pizza",
	"Pasta",
	"Noodles",
	"Rice Dish",
	"Grain Bowl",
	"Bowl",
	"Casserole",
	"Stir-Fry",
	"Curry",
	"Tacos",
	"Main Course",
	"Side Dish",
	"Breakfast",
	"Brunch",
	"Lunch",
	"Dinner",
	"Dessert",
	"Cake",
	"Cookies",
	"Pie",
	"Pastry",
	"Bread",
	"Muffins",
	"Snack",
	"Dip",
	"Sauce",
	"Dressing",
	"Marinade",
	"Beverage",
	"Smoothie",
	"Cocktail",
	"Preserves",
	"Slow Cooker",
}

// CookingMethods is the fixed cooking technique vocabulary.
var CookingMethods = []string{
	"Bake",
	"Grill",
	"Stovetop",
	"Roast",
	"Fry",
	"Slow Cook",
	"Steam",
	"No-Cook",
}

var (
	genreIndex  = buildIndex(Genres)
	dishIndex   = buildIndex(DishTypes)
	methodIndex = buildIndex(CookingMethods)
)

func buildIndex(labels []string) map[string]string {
	idx := make(map[string]string, len(labels))
	for _, label := range labels {
		idx[strings.ToLower(label)] = label
	}
	return idx
}

// ValidateGenre returns the canonical genre label for value, or ok=false
// when value is not a member. Matching is case-insensitive; models echo
// labels with arbitrary casing.
func ValidateGenre(value string) (string, bool) {
	label, ok := genreIndex[strings.ToLower(strings.TrimSpace(value))]
	return label, ok
}

// ValidateMethod returns the canonical cooking method label for value, or
// ok=false when value is not a member.
func ValidateMethod(value string) (string, bool) {
	label, ok := methodIndex[strings.ToLower(strings.TrimSpace(value))]
	return label, ok
}

// ValidateDishType returns the canonical dish type label for value, or
// ok=false when value is not a member.
func ValidateDishType(value string) (string, bool) {
	label, ok := dishIndex[strings.ToLower(strings.TrimSpace(value))]
	return label, ok
}

// ValidateDishTypes filters values to vocabulary members, preserving input
// order, dropping duplicates, and truncating to the first MaxDishTypes valid
// matches. It never errors on 0 or too many candidates.
func ValidateDishTypes(values []string) []string {
	var out []string
	seen := make(map[string]bool, MaxDishTypes)
	for _, v := range values {
		label, ok := dishIndex[strings.ToLower(strings.TrimSpace(v))]
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
		if len(out) == MaxDishTypes {
			break
		}
	}
	return out
}
