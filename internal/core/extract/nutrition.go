package extract

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"recipe-scanner/internal/core/ai"
	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

var servingsRangePattern = regexp.MustCompile(`^(\d+)\s*(?:-|–|to)\s*(\d+)$`)
var servingsPattern = regexp.MustCompile(`^\d+$`)

// ParseServings extracts a serving count from the free-text servings field.
// A range like "4-6" or "4 to 6" yields the rounded average; absent or
// unparseable text yields fallback. The stored servings text itself is never
// modified, this value exists only for per-serving nutrition estimation.
func ParseServings(servings *string, fallback int) int {
	if servings == nil {
		return fallback
	}
	s := strings.TrimSpace(*servings)

	if servingsPattern.MatchString(s) {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
		return fallback
	}

	if m := servingsRangePattern.FindStringSubmatch(s); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil && lo > 0 && hi > 0 {
			return int(math.Round(float64(lo+hi) / 2))
		}
	}

	return fallback
}

// nutritionField pairs a JSON key with the slot it fills on the Nutrition
// struct.
type nutritionField struct {
	key  string
	slot func(n *recipe.Nutrition) **float64
}

var nutritionFields = []nutritionField{
	{"calories", func(n *recipe.Nutrition) **float64 { return &n.Calories }},
	{"protein_g", func(n *recipe.Nutrition) **float64 { return &n.ProteinG }},
	{"fat_g", func(n *recipe.Nutrition) **float64 { return &n.FatG }},
	{"carbs_g", func(n *recipe.Nutrition) **float64 { return &n.CarbsG }},
}

// completeNutrition fills null nutrition sub-fields via a separate estimation
// call. Every failure in here is non-fatal: the recipe keeps whatever
// nutrition values it already has and no estimation flag is set.
func (s *Service) completeNutrition(ctx context.Context, r *recipe.Recipe) {
	if r.Nutrition == nil {
		r.Nutrition = &recipe.Nutrition{}
	}

	var missing []string
	for _, f := range nutritionFields {
		if *f.slot(r.Nutrition) == nil {
			missing = append(missing, f.key)
		}
	}
	if len(missing) == 0 {
		return
	}
	if len(r.Ingredients) == 0 {
		// Nothing to estimate from.
		if r.Nutrition.Empty() {
			r.Nutrition = nil
		}
		return
	}

	servings := ParseServings(r.Servings, s.cfg.DefaultServings)
	prompt := BuildNutritionPrompt(r.Ingredients, servings, missing)

	resp, err := s.provider.Generate(ctx, &ai.Request{Prompt: prompt})
	if err != nil {
		// Rate limits included: nutrition estimation degrades silently.
		common.LogWarn("nutrition estimation call failed",
			zap.Error(err),
			zap.Bool("rate_limited", common.IsRateLimit(err)))
		if r.Nutrition.Empty() {
			r.Nutrition = nil
		}
		return
	}

	raw, err := ParseModelJSON(resp.Content)
	if err != nil {
		common.LogWarn("nutrition estimation reply unparseable", zap.Error(err))
		if r.Nutrition.Empty() {
			r.Nutrition = nil
		}
		return
	}

	// Merge: values read from the document are never overwritten by
	// estimates; estimates fill only the null slots.
	filled := 0
	for _, f := range nutritionFields {
		slot := f.slot(r.Nutrition)
		if *slot != nil {
			continue
		}
		if v, ok := numericValue(raw[f.key]); ok && v >= 0 {
			value := v
			*slot = &value
			filled++
		}
	}

	if filled > 0 {
		r.Nutrition.AIEstimated = true
		r.Nutrition.ServingsUsed = &servings
		common.LogInfo("nutrition estimated",
			zap.Int("fields_filled", filled),
			zap.Int("servings_used", servings))
	} else if r.Nutrition.Empty() {
		r.Nutrition = nil
	}
}

func numericValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	default:
		return 0, false
	}
}
