package extract

import (
	"context"
	"strings"
	"testing"

	"recipe-scanner/internal/core/ai"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider replays canned responses and errors in call order. The last
// response repeats once the list runs out.
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
	requests  []*ai.Request
}

func (f *fakeProvider) Generate(_ context.Context, req *ai.Request) (*ai.Response, error) {
	idx := f.calls
	f.calls++
	f.requests = append(f.requests, req)

	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if len(f.responses) == 0 {
		return nil, common.ErrMalformedResponse
	}
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return &ai.Response{Content: f.responses[idx], Model: "test-model"}, nil
}

func (f *fakeProvider) Close() error { return nil }

const fullRecipeJSON = `{
	"recipe_name": "CHICKEN SOUP",
	"servings": "4-6",
	"ingredients": [{"quantity": "1", "unit": "lb", "item": "chicken", "notes": ""}],
	"instructions": [{"step_number": 1, "text": "Simmer the chicken."}],
	"nutrition": {"calories": 250, "protein_g": 20, "fat_g": 8, "carbs_g": 12},
	"genre_of_food": "american",
	"type_of_dish": ["Soup"],
	"method_of_cooking": "stovetop"
}`

const noInstructionsJSON = `{
	"recipe_name": "Mystery Dish",
	"ingredients": [{"quantity": "", "unit": "", "item": "salt", "notes": ""}],
	"instructions": []
}`

func testAttachment() *ai.Attachment {
	return &ai.Attachment{MIMEType: "image/jpeg", FileName: "photo.jpg", Data: []byte("fake")}
}

func TestExtractSuccessFirstAttempt(t *testing.T) {
	provider := &fakeProvider{responses: []string{fullRecipeJSON}}
	svc := NewService(provider, config.ExtractConfig{MaxAttempts: 2, DefaultServings: 4})

	r, err := svc.Extract(context.Background(), testAttachment())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls, "complete nutrition means no estimation call")
	assert.Equal(t, "Chicken Soup", r.RecipeName)
	require.Len(t, r.Instructions, 1)
	require.NotNil(t, r.GenreOfFood)
	assert.Equal(t, "American", *r.GenreOfFood)
	require.NotNil(t, r.MethodOfCooking)
	assert.Equal(t, "Stovetop", *r.MethodOfCooking)
	assert.False(t, r.Nutrition.AIEstimated)
}

func TestExtractRetryTermination(t *testing.T) {
	provider := &fakeProvider{responses: []string{noInstructionsJSON}}
	svc := NewService(provider, config.ExtractConfig{MaxAttempts: 2, DefaultServings: 4})

	_, err := svc.Extract(context.Background(), testAttachment())
	assert.ErrorIs(t, err, common.ErrNoInstructions)
	assert.Equal(t, 2, provider.calls, "missing instructions must cause exactly two attempts")
}

func TestExtractRetryPromptAmended(t *testing.T) {
	provider := &fakeProvider{responses: []string{noInstructionsJSON, fullRecipeJSON}}
	svc := NewService(provider, config.ExtractConfig{MaxAttempts: 2, DefaultServings: 4})

	r, err := svc.Extract(context.Background(), testAttachment())
	require.NoError(t, err)
	assert.Equal(t, "Chicken Soup", r.RecipeName)

	require.Len(t, provider.requests, 2)
	first := provider.requests[0].Prompt
	second := provider.requests[1].Prompt
	assert.NotContains(t, first, "previous reading")
	assert.Contains(t, second, "previous reading", "retry prompt must add instruction emphasis")
	assert.NotNil(t, provider.requests[1].Attachment, "retry resends the document")
}

func TestExtractRateLimitFatal(t *testing.T) {
	provider := &fakeProvider{errs: []error{&common.RateLimitError{}}}
	svc := NewService(provider, config.ExtractConfig{MaxAttempts: 2, DefaultServings: 4})

	_, err := svc.Extract(context.Background(), testAttachment())
	require.Error(t, err)
	assert.True(t, common.IsRateLimit(err))
	assert.Equal(t, 1, provider.calls, "rate limit must not be retried")
}

func TestExtractMalformedReplyFatal(t *testing.T) {
	provider := &fakeProvider{responses: []string{"total garbage, no JSON"}}
	svc := NewService(provider, config.ExtractConfig{MaxAttempts: 2, DefaultServings: 4})

	_, err := svc.Extract(context.Background(), testAttachment())
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
	assert.Equal(t, 1, provider.calls, "parse failure is not retried")
}

func TestExtractFillsMissingNutrition(t *testing.T) {
	noNutrition := strings.Replace(fullRecipeJSON,
		`"nutrition": {"calories": 250, "protein_g": 20, "fat_g": 8, "carbs_g": 12},`, "", 1)
	provider := &fakeProvider{responses: []string{
		noNutrition,
		`{"calories": 300, "protein_g": 25, "fat_g": 10, "carbs_g": 15}`,
	}}
	svc := NewService(provider, config.ExtractConfig{MaxAttempts: 2, DefaultServings: 4})

	r, err := svc.Extract(context.Background(), testAttachment())
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
	require.NotNil(t, r.Nutrition)
	assert.True(t, r.Nutrition.AIEstimated)
	require.NotNil(t, r.Nutrition.ServingsUsed)
	assert.Equal(t, 5, *r.Nutrition.ServingsUsed, "servings range 4-6 parses to 5")
	assert.Equal(t, 300.0, *r.Nutrition.Calories)

	// The estimation request carries no attachment, only ingredient text.
	assert.Nil(t, provider.requests[1].Attachment)
	assert.Contains(t, provider.requests[1].Prompt, "chicken")
}
