// Package extract drives the document-to-recipe pipeline: prompt the vision
// model, repair and decode its reply, normalize it, and fill missing
// nutrition values with a secondary estimation call.
package extract

import (
	"context"
	"fmt"

	"recipe-scanner/internal/core/ai"
	"recipe-scanner/internal/core/normalize"
	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Service runs extraction requests. It is stateless; every request is
// independent.
type Service struct {
	provider ai.Provider
	cfg      config.ExtractConfig
}

// NewService creates an extraction service on top of a model provider.
func NewService(provider ai.Provider, cfg config.ExtractConfig) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Extract transcribes an uploaded document into a normalized Recipe.
//
// Empty instructions after normalization fail the attempt and trigger one
// retry with an amended prompt; the attempt budget is cfg.MaxAttempts in
// total. Any other failure (transport, rate limit, unparseable reply) aborts
// immediately without consuming further attempts.
func (s *Service) Extract(ctx context.Context, att *ai.Attachment) (*recipe.Recipe, error) {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		prompt := BuildExtractionPrompt(attempt > 1)

		resp, err := s.provider.Generate(ctx, &ai.Request{
			Prompt:     prompt,
			Attachment: att,
		})
		if err != nil {
			return nil, fmt.Errorf("extraction attempt %d: %w", attempt, err)
		}

		raw, err := ParseModelJSON(resp.Content)
		if err != nil {
			return nil, fmt.Errorf("extraction attempt %d: %w", attempt, err)
		}

		r := normalize.Normalize(raw)
		if len(r.Instructions) == 0 {
			common.LogWarn("extraction returned no instructions",
				zap.Int("attempt", attempt),
				zap.String("model", resp.Model))
			continue
		}

		common.LogInfo("extraction succeeded",
			zap.Int("attempt", attempt),
			zap.String("model", resp.Model),
			zap.Int("instructions", len(r.Instructions)),
			zap.Int("ingredients", len(r.Ingredients)))

		s.completeNutrition(ctx, r)
		return r, nil
	}

	return nil, common.ErrNoInstructions
}
