package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient is a Provider backed by the OpenRouter chat completions
// API. It walks the configured model chain in order and falls through to the
// next model only when the provider reports the current one as unknown.
type OpenRouterClient struct {
	client *resty.Client
	cfg    config.OpenRouterConfig
}

// NewOpenRouterClient creates a client for the configured fallback chain.
func NewOpenRouterClient(cfg config.OpenRouterConfig) *OpenRouterClient {
	client := resty.New().
		SetBaseURL(openRouterBaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-scanner.com").
		SetHeader("X-Title", "Recipe Scanner").
		SetTimeout(cfg.Timeout)

	return &OpenRouterClient{client: client, cfg: cfg}
}

func (c *OpenRouterClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c.cfg.APIKey == "" {
		return nil, common.ErrNoAPIKey
	}

	var lastErr error
	for _, model := range c.cfg.Models {
		resp, err := c.generateWithModel(ctx, model, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Only an unknown model justifies falling through; rate limits and
		// auth failures would fail on every entry the same way.
		if errors.Is(err, common.ErrModelNotFound) {
			common.LogWarn("model not available, trying next in chain",
				zap.String("model", model))
			continue
		}
		return nil, err
	}

	if lastErr == nil {
		lastErr = common.ErrModelNotFound
	}
	return nil, fmt.Errorf("all models in fallback chain failed: %w", lastErr)
}

func (c *OpenRouterClient) generateWithModel(ctx context.Context, model string, req *Request) (*Response, error) {
	msgContent := []map[string]interface{}{
		{
			"type": "text",
			"text": req.Prompt,
		},
	}
	if att := req.Attachment; att != nil {
		dataURI := fmt.Sprintf("data:%s;base64,%s", att.MIMEType, base64.StdEncoding.EncodeToString(att.Data))
		if att.IsImage() {
			msgContent = append(msgContent, map[string]interface{}{
				"type": "image_url",
				"image_url": map[string]string{
					"url": dataURI,
				},
			})
		} else {
			msgContent = append(msgContent, map[string]interface{}{
				"type": "file",
				"file": map[string]string{
					"filename":  att.FileName,
					"file_data": dataURI,
				},
			})
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	body := map[string]interface{}{
		"model": model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": msgContent,
			},
		},
		"max_tokens": maxTokens,
	}

	common.LogInfo("sending request to OpenRouter",
		zap.String("model", model),
		zap.Bool("has_attachment", req.Attachment != nil),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")

	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, classifyStatusError(resp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage Usage `json:"usage"`
	}

	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: no choices in OpenRouter response", common.ErrMalformedResponse)
	}

	common.LogInfo("received response from OpenRouter",
		zap.String("model", model),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return &Response{
		Content: result.Choices[0].Message.Content,
		Model:   model,
		Usage:   result.Usage,
	}, nil
}

// classifyStatusError maps provider HTTP failures onto the sentinel errors
// the extraction pipeline branches on.
func classifyStatusError(resp *resty.Response) error {
	bodyLower := strings.ToLower(resp.String())

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return common.ErrModelNotFound
	case http.StatusBadRequest:
		if strings.Contains(bodyLower, "not a valid model") || strings.Contains(bodyLower, "model not found") {
			return common.ErrModelNotFound
		}
	case http.StatusTooManyRequests:
		return &common.RateLimitError{RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After"))}
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: provider rejected credentials (status %d)", common.ErrNoAPIKey, resp.StatusCode())
	}

	return fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), resp.String())
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func (c *OpenRouterClient) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
