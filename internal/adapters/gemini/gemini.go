// Package gemini adapts the Google GenAI SDK to the ModelProvider
// port. The only provider failure the pipeline distinguishes is quota
// exhaustion, which is surfaced as errors.QuotaError with the delay the
// API suggested; everything else passes through opaque.
package gemini

import (
	"context"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"finscout/internal/platform/errors"
	"finscout/internal/platform/logx"
)

// Provider is a genai-backed ModelProvider.
type Provider struct {
	client *genai.Client
	logger logx.Logger
}

// New creates the provider. The API key is mandatory; the client itself
// performs no network calls until Generate.
func New(ctx context.Context, apiKey string, logger logx.Logger) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gemini: failed to create client")
	}

	return &Provider{
		client: client,
		logger: logger.With("component", "gemini"),
	}, nil
}

// Generate sends one prompt to the named model and returns its text.
func (p *Provider) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", p.classify(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.Wrap(errors.ErrInvalidResponse, "model returned empty text")
	}
	return text, nil
}

// classify maps HTTP 429 rejections to QuotaError, extracting the
// RetryInfo delay when the API includes one.
func (p *Provider) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		delay := retryDelayOf(apiErr)
		p.logger.Warn("quota exhausted", "retry_after", delay.String())
		return errors.NewQuotaError(delay, err)
	}
	return errors.Wrap(err, "gemini: generate failed")
}

// retryDelayOf digs the google.rpc.RetryInfo detail out of an API
// error. Zero when absent; the invoker applies its own default then.
func retryDelayOf(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		t, _ := detail["@type"].(string)
		if !strings.HasSuffix(t, "RetryInfo") {
			continue
		}
		raw, _ := detail["retryDelay"].(string)
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 0
}
