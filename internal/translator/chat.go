package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/valpere/mdtrans/internal/postprocess"
)

const (
	DefaultEndpoint = "https://api.siliconflow.cn/v1/chat/completions"
	DefaultModel    = "Pro/deepseek-ai/DeepSeek-R1"
)

// ChatConfig describes one OpenAI-compatible chat-completions endpoint.
type ChatConfig struct {
	Endpoint     string
	APIKey       string
	Model        string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
	Retry        RetryPolicy
}

// ChatService is the remote translation client. Each Translate call sends
// the whole text as one user message and retries transient failures
// according to the configured policy.
type ChatService struct {
	cfg    ChatConfig
	client *resty.Client
	logger zerolog.Logger
}

func NewChatService(cfg ChatConfig, logger zerolog.Logger) *ChatService {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.Attempts < 1 {
		cfg.Retry.Attempts = 3
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ChatService{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "translator").Str("model", cfg.Model).Logger(),
	}
}

func (s *ChatService) Model() string { return s.cfg.Model }

func (s *ChatService) SystemPrompt() string { return s.cfg.SystemPrompt }

// Translate returns the translated text or a *TranslationError.
func (s *ChatService) Translate(ctx context.Context, text string) (string, error) {
	policy := s.cfg.Retry
	policy.Retryable = isTransient
	policy.OnFailure = func(attempt int, err error) {
		s.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", policy.Attempts).
			Msg("translation attempt failed")
	}

	var translated string
	attempts, err := Retry(ctx, policy, func(ctx context.Context) error {
		out, err := s.complete(ctx, text)
		if err != nil {
			return err
		}
		translated = out
		return nil
	})
	if err == nil {
		return translated, nil
	}

	if isTransient(err) || ctx.Err() != nil {
		s.logger.Error().Err(err).Int("attempts", attempts).Msg("API request failed")
		return "", unavailable(attempts, err)
	}
	s.logger.Error().Err(err).Msg("unexpected translation response")
	return "", processing(attempts, err)
}

// complete performs one request. Transport failures and non-2xx statuses
// come back as *transientError; anything else is a processing failure.
func (s *ChatService) complete(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.APIKey).
		SetBody(req).
		Post(s.cfg.Endpoint)
	if err != nil {
		return "", &transientError{err: fmt.Errorf("request failed: %w", err)}
	}

	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return "", &transientError{
			StatusCode: code,
			err:        fmt.Errorf("API returned status %d: %s", code, truncate(resp.String(), 300)),
		}
	}

	var body openai.ChatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", errors.New("empty response from API: no choices")
	}

	content := postprocess.Clean(body.Choices[0].Message.Content)
	if strings.TrimSpace(content) == "" {
		return "", errors.New("empty translation in response")
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
