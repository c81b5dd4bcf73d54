package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL: OpenAI-совместимый endpoint Groq.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Options задаёт параметры модели для всех запросов генератора.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = "llama-3.3-70b-versatile"
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 4096
	}
	if o.Timeout <= 0 {
		o.Timeout = 90 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 2
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	return o
}

// OpenAIGenerator реализует GenerationService через chat completions.
type OpenAIGenerator struct {
	client *openai.Client
	opts   Options
}

func NewOpenAIGenerator(opts Options) *OpenAIGenerator {
	opts = opts.withDefaults()

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg), opts: opts}
}

// Complete отправляет один запрос; временные ошибки (429, 5xx, таймаут) повторяются.
func (g *OpenAIGenerator) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       g.opts.Model,
		Messages:    messages,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	}

	log := logger.L().WithFields(logrus.Fields{"operation": req.Operation, "model": g.opts.Model})

	var lastErr error
	backoff := g.opts.Backoff
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		resp, err := g.client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", nil
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if !isTransient(err) || attempt == g.opts.MaxAttempts {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("ai: временная ошибка, повторяем запрос")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return "", fmt.Errorf("ai: запрос %s не выполнен: %w", req.Operation, lastErr)
}

func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
