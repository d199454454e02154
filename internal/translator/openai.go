package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIService talks to any OpenAI-compatible chat completions endpoint:
// the OpenAI API itself, OpenRouter, or a local vLLM server.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(cfg ServiceConfig) *OpenAIService {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	model := cfg.Model
	if model == "" {
		model = s.model
	}

	system, err := buildSystemPrompt(req)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return result, fmt.Errorf("API returned status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return result, err
	}

	if len(resp.Choices) == 0 {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	result.TranslatedText = resp.Choices[0].Message.Content
	result.Confidence = 0.7
	result.Metadata = map[string]string{
		"model":             model,
		"prompt_tokens":     strconv.Itoa(resp.Usage.PromptTokens),
		"completion_tokens": strconv.Itoa(resp.Usage.CompletionTokens),
	}

	return result, nil
}

// IsAvailable lists the endpoint's models, which fails fast on a bad key or an
// unreachable server.
func (s *OpenAIService) IsAvailable(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai endpoint not available: %w", err)
	}
	return nil
}
