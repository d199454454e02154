package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService calls Cloud Translation v2. It ignores the domain, audience
// and glossary attributes, which the API has no way to express.
type GoogleService struct {
	opts []option.ClientOption
}

func NewGoogleService(cfg ServiceConfig) *GoogleService {
	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	return &GoogleService{opts: opts}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceTag, err := language.Parse(req.SourceLang.ISO())
	if err != nil {
		result.Error = fmt.Sprintf("invalid source language: %v", err)
		return result, fmt.Errorf("invalid source language %q: %w", req.SourceLang, err)
	}
	targetTag, err := language.Parse(req.TargetLang.ISO())
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)
	}

	client, err := translate.NewClient(ctx, s.opts...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, &translate.Options{
		Source: sourceTag,
		Format: translate.Text,
		Model:  cfg.Model,
	})
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}

	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = translations[0].Text
	result.Confidence = 0.8
	if translations[0].Model != "" {
		result.Metadata = map[string]string{"model": translations[0].Model}
	}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}
