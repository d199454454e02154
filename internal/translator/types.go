package translator

import (
	"context"
	"errors"
	"time"

	"github.com/kalimax/kalimax/internal/corpus"
)

var (
	ErrEmptyText       = errors.New("nothing to translate")
	ErrEmptyResult     = errors.New("service returned an empty translation")
	ErrPlaceholderLost = errors.New("translation dropped protected spans")
	ErrUnknownProvider = errors.New("unknown inference provider")
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
	// Retries is the number of extra attempts after a failed call.
	Retries int `mapstructure:"retries" json:"retries"`
}

// TranslateRequest carries already-normalized text and the attributes that
// condition the model, mirroring the control tokens of a training record.
type TranslateRequest struct {
	Text       string          `json:"text"`
	SourceLang corpus.Language `json:"source_lang"`
	TargetLang corpus.Language `json:"target_lang"`
	Domain     corpus.Domain   `json:"domain"`
	Audience   corpus.Audience `json:"audience"`

	// Glossary maps source terms to the exact target terms to use.
	Glossary map[string]string `json:"glossary,omitempty"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

// TranslationService is one inference backend. Backends return the raw model
// output; cleanup and placeholder restoration happen in Service.
type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
}
