package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/placeholder"
	"github.com/kalimax/kalimax/internal/policy"
	"github.com/kalimax/kalimax/internal/postprocess"
	"github.com/kalimax/kalimax/internal/store"
)

const retryBackoff = 500 * time.Millisecond

// Memory is the translation-memory side of the store.
type Memory interface {
	CachedTranslation(ctx context.Context, key store.MemoryKey) (store.MemoryEntry, bool, error)
	SaveTranslation(ctx context.Context, key store.MemoryKey, e store.MemoryEntry) error
}

// Result is a finished translation.
type Result struct {
	Text       string
	Confidence float64
	Service    string
	Cached     bool
	Latency    time.Duration
	Metadata   map[string]string
}

// Service wraps a backend with normalization, translation memory, dosage
// shielding and output cleanup.
type Service struct {
	backend TranslationService
	cfg     ServiceConfig
	norm    *normalizer.Normalizer
	memory  Memory
	log     *zap.Logger
}

// NewService creates a Service. memory and log may be nil.
func NewService(backend TranslationService, cfg ServiceConfig, norm *normalizer.Normalizer, memory Memory, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{backend: backend, cfg: cfg, norm: norm, memory: memory, log: log}
}

func (s *Service) Name() string {
	return s.backend.Name()
}

func (s *Service) IsAvailable(ctx context.Context) error {
	return s.backend.IsAvailable(ctx)
}

// Translate normalizes req.Text, answers from memory when it can, and
// otherwise calls the backend. Numbers and dose quantities are replaced by
// placeholders for the call; a response that loses any of them is rejected.
func (s *Service) Translate(ctx context.Context, req TranslateRequest) (*Result, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	key := store.MemoryKey{
		SourceText: req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Audience:   req.Audience,
	}
	if s.memory != nil {
		entry, ok, err := s.memory.CachedTranslation(ctx, key)
		if err != nil {
			s.log.Warn("translation memory lookup failed", zap.Error(err))
		} else if ok {
			s.log.Debug("translation memory hit", zap.String("service", entry.ServiceUsed))
			return &Result{Text: entry.Text, Confidence: entry.Confidence, Service: entry.ServiceUsed, Cached: true}, nil
		}
	}

	protected, markers := placeholder.Protect(req.Text)
	call := req
	call.Text = protected

	var res *Result
	backoff := retry.WithMaxRetries(uint64(max(s.cfg.Retries, 0)), retry.NewExponential(retryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := s.call(ctx, call, markers)
		if err != nil {
			if retryable(ctx, err) {
				s.log.Warn("translation attempt failed", zap.String("service", s.backend.Name()), zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.backend.Name(), err)
	}

	if s.memory != nil {
		entry := store.MemoryEntry{Text: res.Text, Confidence: res.Confidence, ServiceUsed: res.Service}
		if err := s.memory.SaveTranslation(ctx, key, entry); err != nil {
			s.log.Warn("translation memory save failed", zap.Error(err))
		}
	}
	return res, nil
}

// prepare validates the request attributes and normalizes the text.
func (s *Service) prepare(req TranslateRequest) (TranslateRequest, error) {
	var err error
	if req.SourceLang, err = corpus.ParseLanguage(string(req.SourceLang)); err != nil {
		return req, err
	}
	if req.TargetLang, err = corpus.ParseLanguage(string(req.TargetLang)); err != nil {
		return req, err
	}
	if req.SourceLang == req.TargetLang {
		return req, fmt.Errorf("source and target are both %s", req.SourceLang)
	}
	if req.Domain == "" {
		req.Domain = corpus.DomainGeneral
	}
	if req.Domain, err = corpus.ParseDomain(string(req.Domain)); err != nil {
		return req, err
	}
	if req.Audience == "" {
		req.Audience = policy.DefaultAudience
	}
	if req.Audience, err = corpus.ParseAudience(string(req.Audience)); err != nil {
		return req, err
	}

	req.Text = s.norm.Normalize(req.Text)
	if req.Text == "" {
		return req, ErrEmptyText
	}
	return req, nil
}

// call makes one backend request and turns its raw output into final text.
func (s *Service) call(ctx context.Context, req TranslateRequest, markers []string) (*Result, error) {
	raw, err := s.backend.Translate(ctx, s.cfg, req)
	if err != nil {
		return nil, err
	}

	text := postprocess.Clean(raw.TranslatedText)
	if missing := placeholder.Validate(text, markers); len(missing) > 0 {
		lost := make([]string, len(missing))
		for i, idx := range missing {
			lost[i] = markers[idx]
		}
		return nil, fmt.Errorf("%w: %q", ErrPlaceholderLost, lost)
	}
	text = s.norm.Normalize(placeholder.Restore(text, markers))
	if text == "" {
		return nil, ErrEmptyResult
	}

	return &Result{
		Text:       text,
		Confidence: raw.Confidence,
		Service:    raw.ServiceName,
		Latency:    raw.Latency,
		Metadata:   raw.Metadata,
	}, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, corpus.ErrUnknownEnum)
}
