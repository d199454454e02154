package translator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/store"
)

// stubBackend answers each call with the next scripted reply. The reply may
// refer to the protected input through {in}.
type stubBackend struct {
	replies []string
	errs    []error
	calls   []TranslateRequest
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) IsAvailable(context.Context) error { return nil }

func (b *stubBackend) Translate(_ context.Context, _ ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	i := len(b.calls)
	b.calls = append(b.calls, req)
	if i < len(b.errs) && b.errs[i] != nil {
		return &ServiceResult{ServiceName: b.Name(), Error: b.errs[i].Error()}, b.errs[i]
	}
	reply := b.replies[min(i, len(b.replies)-1)]
	return &ServiceResult{
		ServiceName:    b.Name(),
		TranslatedText: strings.ReplaceAll(reply, "{in}", req.Text),
		Confidence:     0.7,
	}, nil
}

func newTestNormalizer(t *testing.T) *normalizer.Normalizer {
	t.Helper()
	n, err := normalizer.New(normalizer.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}
	return n
}

func newTestMemory(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), store.Options{Path: filepath.Join(t.TempDir(), "tm.db")}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestService_ShieldsDosage(t *testing.T) {
	backend := &stubBackend{replies: []string{"<thinking>ok</thinking> \"Pran [PH0] chak [PH1]\""}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), nil, zaptest.NewLogger(t))

	res, err := svc.Translate(context.Background(), medicalRequest("Take  500 mg every 8 hours"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := backend.calls[0].Text; got != "Take [PH0] every [PH1]" {
		t.Errorf("backend saw %q", got)
	}
	if res.Text != "Pran 500 mg chak 8 hours" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Cached || res.Service != "stub" || res.Confidence != 0.7 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestService_LostPlaceholderFails(t *testing.T) {
	backend := &stubBackend{replies: []string{"Pran [PH0] chak uit èdtan"}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), nil, zaptest.NewLogger(t))

	_, err := svc.Translate(context.Background(), medicalRequest("Take 500 mg every 8 hours"))
	if !errors.Is(err, ErrPlaceholderLost) {
		t.Fatalf("expected ErrPlaceholderLost, got %v", err)
	}
	if !strings.Contains(err.Error(), "8 hours") {
		t.Errorf("error should name the lost span: %v", err)
	}
}

func TestService_RetriesThenSucceeds(t *testing.T) {
	backend := &stubBackend{
		errs:    []error{errors.New("connection reset")},
		replies: []string{"Bonjou"},
	}
	svc := NewService(backend, ServiceConfig{Retries: 2}, newTestNormalizer(t), nil, zaptest.NewLogger(t))

	res, err := svc.Translate(context.Background(), medicalRequest("Hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Bonjou" || len(backend.calls) != 2 {
		t.Errorf("Text = %q after %d calls", res.Text, len(backend.calls))
	}
}

func TestService_NoRetryByDefault(t *testing.T) {
	backend := &stubBackend{errs: []error{errors.New("boom")}, replies: []string{"Bonjou"}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), nil, zaptest.NewLogger(t))

	if _, err := svc.Translate(context.Background(), medicalRequest("Hello")); err == nil {
		t.Fatal("expected error")
	}
	if len(backend.calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(backend.calls))
	}
}

func TestService_EmptyResult(t *testing.T) {
	backend := &stubBackend{replies: []string{"<think>hmm</think>"}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), nil, zaptest.NewLogger(t))

	if _, err := svc.Translate(context.Background(), medicalRequest("Hello")); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult, got %v", err)
	}
}

func TestService_RequestValidation(t *testing.T) {
	svc := NewService(&stubBackend{replies: []string{"x"}}, ServiceConfig{}, newTestNormalizer(t), nil, nil)

	tests := []struct {
		name   string
		mutate func(*TranslateRequest)
		want   error
	}{
		{"empty text", func(r *TranslateRequest) { r.Text = " \t " }, ErrEmptyText},
		{"unknown language", func(r *TranslateRequest) { r.TargetLang = "fra_Latn" }, corpus.ErrUnknownEnum},
		{"unknown domain", func(r *TranslateRequest) { r.Domain = "veterinary" }, corpus.ErrUnknownEnum},
		{"unknown audience", func(r *TranslateRequest) { r.Audience = "kids" }, corpus.ErrUnknownEnum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := medicalRequest("Hello")
			tt.mutate(&req)
			if _, err := svc.Translate(context.Background(), req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	req := medicalRequest("Hello")
	req.TargetLang = corpus.LangEnglish
	if _, err := svc.Translate(context.Background(), req); err == nil {
		t.Error("expected error when source and target match")
	}
}

// echoBackend answers with its whole system prompt ahead of the reply, the
// way small local models sometimes do.
type echoBackend struct {
	stubBackend
}

func (b *echoBackend) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	res, err := b.stubBackend.Translate(ctx, cfg, req)
	if err != nil {
		return nil, err
	}
	prompt, err := buildSystemPrompt(req)
	if err != nil {
		return nil, err
	}
	res.TranslatedText = prompt + "\nHere is the translation:\n" + res.TranslatedText
	return res, nil
}

func TestService_StripsEchoedPrompt(t *testing.T) {
	backend := &echoBackend{stubBackend{replies: []string{"Pran [PH0] chak [PH1]"}}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), nil, zaptest.NewLogger(t))

	req := medicalRequest("Take 500 mg every 8 hours")
	req.Glossary = map[string]string{"fever": "lafyèv", "tablet": "grenn"}
	res, err := svc.Translate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Pran 500 mg chak 8 hours" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestService_DefaultsAudienceAndDomain(t *testing.T) {
	backend := &stubBackend{replies: []string{"Bonjou"}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), nil, nil)

	req := medicalRequest("Hello")
	req.Audience = ""
	req.Domain = ""
	if _, err := svc.Translate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := backend.calls[0]
	if got.Audience != corpus.AudiencePatient || got.Domain != corpus.DomainGeneral {
		t.Errorf("backend saw audience %q domain %q", got.Audience, got.Domain)
	}
}

func TestService_TranslationMemory(t *testing.T) {
	memory := newTestMemory(t)
	backend := &stubBackend{replies: []string{"Mwen ap vini"}}
	svc := NewService(backend, ServiceConfig{}, newTestNormalizer(t), memory, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := svc.Translate(ctx, medicalRequest("I am coming"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Error("first call should not be cached")
	}

	// Extra whitespace normalizes to the same key.
	second, err := svc.Translate(ctx, medicalRequest("I  am coming "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || second.Text != "Mwen ap vini" || second.Service != "stub" {
		t.Errorf("expected cached hit, got %+v", second)
	}
	if len(backend.calls) != 1 {
		t.Errorf("expected 1 backend call, got %d", len(backend.calls))
	}

	// A different audience is a different key.
	req := medicalRequest("I am coming")
	req.Audience = corpus.AudienceClinician
	if res, err := svc.Translate(ctx, req); err != nil || res.Cached {
		t.Errorf("expected fresh translation for clinician, got %+v, %v", res, err)
	}

	if _, err := memory.InvalidateTranslations(ctx, "I am coming"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if res, err := svc.Translate(ctx, medicalRequest("I am coming")); err != nil || res.Cached {
		t.Errorf("expected miss after invalidation, got %+v, %v", res, err)
	}
}
