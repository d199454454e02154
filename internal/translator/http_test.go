package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalimax/kalimax/internal/corpus"
)

func medicalRequest(text string) TranslateRequest {
	return TranslateRequest{
		Text:       text,
		SourceLang: corpus.LangEnglish,
		TargetLang: corpus.LangCreole,
		Domain:     corpus.DomainMedical,
		Audience:   corpus.AudiencePatient,
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	req := medicalRequest("Drink water")
	req.Glossary = map[string]string{"tablet": "grenn", "fever": "lafyèv"}

	prompt, err := buildSystemPrompt(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(prompt, "<src:eng_Latn> <tgt:hat_Latn> <domain:medical> <audience:patient>\n") {
		t.Errorf("prompt does not start with control tokens: %q", prompt)
	}
	for _, want := range []string{"from English to Haitian Creole", "[PHn]", "plain everyday words"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	fever := strings.Index(prompt, "fever -> lafyèv")
	tablet := strings.Index(prompt, "tablet -> grenn")
	if fever < 0 || tablet < 0 || fever > tablet {
		t.Errorf("glossary not listed in sorted order: %q", prompt)
	}
}

func TestBuildSystemPrompt_InvalidAudience(t *testing.T) {
	req := medicalRequest("Drink water")
	req.Audience = "children"
	if _, err := buildSystemPrompt(req); !errors.Is(err, corpus.ErrUnknownEnum) {
		t.Errorf("expected ErrUnknownEnum, got %v", err)
	}
}

func TestOllamaTranslator_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["prompt"] != "Take [PH0]" {
			t.Errorf("prompt = %v", req["prompt"])
		}
		if system, _ := req["system"].(string); !strings.Contains(system, "<tgt:hat_Latn>") {
			t.Errorf("system prompt missing control tokens: %q", system)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"response": "Pran [PH0]"})
	}))
	defer server.Close()

	svc := &OllamaTranslator{
		baseURL: server.URL,
		model:   "llama3.1:8b",
		client:  server.Client(),
	}

	result, err := svc.Translate(context.Background(), ServiceConfig{}, medicalRequest("Take [PH0]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Pran [PH0]" {
		t.Errorf("expected 'Pran [PH0]', got %q", result.TranslatedText)
	}
	if result.Metadata["model"] != "llama3.1:8b" {
		t.Errorf("expected model in metadata, got %v", result.Metadata)
	}
}

func TestOllamaTranslator_Translate_ConfigModelOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "qwen2.5:7b" {
			t.Errorf("model = %v", req["model"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"response": "Bonjou"})
	}))
	defer server.Close()

	svc := NewOllamaTranslator(server.URL, "", time.Second)
	if _, err := svc.Translate(context.Background(), ServiceConfig{Model: "qwen2.5:7b"}, medicalRequest("Hello")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOllamaTranslator_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOllamaTranslator(server.URL, "", time.Second)
	result, err := svc.Translate(context.Background(), ServiceConfig{}, medicalRequest("Hello"))
	if err == nil {
		t.Error("expected error for non-OK status")
	}
	if result == nil || result.Error == "" {
		t.Fatal("expected error message in result")
	}
}

func TestOllamaTranslator_IsAvailable_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := &OllamaTranslator{
		baseURL: server.URL,
		client:  server.Client(),
	}
	if err := svc.IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOllamaTranslator_IsAvailable_NotRunning(t *testing.T) {
	svc := &OllamaTranslator{
		baseURL: "http://localhost:19999",
		client:  &http.Client{Timeout: 100 * time.Millisecond},
	}
	if err := svc.IsAvailable(context.Background()); err == nil {
		t.Error("expected error when Ollama not available")
	}
}

func TestOllamaTranslator_Defaults(t *testing.T) {
	svc := NewOllamaTranslator("", "", 0)
	if svc.Name() != "ollama" {
		t.Errorf("expected 'ollama', got %q", svc.Name())
	}
	if svc.Model() != DefaultOllamaModel {
		t.Errorf("expected default model, got %q", svc.Model())
	}
	if svc.baseURL != DefaultOllamaURL {
		t.Errorf("expected default url, got %q", svc.baseURL)
	}
}

func newOpenAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": "rate limited", "type": "rate_limit"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49},
		})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": []interface{}{}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIService_Translate_Success(t *testing.T) {
	server := newOpenAIServer(t, http.StatusOK, "Bwè anpil dlo")
	svc := NewOpenAIService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "test-model"})

	result, err := svc.Translate(context.Background(), ServiceConfig{}, medicalRequest("Drink plenty of water"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Bwè anpil dlo" {
		t.Errorf("got %q", result.TranslatedText)
	}
	if result.Metadata["model"] != "test-model" || result.Metadata["prompt_tokens"] != "42" {
		t.Errorf("unexpected metadata %v", result.Metadata)
	}
}

func TestOpenAIService_Translate_APIError(t *testing.T) {
	server := newOpenAIServer(t, http.StatusTooManyRequests, "")
	svc := NewOpenAIService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	result, err := svc.Translate(context.Background(), ServiceConfig{}, medicalRequest("Hello"))
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status in error, got %v", err)
	}
	if result == nil || result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestOpenAIService_IsAvailable(t *testing.T) {
	server := newOpenAIServer(t, http.StatusOK, "")
	svc := NewOpenAIService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	if err := svc.IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if svc.Name() != "openai" {
		t.Errorf("expected 'openai', got %q", svc.Name())
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		provider string
		want     string
		wantErr  bool
	}{
		{provider: "", want: "ollama"},
		{provider: "ollama", want: "ollama"},
		{provider: "OpenAI", want: "openai"},
		{provider: "openrouter", want: "openai"},
		{provider: "google", want: "google"},
		{provider: "systran", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			svc, err := NewBackend(tt.provider, ServiceConfig{})
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownProvider) {
					t.Errorf("expected ErrUnknownProvider, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", svc.Name(), tt.want)
			}
		})
	}
}
