package policy

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kalimax/kalimax/internal/corpus"
)

func medical(mode corpus.Mode) Attributes {
	return Attributes{
		SourceLang: corpus.LangEnglish,
		TargetLang: corpus.LangCreole,
		Domain:     corpus.DomainMedical,
		Audience:   corpus.AudiencePatient,
		Mode:       mode,
		Origin:     corpus.OriginCorpus,
	}
}

func TestResolveWeight(t *testing.T) {
	tests := []struct {
		name     string
		attrs    func() Attributes
		expected Weight
	}{
		{"medical localized", func() Attributes { return medical(corpus.ModeLocalized) }, 3.0},
		{"medical literal", func() Attributes { return medical(corpus.ModeLiteral) }, 1.0},
		{"general baseline", func() Attributes {
			a := medical(corpus.ModeLocalized)
			a.Domain = corpus.DomainGeneral
			return a
		}, 1.0},
		{"idiom beats dosage", func() Attributes {
			a := medical(corpus.ModeLocalized)
			a.IsIdiom, a.ContainsDosage = true, true
			return a
		}, 4.0},
		{"dosage beats profanity", func() Attributes {
			a := medical(corpus.ModeLocalized)
			a.ContainsDosage = true
			a.Origin = corpus.OriginProfanity
			return a
		}, 0.7},
		{"profanity beats synthetic", func() Attributes {
			a := medical(corpus.ModeLiteral)
			a.Origin = corpus.OriginProfanity
			a.Synthetic = true
			return a
		}, 2.0},
		{"synthetic beats domain mode", func() Attributes {
			a := medical(corpus.ModeLocalized)
			a.Synthetic = true
			return a
		}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.attrs()
			if got := WeightOf(a); got != tt.expected {
				t.Errorf("WeightOf = %v, expected %v (category %s)", got, tt.expected, Resolve(a))
			}
			if WeightOf(a) != WeightOf(a) {
				t.Error("weight is not deterministic")
			}
		})
	}
}

func TestWeightJSON(t *testing.T) {
	tests := []struct {
		w        Weight
		expected string
	}{
		{3.0, "3.0"},
		{1, "1.0"},
		{0.7, "0.7"},
		{0.5, "0.5"},
	}
	for _, tt := range tests {
		b, err := json.Marshal(struct {
			W Weight `json:"weight"`
		}{tt.w})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(b) != `{"weight":`+tt.expected+`}` {
			t.Errorf("got %s, expected weight %s", b, tt.expected)
		}
	}
}

func TestIsSynthetic(t *testing.T) {
	tests := map[string]bool{
		"synthetic:gpt":         true,
		"Back_Translation v2":   true,
		"clinic_interview_2023": false,
		"":                      false,
	}
	for in, expected := range tests {
		if got := IsSynthetic(in); got != expected {
			t.Errorf("IsSynthetic(%q) = %v, expected %v", in, got, expected)
		}
	}
}

func TestAttributesOfDefaultsAudience(t *testing.T) {
	r := &corpus.Record{
		SourceLang: corpus.LangEnglish,
		TargetLang: corpus.LangCreole,
		Domain:     corpus.DomainMedical,
		Provenance: "synthetic",
	}
	a := AttributesOf(r, corpus.ModeLiteral)
	if a.Audience != corpus.AudiencePatient || !a.AudienceDefaulted {
		t.Errorf("expected defaulted patient audience, got %+v", a)
	}
	if !a.Synthetic {
		t.Error("expected synthetic provenance")
	}

	r.Context.Audience = corpus.AudienceClinician
	a = AttributesOf(r, corpus.ModeLiteral)
	if a.Audience != corpus.AudienceClinician || a.AudienceDefaulted {
		t.Errorf("unexpected audience %+v", a)
	}
}

func TestControlTokens(t *testing.T) {
	a := medical(corpus.ModeLocalized)

	got, err := ControlTokens(a, false)
	if err != nil {
		t.Fatalf("ControlTokens failed: %v", err)
	}
	if expected := "<src:eng_Latn> <tgt:hat_Latn> <domain:medical> <audience:patient>"; got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}

	got, err = ControlTokens(a, true)
	if err != nil {
		t.Fatalf("ControlTokens failed: %v", err)
	}
	if expected := "<src:eng_Latn> <tgt:hat_Latn> <domain:medical> <audience:patient> <mode:localized>"; got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}

	bad := []func(*Attributes){
		func(a *Attributes) { a.SourceLang = "fra_Latn" },
		func(a *Attributes) { a.Domain = "cardiology" },
		func(a *Attributes) { a.Audience = "aliens" },
		func(a *Attributes) { a.Mode = "idiomatic" },
	}
	for i, mutate := range bad {
		b := medical(corpus.ModeLocalized)
		mutate(&b)
		if _, err := ControlTokens(b, true); !errors.Is(err, corpus.ErrUnknownEnum) {
			t.Errorf("case %d: expected ErrUnknownEnum, got %v", i, err)
		}
	}
}
