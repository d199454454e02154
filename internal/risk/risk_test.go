package risk

import (
	"slices"
	"testing"

	"github.com/kalimax/kalimax/internal/corpus"
)

func TestFlagger_Assess(t *testing.T) {
	f := New()

	tests := []struct {
		name   string
		texts  []string
		level  corpus.RiskLevel
		terms  []string
		review bool
	}{
		{name: "nothing", texts: []string{"Bonjou, kijan ou ye?"}, level: ""},
		{name: "english critical", texts: []string{"Patient is experiencing cardiac arrest"}, level: corpus.RiskCritical, terms: []string{"cardiac arrest"}, review: true},
		{name: "creole critical", texts: []string{"Kè a rete, rele anbilans"}, level: corpus.RiskCritical, terms: []string{"cardiac arrest"}, review: true},
		{name: "accented word edge", texts: []string{"Li nan gwosès"}, level: corpus.RiskHigh, terms: []string{"pregnancy"}, review: true},
		{name: "whole words only", texts: []string{"Heartstopped beats"}, level: ""},
		{name: "moderate only", texts: []string{"You need surgery next week"}, level: corpus.RiskMedium, terms: []string{"surgery"}},
		{name: "highest wins", texts: []string{"She is pregnant and needs surgery"}, level: corpus.RiskHigh, terms: []string{"pregnancy", "surgery"}, review: true},
		{name: "dose instruction", texts: []string{"Take 2 tablets every 6 hours"}, level: corpus.RiskHigh, terms: []string{"medication_dosage", "dosage_instruction"}, review: true},
		{name: "creole dose", texts: []string{"", "Pran 2 grenn chak 6 èdtan apre manje"}, level: corpus.RiskHigh, terms: []string{"medication_dosage", "dosage_instruction", "food_timing"}, review: true},
		{name: "texts combined", texts: []string{"Insulin", "Ensilin"}, level: corpus.RiskHigh, terms: []string{"insulin"}, review: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := f.Assess(tt.texts...)
			if a.Level != tt.level {
				t.Errorf("Level = %q, want %q", a.Level, tt.level)
			}
			if got := a.Terms(); !slices.Equal(got, tt.terms) {
				t.Errorf("Terms = %v, want %v", got, tt.terms)
			}
			if a.Flagged() != (len(tt.terms) > 0) {
				t.Errorf("Flagged = %v", a.Flagged())
			}
			if a.RequiresReview() != tt.review {
				t.Errorf("RequiresReview = %v, want %v", a.RequiresReview(), tt.review)
			}
		})
	}
}

func TestFlagger_AssessFlags(t *testing.T) {
	a := New().Assess("Anaphylactic shock after penicillin, take with food")
	want := corpus.SafetyFlags{corpus.FlagAllergyCheck, corpus.FlagEmergency, corpus.FlagTimingCritical, corpus.FlagWithFood}
	if !slices.Equal(a.Flags, want) {
		t.Errorf("Flags = %v, want %v", a.Flags, want)
	}
}

func TestFlagger_ExtraTerm(t *testing.T) {
	term, err := NewTerm("seizure", corpus.RiskCritical, "neurological", []corpus.SafetyFlag{corpus.FlagEmergency}, "seizure", "kriz malkadi")
	if err != nil {
		t.Fatalf("NewTerm failed: %v", err)
	}
	a := New(term).Assess("Pitit la gen kriz  malkadi")
	if a.Level != corpus.RiskCritical {
		t.Errorf("Level = %q, want critical", a.Level)
	}

	if _, err := NewTerm("x", "severe", "", nil, "x"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if _, err := NewTerm("x", corpus.RiskHigh, "", nil, "(unclosed"); err == nil {
		t.Error("expected an error for a bad pattern")
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		a, b, want corpus.RiskLevel
	}{
		{"", "", ""},
		{"", corpus.RiskMedium, corpus.RiskMedium},
		{corpus.RiskHigh, corpus.RiskMedium, corpus.RiskHigh},
		{corpus.RiskHigh, corpus.RiskCritical, corpus.RiskCritical},
	}
	for _, tt := range tests {
		if got := Max(tt.a, tt.b); got != tt.want {
			t.Errorf("Max(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAssessment_Merge(t *testing.T) {
	a := New().Assess("Stroke symptoms")

	level, flags, changed := a.Merge(corpus.RiskHigh, corpus.SafetyFlags{corpus.FlagVerifyDose})
	if !changed || level != corpus.RiskCritical {
		t.Errorf("Merge = %q changed=%v, want critical changed", level, changed)
	}
	if !slices.Equal(flags, corpus.SafetyFlags{corpus.FlagEmergency, corpus.FlagVerifyDose}) {
		t.Errorf("flags = %v", flags)
	}

	if _, _, changed := a.Merge(corpus.RiskCritical, flags); changed {
		t.Error("merging an assessment already recorded should change nothing")
	}
}
