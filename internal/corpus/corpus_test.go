package corpus

import (
	"errors"
	"testing"
)

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) error
		input   string
		wantErr bool
	}{
		{"language exact", func(s string) error { _, err := ParseLanguage(s); return err }, "hat_Latn", false},
		{"language is case sensitive", func(s string) error { _, err := ParseLanguage(s); return err }, "HAT_LATN", true},
		{"domain folded", func(s string) error { _, err := ParseDomain(s); return err }, " Medical ", false},
		{"unknown domain", func(s string) error { _, err := ParseDomain(s); return err }, "cardiology", true},
		{"status", func(s string) error { _, err := ParseStatus(s); return err }, "approved", false},
		{"legacy status", func(s string) error { _, err := ParseStatus(s); return err }, "validated", true},
		{"audience", func(s string) error { _, err := ParseAudience(s); return err }, "caregiver", false},
		{"empty register allowed", func(s string) error { _, err := ParseRegister(s); return err }, "", false},
		{"unknown region", func(s string) error { _, err := ParseRegion(s); return err }, "mars", true},
		{"severity", func(s string) error { _, err := ParseSeverity(s); return err }, "extreme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownEnum) {
				t.Errorf("expected ErrUnknownEnum, got %v", err)
			}
		})
	}
}

func TestStatusOrdering(t *testing.T) {
	if !StatusApproved.AtLeast(StatusReviewed) {
		t.Error("approved should satisfy reviewed filter")
	}
	if StatusDraft.AtLeast(StatusReviewed) {
		t.Error("draft should not satisfy reviewed filter")
	}
	if !StatusDraft.CanAdvanceTo(StatusApproved) {
		t.Error("draft -> approved is a forward move")
	}
	if StatusApproved.CanAdvanceTo(StatusReviewed) {
		t.Error("approved -> reviewed must be rejected")
	}
	if StatusReviewed.CanAdvanceTo(StatusReviewed) {
		t.Error("same status is not an advance")
	}
	if Status("bogus").AtLeast(StatusDraft) {
		t.Error("unknown status must never be eligible")
	}
}

func TestContextScan(t *testing.T) {
	var c Context
	if err := c.Scan(`{"audience":"Patient","speaker_role":"doctor","sensitivity":"low"}`); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if c.Audience != AudiencePatient || c.SpeakerRole != SpeakerDoctor || c.Sensitivity != SensitivityLow {
		t.Errorf("unexpected context: %+v", c)
	}

	if err := c.Scan(`{"audience":"aliens"}`); !errors.Is(err, ErrUnknownEnum) {
		t.Errorf("expected ErrUnknownEnum, got %v", err)
	}
	if err := c.Scan(`{"mood":"happy"}`); !errors.Is(err, ErrUnknownEnum) {
		t.Errorf("unknown key should be rejected, got %v", err)
	}
	if err := c.Scan(nil); err != nil || !c.IsZero() {
		t.Errorf("NULL context should scan to zero value, got %+v, %v", c, err)
	}
}

func TestStringListRoundTrip(t *testing.T) {
	v, err := StringList{"m'gen", "mgen"}.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	var got StringList
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != 2 || got[0] != "m'gen" {
		t.Errorf("unexpected list: %v", got)
	}
}

func TestSafetyFlags(t *testing.T) {
	flags, err := ParseSafetyFlags([]string{"max_dose", "verify_dose", "max_dose"})
	if err != nil {
		t.Fatalf("ParseSafetyFlags failed: %v", err)
	}
	if len(flags) != 2 || flags[0] != FlagMaxDose {
		t.Errorf("expected sorted unique flags, got %v", flags)
	}
	if _, err := ParseSafetyFlags([]string{"looks_fine"}); !errors.Is(err, ErrUnknownEnum) {
		t.Errorf("expected ErrUnknownEnum, got %v", err)
	}
}

func TestRecordValidate(t *testing.T) {
	base := Record{
		ID:              "c_0001",
		Origin:          OriginCorpus,
		SourceText:      "Take 2 tablets every 6 hours",
		SourceLang:      LangEnglish,
		TargetLocalized: "Pran 2 tablèt chak 6 èdtan",
		TargetLang:      LangCreole,
		Domain:          DomainMedical,
		Status:          StatusReviewed,
		Confidence:      0.9,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	noTarget := base
	noTarget.TargetLocalized = "  "
	if err := noTarget.Validate(); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("expected ErrMissingTarget, got %v", err)
	}

	badDomain := base
	badDomain.Domain = "cardiology"
	if err := badDomain.Validate(); !errors.Is(err, ErrUnknownEnum) {
		t.Errorf("expected ErrUnknownEnum, got %v", err)
	}

	badConfidence := base
	badConfidence.Confidence = 1.5
	if err := badConfidence.Validate(); err == nil {
		t.Error("expected error for confidence > 1")
	}
}

func TestRecordVariantsOrder(t *testing.T) {
	r := Record{TargetLiteral: "lit", TargetLocalized: "loc"}
	v := r.Variants()
	if len(v) != 2 || v[0].Mode != ModeLiteral || v[1].Mode != ModeLocalized {
		t.Errorf("unexpected variants: %+v", v)
	}
}

func TestHighRiskDefaults(t *testing.T) {
	h := NewHighRiskRecord(Record{ID: "hr_1"})
	if !h.RequireReview {
		t.Error("high-risk records must require review by default")
	}
	if h.Origin != OriginHighRisk {
		t.Errorf("expected origin high_risk, got %s", h.Origin)
	}
}

func TestDosageValidate(t *testing.T) {
	d := &Dosage{Drug: "acetaminophen", Quantity: 650, Unit: "mg", FrequencyHours: 6, MaxDailyDose: 3250}
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid dosage, got %v", err)
	}
	d.MaxDailyDose = 2000
	if err := d.Validate(); err == nil {
		t.Error("expected error when schedule exceeds max daily dose")
	}
}
