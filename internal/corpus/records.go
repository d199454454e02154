// Package corpus defines the bilingual corpus entities and their closed
// vocabularies. Values read from storage are validated here, so code past
// the store boundary only ever sees typed, in-vocabulary data.
package corpus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingTarget means neither a literal nor a localized target exists.
	ErrMissingTarget = errors.New("record has no target text")
	// ErrMissingSource means the source text is empty.
	ErrMissingSource = errors.New("record has no source text")
	// ErrStatusRegression is returned when a status change would move backwards.
	ErrStatusRegression = errors.New("curation status can only move forward")
)

// Record is a bilingual training candidate. HighRisk, profanity-derived and
// correction rows are read into the same shape and told apart by Origin.
// Empty target strings mean the variant is absent.
type Record struct {
	ID              string
	Origin          Origin
	SourceText      string
	SourceLang      Language
	TargetLiteral   string
	TargetLocalized string
	TargetLang      Language
	Domain          Domain
	IsIdiom         bool
	ExpressionID    string
	Aliases         StringList
	ContainsDosage  bool
	Context         Context
	CulturalNote    string
	Provenance      string
	Confidence      float64
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Variant is one target rendering of a record.
type Variant struct {
	Mode Mode
	Text string
}

// Variants returns the available targets, literal first.
func (r *Record) Variants() []Variant {
	var out []Variant
	if strings.TrimSpace(r.TargetLiteral) != "" {
		out = append(out, Variant{Mode: ModeLiteral, Text: r.TargetLiteral})
	}
	if strings.TrimSpace(r.TargetLocalized) != "" {
		out = append(out, Variant{Mode: ModeLocalized, Text: r.TargetLocalized})
	}
	return out
}

// Validate checks required fields and vocabularies. Missing text yields
// ErrMissingSource or ErrMissingTarget; vocabulary violations wrap ErrUnknownEnum.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New("record id is required")
	}
	if _, err := ParseOrigin(string(r.Origin)); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if _, err := ParseLanguage(string(r.SourceLang)); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if _, err := ParseLanguage(string(r.TargetLang)); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if _, err := ParseDomain(string(r.Domain)); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if err := r.Context.Validate(); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("record %s: confidence %v outside [0,1]", r.ID, r.Confidence)
	}
	if strings.TrimSpace(r.SourceText) == "" {
		return fmt.Errorf("record %s: %w", r.ID, ErrMissingSource)
	}
	if len(r.Variants()) == 0 {
		return fmt.Errorf("record %s: %w", r.ID, ErrMissingTarget)
	}
	return nil
}

// Expression is an idiom or proverb entry.
type Expression struct {
	ID           string
	Creole       string
	LiteralGloss string
	IdiomaticEN  string
	LocalizedHT  string
	Register     Register
	Region       Region
	CulturalNote string
	Provenance   string
}

type GlossaryEntry struct {
	ID                   string
	CreoleCanonical      string
	EnglishEquivalents   StringList
	Aliases              StringList
	Domain               Domain
	CulturalWeight       CulturalWeight
	PreferredForPatients bool
	RecommendedAlt       string
	Notes                string
	CreatedAt            time.Time
}

// HighRiskRecord is a safety-critical instruction. RequireReview defaults to
// true; see NewHighRiskRecord.
type HighRiskRecord struct {
	Record
	InstructionType InstructionType
	RiskLevel       RiskLevel
	Dosage          *Dosage
	SafetyFlags     SafetyFlags
	RequireReview   bool
	Notes           string
}

// NewHighRiskRecord returns a record that requires human review.
func NewHighRiskRecord(r Record) *HighRiskRecord {
	r.Origin = OriginHighRisk
	return &HighRiskRecord{Record: r, RequireReview: true}
}

func (h *HighRiskRecord) Validate() error {
	if err := h.Record.Validate(); err != nil {
		return err
	}
	if _, err := ParseInstructionType(string(h.InstructionType)); err != nil {
		return fmt.Errorf("high-risk %s: %w", h.ID, err)
	}
	if _, err := ParseRiskLevel(string(h.RiskLevel)); err != nil {
		return fmt.Errorf("high-risk %s: %w", h.ID, err)
	}
	if h.InstructionType == InstructionDosage && h.Dosage == nil {
		return fmt.Errorf("high-risk %s: dosage instruction without dosage fields", h.ID)
	}
	if err := h.Dosage.Validate(); err != nil {
		return fmt.Errorf("high-risk %s: %w", h.ID, err)
	}
	return nil
}

type ProfanityRecord struct {
	ID                string
	TermCreole        string
	TermEnglish       string
	Severity          Severity
	Category          ProfanityCategory
	SafeAlternativeHT StringList
	SafeAlternativeEN StringList
	CulturalNote      string
	ShouldFlag        bool
	ShouldBlock       bool
	Acceptable        AcceptableContext
	Provenance        string
	Status            Status
}

// NormalizationRule maps a surface variant to its canonical form. Variant is
// unique across the rule set.
type NormalizationRule struct {
	ID                string   `yaml:"id"`
	Variant           string   `yaml:"variant"`
	Canonical         string   `yaml:"canonical"`
	EnglishEquivalent string   `yaml:"english_equivalent,omitempty"`
	Register          Register `yaml:"register,omitempty"`
	Region            Region   `yaml:"region,omitempty"`
	Notes             string   `yaml:"notes,omitempty"`
}

func (n NormalizationRule) Validate() error {
	if strings.TrimSpace(n.Variant) == "" || strings.TrimSpace(n.Canonical) == "" {
		return fmt.Errorf("rule %q: variant and canonical are required", n.ID)
	}
	if strings.ContainsAny(strings.TrimSpace(n.Variant), " \t\n") {
		return fmt.Errorf("rule %q: variant %q must be a single token", n.ID, n.Variant)
	}
	if _, err := ParseRegister(string(n.Register)); err != nil {
		return fmt.Errorf("rule %q: %w", n.ID, err)
	}
	if _, err := ParseRegion(string(n.Region)); err != nil {
		return fmt.Errorf("rule %q: %w", n.ID, err)
	}
	return nil
}

// CorrectionRecord is an append-only audit entry from the feedback loop.
// Only UsedForRetraining ever changes after insertion.
type CorrectionRecord struct {
	ID                string
	Input             string
	ModelOutput       string
	HumanCorrection   string
	SourceLang        Language
	TargetLang        Language
	Domain            Domain
	Audience          Audience
	Type              CorrectionType
	Severity          CorrectionSeverity
	Editor            string
	CreatedAt         time.Time
	UsedForRetraining bool
}

func (c *CorrectionRecord) Validate() error {
	if strings.TrimSpace(c.Input) == "" || strings.TrimSpace(c.HumanCorrection) == "" {
		return errors.New("correction: input and human correction are required")
	}
	if c.Editor == "" {
		return errors.New("correction: editor is required")
	}
	for _, check := range []func() error{
		func() error { _, err := ParseLanguage(string(c.SourceLang)); return err },
		func() error { _, err := ParseLanguage(string(c.TargetLang)); return err },
		func() error { _, err := ParseDomain(string(c.Domain)); return err },
		func() error { _, err := ParseAudience(string(c.Audience)); return err },
		func() error { _, err := ParseCorrectionType(string(c.Type)); return err },
		func() error { _, err := ParseCorrectionSeverity(string(c.Severity)); return err },
	} {
		if err := check(); err != nil {
			return fmt.Errorf("correction: %w", err)
		}
	}
	return nil
}

// ChallengeRecord is a held-out evaluation example. It never reaches training
// output.
type ChallengeRecord struct {
	ID               string
	SourceEN         string
	SourceHT         string
	TargetEN         string
	TargetHT         string
	Category         string
	Domain           Domain
	Difficulty       string
	Phenomenon       string
	ExpectedBehavior string
	Notes            string
	Provenance       string
}

// MonolingualRecord is plain text for auxiliary pretraining.
type MonolingualRecord struct {
	ID         string
	Lang       Language
	Text       string
	Domain     Domain
	Register   Register
	Region     Region
	Provenance string
}
