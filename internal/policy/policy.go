// Package policy maps record attributes to a sampling weight and a
// control-token prefix. Every function here is pure: equal attributes always
// produce equal output.
package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kalimax/kalimax/internal/corpus"
)

// Category is the weight class a record resolves to.
type Category string

const (
	CategoryIdiom            Category = "idiom"
	CategoryHighRiskDosage   Category = "high_risk_dosage"
	CategoryProfanity        Category = "profanity"
	CategorySynthetic        Category = "synthetic"
	CategoryMedicalLocalized Category = "medical_localized"
	CategoryMedicalLiteral   Category = "medical_literal"
	CategoryBaseline         Category = "baseline"
)

// Weight is a positive sampling weight. It always serializes with a decimal
// point so output is stable across encoders.
type Weight float64

var weights = map[Category]Weight{
	CategoryIdiom:            4.0,
	CategoryHighRiskDosage:   0.7,
	CategoryProfanity:        2.0,
	CategorySynthetic:        0.5,
	CategoryMedicalLocalized: 3.0,
	CategoryMedicalLiteral:   1.0,
	CategoryBaseline:         1.0,
}

func (w Weight) String() string {
	s := strconv.FormatFloat(float64(w), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (w Weight) MarshalJSON() ([]byte, error) {
	return []byte(w.String()), nil
}

// Attributes are the record properties the policy reads.
type Attributes struct {
	SourceLang     corpus.Language
	TargetLang     corpus.Language
	Domain         corpus.Domain
	Audience       corpus.Audience
	Mode           corpus.Mode
	Origin         corpus.Origin
	IsIdiom        bool
	ContainsDosage bool
	Synthetic      bool

	// AudienceDefaulted is set when the record carried no audience and
	// DefaultAudience was substituted.
	AudienceDefaulted bool
}

// DefaultAudience is used for records whose context has no audience.
const DefaultAudience = corpus.AudiencePatient

// AttributesOf derives the policy attributes of r rendered in mode.
func AttributesOf(r *corpus.Record, mode corpus.Mode) Attributes {
	a := Attributes{
		SourceLang:     r.SourceLang,
		TargetLang:     r.TargetLang,
		Domain:         r.Domain,
		Audience:       r.Context.Audience,
		Mode:           mode,
		Origin:         r.Origin,
		IsIdiom:        r.IsIdiom,
		ContainsDosage: r.ContainsDosage,
		Synthetic:      IsSynthetic(r.Provenance),
	}
	if a.Audience == "" {
		a.Audience = DefaultAudience
		a.AudienceDefaulted = true
	}
	return a
}

// IsSynthetic reports whether a provenance string names machine-generated data.
func IsSynthetic(provenance string) bool {
	p := strings.ToLower(provenance)
	return strings.Contains(p, "synthetic") || strings.Contains(p, "back_translation")
}

// Resolve picks the single category for a. When several apply the order is
// idiom, high-risk dosage, profanity, synthetic, medical mode, baseline.
func Resolve(a Attributes) Category {
	switch {
	case a.IsIdiom:
		return CategoryIdiom
	case a.ContainsDosage:
		return CategoryHighRiskDosage
	case a.Origin == corpus.OriginProfanity:
		return CategoryProfanity
	case a.Synthetic:
		return CategorySynthetic
	case a.Domain == corpus.DomainMedical && a.Mode == corpus.ModeLocalized:
		return CategoryMedicalLocalized
	case a.Domain == corpus.DomainMedical && a.Mode == corpus.ModeLiteral:
		return CategoryMedicalLiteral
	default:
		return CategoryBaseline
	}
}

// WeightOf returns the weight of the category a resolves to.
func WeightOf(a Attributes) Weight {
	return weights[Resolve(a)]
}

// WeightFor returns the fixed weight of c.
func WeightFor(c Category) Weight {
	return weights[c]
}

// ControlTokens builds the space-separated prefix
// "<src:L> <tgt:L> <domain:D> <audience:A>", followed by "<mode:M>" when
// withMode is set. Every value must be in its vocabulary.
func ControlTokens(a Attributes, withMode bool) (string, error) {
	src, err := corpus.ParseLanguage(string(a.SourceLang))
	if err != nil {
		return "", fmt.Errorf("control token src: %w", err)
	}
	tgt, err := corpus.ParseLanguage(string(a.TargetLang))
	if err != nil {
		return "", fmt.Errorf("control token tgt: %w", err)
	}
	domain, err := corpus.ParseDomain(string(a.Domain))
	if err != nil {
		return "", fmt.Errorf("control token domain: %w", err)
	}
	audience, err := corpus.ParseAudience(string(a.Audience))
	if err != nil {
		return "", fmt.Errorf("control token audience: %w", err)
	}

	tokens := []string{
		tag("src", string(src)),
		tag("tgt", string(tgt)),
		tag("domain", string(domain)),
		tag("audience", string(audience)),
	}
	if withMode {
		mode, err := corpus.ParseMode(string(a.Mode))
		if err != nil {
			return "", fmt.Errorf("control token mode: %w", err)
		}
		tokens = append(tokens, tag("mode", string(mode)))
	}
	return strings.Join(tokens, " "), nil
}

func tag(key, value string) string {
	return "<" + key + ":" + value + ">"
}
