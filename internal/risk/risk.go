// Package risk flags medical content whose mistranslation could hurt a
// patient.
//
// A Flagger matches English and Haitian Creole terms grouped by risk level,
// plus medication and dose instructions. The highest matching level becomes
// the record's risk level and every matching term contributes its safety
// flags. Critical and high findings require human review.
package risk

import (
	"regexp"
	"slices"
	"strings"

	"github.com/kalimax/kalimax/internal/corpus"
)

// Term is one risk category with the patterns that detect it.
type Term struct {
	Name     string
	Level    corpus.RiskLevel
	Category string
	Flags    []corpus.SafetyFlag
	patterns []*regexp.Regexp
}

// NewTerm compiles a term. Each phrase is a regular expression matched
// case-insensitively as whole words; a space in a phrase matches any run of
// whitespace.
func NewTerm(name string, level corpus.RiskLevel, category string, flags []corpus.SafetyFlag, phrases ...string) (Term, error) {
	t := Term{Name: name, Level: level, Category: category, Flags: flags}
	if _, err := corpus.ParseRiskLevel(string(level)); err != nil {
		return Term{}, err
	}
	for _, p := range phrases {
		re, err := phraseRe(p)
		if err != nil {
			return Term{}, err
		}
		t.patterns = append(t.patterns, re)
	}
	return t, nil
}

func mustTerm(name string, level corpus.RiskLevel, category string, flags []corpus.SafetyFlag, phrases ...string) Term {
	t, err := NewTerm(name, level, category, flags, phrases...)
	if err != nil {
		panic(err)
	}
	return t
}

// phraseRe builds a whole-word matcher. \b only knows ASCII word characters,
// so the boundaries are spelled out to keep "gwosès" and "kè" matchable.
func phraseRe(phrase string) (*regexp.Regexp, error) {
	body := strings.Join(strings.Fields(phrase), `\s+`)
	return regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + body + `)(?:$|[^\p{L}\p{N}])`)
}

func (t Term) matches(text string) bool {
	for _, re := range t.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// DefaultTerms is the built-in term list.
func DefaultTerms() []Term {
	return []Term{
		mustTerm("cardiac arrest", corpus.RiskCritical, "emergency",
			[]corpus.SafetyFlag{corpus.FlagEmergency},
			"cardiac arrest", "heart stopped", "kè a rete", "kè a kanpe"),
		mustTerm("anaphylaxis", corpus.RiskCritical, "allergy",
			[]corpus.SafetyFlag{corpus.FlagEmergency, corpus.FlagAllergyCheck},
			"anaphylaxis", "anaphylactic shock", "gwo alèji", "alèji grav"),
		mustTerm("stroke", corpus.RiskCritical, "neurological",
			[]corpus.SafetyFlag{corpus.FlagEmergency},
			"stroke", "cerebral infarction", "atak serebral", "konjesyon serebral"),
		mustTerm("overdose", corpus.RiskCritical, "toxicology",
			[]corpus.SafetyFlag{corpus.FlagEmergency, corpus.FlagDoNotExceed},
			"overdose", "too much medication", "twòp medikaman", "sèdòz"),
		mustTerm("suicide", corpus.RiskCritical, "mental_health",
			[]corpus.SafetyFlag{corpus.FlagEmergency},
			"suicide", "kill myself", "end my life", "touye tèt mwen", "touye tèt li"),

		mustTerm("insulin", corpus.RiskHigh, "medication",
			[]corpus.SafetyFlag{corpus.FlagVerifyDose, corpus.FlagNarrowTherapy},
			"insulin", "diabetic medication", "ensilin", "medikaman dyabèt"),
		mustTerm("blood pressure", corpus.RiskHigh, "cardiovascular",
			[]corpus.SafetyFlag{corpus.FlagSeekCareIfWorse},
			"blood pressure", "hypertension", "tansyon", "presyon san"),
		mustTerm("pregnancy", corpus.RiskHigh, "obstetrics",
			[]corpus.SafetyFlag{corpus.FlagPregnancy},
			"pregnant", "pregnancy", "expecting a baby", "gwosès", "ansent"),
		mustTerm("chemotherapy", corpus.RiskHigh, "oncology",
			[]corpus.SafetyFlag{corpus.FlagVerifyDose},
			"chemotherapy", "chemo", "cancer treatment", "chimyoterapi", "tretman kansè"),

		mustTerm("antibiotic", corpus.RiskMedium, "medication",
			[]corpus.SafetyFlag{corpus.FlagAllergyCheck},
			"antibiotics?", "penicillin", "antibiyotik", "penisilin"),
		mustTerm("surgery", corpus.RiskMedium, "procedure",
			nil,
			"surgery", "operation", "procedure", "operasyon", "chiriji"),
	}
}

// Dose and medication instructions are high risk on their own.
var (
	medicationTerm = mustTerm("medication_dosage", corpus.RiskHigh, "medication",
		[]corpus.SafetyFlag{corpus.FlagVerifyDose},
		`\d+(?:[.,]\d+)?\s*(?:mg|mcg|ml|g)`, `take \d+`, `every \d+ hours?`,
		`(?:once|twice) daily`, `pran \d+`, `chak \d+ (?:èdtan|è)`, `(?:de|twa) fwa pa jou`)
	dosageTerm = mustTerm("dosage_instruction", corpus.RiskHigh, "dosage",
		[]corpus.SafetyFlag{corpus.FlagVerifyDose},
		`\d+\s*(?:tablets?|capsules?|drops?|teaspoons?|tablespoons?)`, `(?:half|quarter) (?:a )?tablet`,
		`\d+\s*(?:grenn|kapsil|gout|ti kiyè|gwo kiyè)`, `mwatye grenn`)
	foodTerm = mustTerm("food_timing", corpus.RiskHigh, "dosage",
		[]corpus.SafetyFlag{corpus.FlagWithFood, corpus.FlagTimingCritical},
		`(?:before|after) meals`, `with food`, `on (?:an )?empty stomach`,
		`(?:avan|apre) (?:ou )?manje`, `ak manje`, `vant vid`)
)

// Finding is one matched term.
type Finding struct {
	Term     string
	Level    corpus.RiskLevel
	Category string
}

// Assessment is the combined result for a record's texts.
type Assessment struct {
	// Level is the highest level found, empty when nothing matched.
	Level    corpus.RiskLevel
	Flags    corpus.SafetyFlags
	Findings []Finding
}

// Flagged reports whether any term matched.
func (a Assessment) Flagged() bool { return len(a.Findings) > 0 }

// RequiresReview reports whether a finding is critical or high.
func (a Assessment) RequiresReview() bool {
	return a.Level == corpus.RiskCritical || a.Level == corpus.RiskHigh
}

// Terms returns the matched term names.
func (a Assessment) Terms() []string {
	out := make([]string, len(a.Findings))
	for i, f := range a.Findings {
		out[i] = f.Term
	}
	return out
}

// Flagger assesses text against a term list.
type Flagger struct {
	terms []Term
}

// New returns a Flagger over DefaultTerms and the dose patterns, followed
// by any extra terms.
func New(extra ...Term) *Flagger {
	terms := append(DefaultTerms(), medicationTerm, dosageTerm, foodTerm)
	return &Flagger{terms: append(terms, extra...)}
}

// Assess matches every non-empty text. A term is reported once however many
// of its patterns or texts match.
func (f *Flagger) Assess(texts ...string) Assessment {
	var (
		a     Assessment
		flags []corpus.SafetyFlag
	)
	for _, t := range f.terms {
		if !slices.ContainsFunc(texts, func(s string) bool { return s != "" && t.matches(s) }) {
			continue
		}
		a.Findings = append(a.Findings, Finding{Term: t.Name, Level: t.Level, Category: t.Category})
		a.Level = Max(a.Level, t.Level)
		flags = append(flags, t.Flags...)
	}
	a.Flags = mergeFlags(nil, flags)
	return a
}

var rank = map[corpus.RiskLevel]int{
	corpus.RiskMedium:   1,
	corpus.RiskHigh:     2,
	corpus.RiskCritical: 3,
}

// Max returns the higher of two levels. An empty level ranks lowest.
func Max(a, b corpus.RiskLevel) corpus.RiskLevel {
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Merge raises level and adds flags from a. It reports whether anything
// changed.
func (a Assessment) Merge(level corpus.RiskLevel, flags corpus.SafetyFlags) (corpus.RiskLevel, corpus.SafetyFlags, bool) {
	newLevel := Max(level, a.Level)
	newFlags := mergeFlags(flags, a.Flags)
	return newLevel, newFlags, newLevel != level || len(newFlags) != len(flags)
}

// mergeFlags returns the sorted union of both sets.
func mergeFlags(base corpus.SafetyFlags, add []corpus.SafetyFlag) corpus.SafetyFlags {
	out := make(corpus.SafetyFlags, 0, len(base)+len(add))
	out = append(out, base...)
	for _, f := range add {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}
