package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/policy"
)

// build renders one normalized record as training rows, literal first, with
// ids derived from root. Warnings describe best-effort defaults applied along
// the way.
func build(r *corpus.Record, root string, format Format) ([]TrainingRecord, []string, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		rows     []TrainingRecord
		warnings []string
	)
	withMode := format == FormatModeToken
	for _, v := range r.Variants() {
		attrs := policy.AttributesOf(r, v.Mode)
		prefix, err := policy.ControlTokens(attrs, withMode)
		if err != nil {
			return nil, nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if attrs.AudienceDefaulted && len(warnings) == 0 {
			warnings = append(warnings, "no audience in context, using "+string(policy.DefaultAudience))
		}

		id := root
		if format == FormatTwoRow {
			id = root + "_" + string(v.Mode)
		}
		rows = append(rows, TrainingRecord{
			ID:         id,
			InputText:  prefix + " " + r.SourceText,
			TargetText: v.Text,
			Weight:     policy.WeightOf(attrs),
			Tags:       tags(r, attrs),
			Metadata: Metadata{
				CulturalNote: r.CulturalNote,
				Provenance:   r.Provenance,
				Confidence:   r.Confidence,
				Aliases:      r.Aliases,
			},
		})
	}
	return rows, warnings, nil
}

// tags lists mode, domain and status first, then the flags that explain the
// weight.
func tags(r *corpus.Record, a policy.Attributes) []string {
	out := []string{
		"mode:" + string(a.Mode),
		"domain:" + string(r.Domain),
		"status:" + string(r.Status),
	}
	if r.IsIdiom {
		out = append(out, "is_idiom")
	}
	if r.ContainsDosage {
		out = append(out, "contains_dosage")
	}
	if r.Origin == corpus.OriginHighRisk {
		out = append(out, "risk:high")
	}
	if r.Origin != corpus.OriginCorpus {
		out = append(out, "origin:"+string(r.Origin))
	}
	if a.Synthetic {
		out = append(out, "source:synthetic")
	}
	return out
}

// challengeSet holds the held-out texts. A bilingual record is withheld when
// its source text equals any challenge text after normalization and case
// folding. Ids are not compared: they are only unique within one table.
type challengeSet struct {
	texts map[string]bool
}

func (e *Exporter) loadChallenges(ctx context.Context) (*challengeSet, error) {
	list, err := e.src.Challenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load challenge set: %w", err)
	}
	set := &challengeSet{texts: make(map[string]bool, len(list)*2)}
	for _, c := range list {
		for _, t := range []string{c.SourceEN, c.SourceHT, c.TargetEN, c.TargetHT} {
			if k := challengeKey(e.norm.Normalize(t)); k != "" {
				set.texts[k] = true
			}
		}
	}
	return set, nil
}

func (c *challengeSet) contains(r *corpus.Record) bool {
	return c.texts[challengeKey(r.SourceText)]
}

func challengeKey(normalized string) string {
	return strings.ToLower(normalized)
}
