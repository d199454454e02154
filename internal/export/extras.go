package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/policy"
)

// ExportExpressions writes the idiom table as Creole-to-English training rows:
// a literal-gloss row and, when present, an idiomatic row per expression.
// It returns the number of rows written.
func (e *Exporter) ExportExpressions(ctx context.Context, w io.Writer) (int, error) {
	list, err := e.src.Expressions(ctx)
	if err != nil {
		return 0, err
	}

	prefix, err := policy.ControlTokens(policy.Attributes{
		SourceLang: corpus.LangCreole,
		TargetLang: corpus.LangEnglish,
		Domain:     corpus.DomainGeneral,
		Audience:   corpus.AudienceGeneral,
	}, false)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	n := 0
	for _, ex := range list {
		source := e.norm.Normalize(ex.Creole)
		if source == "" {
			e.log.Warn("expression skipped", zap.String("id", ex.ID), zap.String("reason", "empty creole form"))
			continue
		}
		variants := []struct{ mode, text string }{
			{"literal", ex.LiteralGloss},
			{"idiomatic", ex.IdiomaticEN},
		}
		for _, v := range variants {
			if v.text == "" {
				continue
			}
			rec := TrainingRecord{
				ID:         ex.ID + "_" + v.mode,
				InputText:  prefix + " " + source,
				TargetText: e.norm.Normalize(v.text),
				Weight:     policy.WeightFor(policy.CategoryIdiom),
				Tags:       []string{"mode:" + v.mode, "is_idiom", "direction:ht_en"},
				Metadata: Metadata{
					CulturalNote: ex.CulturalNote,
					Provenance:   ex.Provenance,
					Confidence:   1,
				},
			}
			if err := enc.Encode(rec); err != nil {
				return n, fmt.Errorf("write expression %s: %w", ex.ID, err)
			}
			n++
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flush expressions: %w", err)
	}
	e.log.Info("expressions exported", zap.Int("records", n))
	return n, nil
}

// MonolingualRecord is one line of a monolingual pretraining file.
type MonolingualRecord struct {
	ID       string              `json:"id"`
	Text     string              `json:"text"`
	Metadata MonolingualMetadata `json:"metadata"`
}

type MonolingualMetadata struct {
	Lang       corpus.Language `json:"lang"`
	Domain     corpus.Domain   `json:"domain,omitempty"`
	Register   corpus.Register `json:"register,omitempty"`
	Region     corpus.Region   `json:"region,omitempty"`
	Provenance string          `json:"provenance,omitempty"`
}

// ExportMonolingual writes the plain-text records of one language. It returns
// the number of rows written.
func (e *Exporter) ExportMonolingual(ctx context.Context, lang corpus.Language, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	n := 0
	for m, err := range e.src.Monolingual(ctx, lang) {
		if err != nil {
			return n, err
		}
		text := e.norm.Normalize(m.Text)
		if text == "" {
			e.log.Warn("monolingual record skipped", zap.String("id", m.ID), zap.String("reason", "empty text"))
			continue
		}
		rec := MonolingualRecord{
			ID:   m.ID,
			Text: text,
			Metadata: MonolingualMetadata{
				Lang:       m.Lang,
				Domain:     m.Domain,
				Register:   m.Register,
				Region:     m.Region,
				Provenance: m.Provenance,
			},
		}
		if err := enc.Encode(rec); err != nil {
			return n, fmt.Errorf("write monolingual %s: %w", m.ID, err)
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flush monolingual: %w", err)
	}
	e.log.Info("monolingual exported", zap.String("lang", string(lang)), zap.Int("records", n))
	return n, nil
}
