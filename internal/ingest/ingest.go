// Package ingest imports curated CSV sources into the corpus store.
//
// Every text column is normalized before it is written, the dosage flag is
// set when either side of a pair mentions a dose, and each file is imported
// in a single transaction: an out-of-vocabulary value anywhere in the file
// leaves the store untouched.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/risk"
	"github.com/kalimax/kalimax/internal/store"
	"github.com/kalimax/kalimax/internal/validator"
)

// Kind names the entity a CSV file holds.
type Kind string

const (
	KindCorpus        Kind = "corpus"
	KindHighRisk      Kind = "high_risk"
	KindProfanity     Kind = "profanity"
	KindChallenge     Kind = "challenge"
	KindExpressions   Kind = "expressions"
	KindGlossary      Kind = "glossary"
	KindRules         Kind = "rules"
	KindMonolingualHT Kind = "monolingual_ht"
	KindMonolingualEN Kind = "monolingual_en"
)

// Kinds lists every importable kind.
var Kinds = []Kind{
	KindCorpus, KindHighRisk, KindProfanity, KindChallenge, KindExpressions,
	KindGlossary, KindRules, KindMonolingualHT, KindMonolingualEN,
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ingest kind %q", s)
}

// textColumns lists the columns normalized for each kind.
var textColumns = map[Kind][]string{
	KindCorpus:        {"src_text", "tgt_text_literal", "tgt_text_localized"},
	KindHighRisk:      {"src_text", "tgt_text_literal", "tgt_text_localized"},
	KindProfanity:     {"term_creole", "term_english"},
	KindChallenge:     {"src_en", "src_ht", "tgt_en", "tgt_ht"},
	KindExpressions:   {"creole", "localized_ht"},
	KindGlossary:      {"creole_canonical", "recommended_alt"},
	KindMonolingualHT: {"text"},
	KindMonolingualEN: {"text"},
}

var idPrefix = map[Kind]string{
	KindCorpus:        "c_",
	KindHighRisk:      "hr_",
	KindProfanity:     "prof_",
	KindChallenge:     "chal_",
	KindExpressions:   "expr_",
	KindGlossary:      "gloss_",
	KindRules:         "rule_",
	KindMonolingualHT: "mono_ht_",
	KindMonolingualEN: "mono_en_",
}

// Options configures an Importer.
type Options struct {
	// Workers bounds the normalization fan-out. Zero uses GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// Result counts what happened to the rows of one file.
type Result struct {
	Kind             Kind
	Read             int
	Imported         int
	Duplicates       int
	Skipped          int
	DosageFlagged    int
	RiskFlagged      int
	LanguageWarnings int
}

// Importer writes CSV sources into a Store.
type Importer struct {
	store     *store.Store
	norm      *normalizer.Normalizer
	validator *validator.Validator
	risk      *risk.Flagger
	log       *zap.Logger
	workers   int
}

// New creates an Importer. v may be nil to skip language checks.
func New(st *store.Store, norm *normalizer.Normalizer, v *validator.Validator, log *zap.Logger, opts Options) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Importer{store: st, norm: norm, validator: v, risk: risk.New(), log: log, workers: workers}
}

// Import reads r as a CSV of the given kind. source is recorded as the
// provenance of rows that carry none.
func (im *Importer) Import(ctx context.Context, kind Kind, r io.Reader, source string) (*Result, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	rows, err = im.normalizeRows(ctx, rows, textColumns[kind])
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: kind, Read: len(rows)}
	log := im.log.With(zap.String("kind", string(kind)), zap.String("source", source))

	err = im.store.InTx(ctx, func(tx *store.Tx) error {
		for i, rw := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := qualifyID(kind, rw.get("id", ""))
			insert, err := im.build(kind, rw, id, source, res, log)
			if err != nil {
				if errors.Is(err, corpus.ErrUnknownEnum) {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				res.Skipped++
				log.Warn("skipping row", zap.Int("row", i+1), zap.String("id", id), zap.Error(err))
				continue
			}
			switch err := insert(ctx, tx); {
			case errors.Is(err, store.ErrDuplicate):
				res.Duplicates++
				log.Warn("duplicate row skipped", zap.Int("row", i+1), zap.String("id", id))
			case err != nil:
				return fmt.Errorf("row %d: %w", i+1, err)
			default:
				res.Imported++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", kind, err)
	}

	log.Info("ingest complete",
		zap.Int("read", res.Read),
		zap.Int("imported", res.Imported),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("skipped", res.Skipped),
		zap.Int("dosage_flagged", res.DosageFlagged),
		zap.Int("risk_flagged", res.RiskFlagged),
		zap.Int("language_warnings", res.LanguageWarnings))
	return res, nil
}

// normalizeRows normalizes the given columns of every row on a bounded set of
// workers. The returned slice keeps the input order.
func (im *Importer) normalizeRows(ctx context.Context, rows []row, columns []string) ([]row, error) {
	if len(columns) == 0 || len(rows) == 0 {
		return rows, nil
	}

	type indexed struct {
		index int
		row   row
	}

	out := make([]row, len(rows))
	results := make(chan indexed, len(rows))
	sem := make(chan struct{}, im.workers)

	var wg sync.WaitGroup
	for i, rw := range rows {
		wg.Add(1)
		go func(index int, in row) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cp := make(row, len(in))
			for k, v := range in {
				cp[k] = v
			}
			for _, col := range columns {
				if v, ok := cp[col]; ok && v != "" {
					cp[col] = im.norm.Normalize(v)
				}
			}
			results <- indexed{index: index, row: cp}
		}(i, rw)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		out[res.index] = res.row
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// detectDosage reports whether any of the texts mentions a dose.
func (im *Importer) detectDosage(texts ...string) bool {
	for _, t := range texts {
		if t != "" && im.norm.DetectDosagePattern(t) {
			return true
		}
	}
	return false
}

// checkLanguage logs a data-quality warning when text confidently reads as
// the other corpus language. The row is still imported.
func (im *Importer) checkLanguage(log *zap.Logger, res *Result, id, field, text string, lang corpus.Language) {
	if im.validator == nil || text == "" {
		return
	}
	ok, err := im.validator.IsValid(text, lang)
	if ok || !errors.Is(err, validator.ErrLanguageMismatch) {
		return
	}
	res.LanguageWarnings++
	log.Warn("language tag looks wrong",
		zap.String("id", id),
		zap.String("field", field),
		zap.String("lang", string(lang)),
		zap.Error(err))
}

func newID(kind Kind) string {
	return idPrefix[kind] + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// qualifyID gives a CSV-supplied id its kind prefix so ids stay unique
// across tables. An empty id gets a generated one.
func qualifyID(kind Kind, id string) string {
	if id == "" {
		return newID(kind)
	}
	if strings.HasPrefix(id, idPrefix[kind]) {
		return id
	}
	return idPrefix[kind] + id
}
