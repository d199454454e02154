// Package export turns the curated corpus into newline-delimited JSON
// training records.
//
// A run makes two passes over the store. The first validates every eligible
// record and builds its training rows without writing; the second writes
// them. A vocabulary violation found in the first pass therefore aborts the
// run before a single line is produced. Records are read and written in id
// order, one at a time, so memory use does not grow with the corpus.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/metrics"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/policy"
)

// DryRunLimit caps the records a dry run emits.
const DryRunLimit = 200

// ErrInvalidOptions is returned before any output when the run options are
// inconsistent.
var ErrInvalidOptions = errors.New("invalid export options")

// Format selects how literal and localized targets are laid out.
type Format string

const (
	// FormatTwoRow emits one record per target variant, with ids suffixed
	// by the mode.
	FormatTwoRow Format = "two_row"
	// FormatModeToken keeps the record id and appends a <mode:...> control
	// token to the input.
	FormatModeToken Format = "mode_token"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTwoRow:
		return FormatTwoRow, nil
	case FormatModeToken:
		return FormatModeToken, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, s)
}

// Options selects and shapes the exported records.
type Options struct {
	MinStatus corpus.Status
	// Limit caps the number of eligible source records. Zero means no limit.
	Limit  int
	Format Format
	DryRun bool
}

func (o Options) Validate() error {
	if o.MinStatus.Rank() < 0 {
		return fmt.Errorf("%w: unknown status filter %q", ErrInvalidOptions, o.MinStatus)
	}
	if o.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidOptions, o.Limit)
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	return nil
}

// TrainingRecord is one line of the output file.
type TrainingRecord struct {
	ID         string        `json:"id"`
	InputText  string        `json:"input_text"`
	TargetText string        `json:"target_text"`
	Weight     policy.Weight `json:"weight"`
	Tags       []string      `json:"tags"`
	Metadata   Metadata      `json:"metadata"`
}

// Metadata carries pass-through curation fields.
type Metadata struct {
	CulturalNote string   `json:"cultural_note"`
	Provenance   string   `json:"provenance"`
	Confidence   float64  `json:"confidence"`
	Aliases      []string `json:"aliases,omitempty"`
}

// Summary reports what a run did. It is produced for dry and full runs alike.
type Summary struct {
	Considered  int
	BelowStatus int
	Excluded    int
	Skipped     int
	Emitted     int
	Warnings    int
	DryRun      bool
	Fatal       error

	// CorrectionIDs lists the correction records that reached the output.
	CorrectionIDs []string
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "considered=%d emitted=%d skipped=%d challenge_excluded=%d below_status=%d warnings=%d",
		s.Considered, s.Emitted, s.Skipped, s.Excluded, s.BelowStatus, s.Warnings)
	if s.DryRun {
		b.WriteString(" dry_run=true")
	}
	if s.Fatal != nil {
		fmt.Fprintf(&b, " fatal=%q", s.Fatal.Error())
	}
	return b.String()
}

// Source is the read side of the corpus store.
type Source interface {
	Bilingual(ctx context.Context) iter.Seq2[*corpus.Record, error]
	Challenges(ctx context.Context) ([]corpus.ChallengeRecord, error)
	Expressions(ctx context.Context) ([]corpus.Expression, error)
	Monolingual(ctx context.Context, lang corpus.Language) iter.Seq2[*corpus.MonolingualRecord, error]
}

// Exporter produces training files from a Source.
type Exporter struct {
	src     Source
	norm    *normalizer.Normalizer
	log     *zap.Logger
	metrics *metrics.Run
}

// New creates an Exporter. log and m may be nil.
func New(src Source, norm *normalizer.Normalizer, log *zap.Logger, m *metrics.Run) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{src: src, norm: norm, log: log, metrics: m}
}

// Run exports the bilingual corpus to w. A fatal error is returned together
// with a summary whose Fatal field is set; in that case nothing was written.
func (e *Exporter) Run(ctx context.Context, opts Options, w io.Writer) (*Summary, error) {
	summary := &Summary{DryRun: opts.DryRun}
	fail := func(err error) (*Summary, error) {
		summary.Fatal = err
		e.log.Error("export aborted", zap.Error(err))
		return summary, err
	}

	if err := opts.Validate(); err != nil {
		return fail(err)
	}
	challenges, err := e.loadChallenges(ctx)
	if err != nil {
		return fail(err)
	}

	preflight := &pass{
		summary: &Summary{DryRun: opts.DryRun},
		log:     zap.NewNop(),
		emit:    func(TrainingRecord) error { return nil },
	}
	if err := e.walk(ctx, opts, challenges, preflight); err != nil {
		return fail(err)
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	emit := func(rec TrainingRecord) error {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
		return nil
	}
	if err := e.walk(ctx, opts, challenges, &pass{summary: summary, log: e.log, metrics: e.metrics, emit: emit}); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("flush output: %w", err))
	}

	e.log.Info("export complete",
		zap.Int("considered", summary.Considered),
		zap.Int("emitted", summary.Emitted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("challenge_excluded", summary.Excluded),
		zap.Int("below_status", summary.BelowStatus),
		zap.Bool("dry_run", summary.DryRun))
	return summary, nil
}

// pass is one traversal of the store. The validation pass has no metrics and
// discards its rows.
type pass struct {
	summary *Summary
	log     *zap.Logger
	metrics *metrics.Run
	emit    func(TrainingRecord) error
}

// walk streams the eligible records through build and hands each training
// row to p.emit.
func (e *Exporter) walk(ctx context.Context, opts Options, challenges *challengeSet, p *pass) error {
	summary, log, m, emit := p.summary, p.log, p.metrics, p.emit
	capacity := 0
	if opts.DryRun {
		capacity = DryRunLimit
	}
	eligible := 0
	prevID := ""

	for rec, err := range e.src.Bilingual(ctx) {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// The stream is ordered by id then origin, so an id shared by two
		// tables arrives in adjacent records.
		root := rec.ID
		if rec.ID == prevID {
			root = string(rec.Origin) + "_" + rec.ID
			log.Warn("id shared across tables", zap.String("id", rec.ID), zap.String("origin", string(rec.Origin)))
		}
		prevID = rec.ID
		if opts.Limit > 0 && eligible >= opts.Limit {
			break
		}
		summary.Considered++
		m.IncConsidered()

		if !rec.Status.AtLeast(opts.MinStatus) {
			summary.BelowStatus++
			continue
		}
		e.normalizeRecord(rec)
		if challenges.contains(rec) {
			summary.Excluded++
			m.IncExcluded()
			log.Debug("challenge overlap withheld", zap.String("id", rec.ID))
			continue
		}
		eligible++

		rows, warnings, err := build(rec, root, opts.Format)
		if err != nil {
			if errors.Is(err, corpus.ErrUnknownEnum) {
				return err
			}
			summary.Skipped++
			m.IncSkipped(skipReason(err))
			log.Warn("record skipped", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		for _, w := range warnings {
			summary.Warnings++
			log.Warn("data quality", zap.String("id", rec.ID), zap.String("warning", w))
		}

		for _, row := range rows {
			if capacity > 0 && summary.Emitted >= capacity {
				return nil
			}
			if err := emit(row); err != nil {
				return err
			}
			summary.Emitted++
			m.IncEmitted(modeOf(row))
		}
		if rec.Origin == corpus.OriginCorrection {
			summary.CorrectionIDs = append(summary.CorrectionIDs, rec.ID)
		}
	}
	return nil
}

func (e *Exporter) normalizeRecord(r *corpus.Record) {
	r.SourceText = e.norm.Normalize(r.SourceText)
	r.TargetLiteral = e.norm.Normalize(r.TargetLiteral)
	r.TargetLocalized = e.norm.Normalize(r.TargetLocalized)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, corpus.ErrMissingTarget):
		return "no_target"
	case errors.Is(err, corpus.ErrMissingSource):
		return "no_source"
	}
	return "invalid"
}

func modeOf(rec TrainingRecord) string {
	if len(rec.Tags) > 0 {
		return strings.TrimPrefix(rec.Tags[0], "mode:")
	}
	return ""
}
