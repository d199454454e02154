package risk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/store"
)

// DraftStore reads draft records and stores raised risk levels.
type DraftStore interface {
	DraftRiskRows(ctx context.Context) ([]store.RiskRow, error)
	RaiseRisk(ctx context.Context, id string, level corpus.RiskLevel, flags corpus.SafetyFlags) error
}

// Flagged is one draft record with findings.
type Flagged struct {
	ID         string
	Origin     corpus.Origin
	Assessment Assessment

	// Raised is set for high-risk rows whose stored level or flags changed.
	Raised bool
}

// Report summarizes a pass over the draft records.
type Report struct {
	Checked  int
	Critical int
	High     int
	Raised   int
	Flagged  []Flagged
}

// FlagDrafts assesses every draft corpus and high-risk record. High-risk rows
// get their level raised and flags merged; with dryRun nothing is written.
// Corpus rows have no risk columns and are only reported.
func (f *Flagger) FlagDrafts(ctx context.Context, st DraftStore, dryRun bool, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rows, err := st.DraftRiskRows(ctx)
	if err != nil {
		return nil, err
	}

	rep := &Report{Checked: len(rows)}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := f.Assess(r.Texts...)
		if !a.Flagged() {
			continue
		}
		switch a.Level {
		case corpus.RiskCritical:
			rep.Critical++
		case corpus.RiskHigh:
			rep.High++
		}

		item := Flagged{ID: r.ID, Origin: r.Origin, Assessment: a}
		if r.Origin == corpus.OriginHighRisk {
			level, flags, changed := a.Merge(r.Level, r.Flags)
			if changed {
				if !dryRun {
					if err := st.RaiseRisk(ctx, r.ID, level, flags); err != nil {
						return nil, fmt.Errorf("raise risk: %w", err)
					}
				}
				item.Raised = true
				rep.Raised++
				log.Debug("risk raised",
					zap.String("id", r.ID),
					zap.String("from", string(r.Level)),
					zap.String("to", string(level)),
					zap.Bool("dry_run", dryRun))
			}
		}
		rep.Flagged = append(rep.Flagged, item)
	}
	return rep, nil
}
