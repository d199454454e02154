package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kalimax/kalimax/internal/corpus"
)

// RiskRow is a draft record as the risk flagger sees it. Level and Flags are
// empty for corpus rows, which carry no risk columns.
type RiskRow struct {
	ID     string
	Origin corpus.Origin
	Texts  []string
	Level  corpus.RiskLevel
	Flags  corpus.SafetyFlags
}

// DraftRiskRows returns the draft corpus and high-risk rows in id order.
func (s *Store) DraftRiskRows(ctx context.Context) ([]RiskRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, 'high_risk' AS origin, src_text, COALESCE(tgt_text_literal, ''), COALESCE(tgt_text_localized, ''),
			risk_level, safety_flags
		FROM high_risk WHERE curation_status = 'draft'
		UNION ALL
		SELECT id, 'corpus', src_text, COALESCE(tgt_text_literal, ''), COALESCE(tgt_text_localized, ''),
			'', '[]'
		FROM corpus WHERE curation_status = 'draft'
		ORDER BY id, origin`)
	if err != nil {
		return nil, fmt.Errorf("query draft records: %w", err)
	}
	defer rows.Close()

	var out []RiskRow
	for rows.Next() {
		var (
			r                 RiskRow
			origin, level     string
			src, literal, tgt string
		)
		if err := rows.Scan(&r.ID, &origin, &src, &literal, &tgt, &level, &r.Flags); err != nil {
			return nil, fmt.Errorf("scan draft record: %w", err)
		}
		if r.Origin, err = corpus.ParseOrigin(origin); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if level != "" {
			if r.Level, err = corpus.ParseRiskLevel(level); err != nil {
				return nil, fmt.Errorf("record %s: %w", r.ID, err)
			}
		}
		r.Texts = []string{src, literal, tgt}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RaiseRisk stores a new risk level and flag set on a high-risk row and
// marks it for human review.
func (s *Store) RaiseRisk(ctx context.Context, id string, level corpus.RiskLevel, flags corpus.SafetyFlags) error {
	if _, err := corpus.ParseRiskLevel(string(level)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE high_risk
		SET risk_level = ?, safety_flags = ?, require_human_review = 1, updated_at = ?
		WHERE id = ?`,
		level, flags, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update risk of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("high-risk record %s: %w", id, ErrNotFound)
	}
	return nil
}
