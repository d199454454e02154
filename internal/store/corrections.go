package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kalimax/kalimax/internal/corpus"
)

// AddCorrection appends a correction to the audit log.
func (s *Store) AddCorrection(ctx context.Context, c *corpus.CorrectionRecord) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (
			id, input_text, model_output, human_correction, src_lang, tgt_lang, domain,
			audience, correction_type, severity, editor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Input, nullString(c.ModelOutput), c.HumanCorrection, c.SourceLang, c.TargetLang, c.Domain,
		c.Audience, c.Type, c.Severity, c.Editor, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert correction %s: %w", c.ID, err)
	}
	return nil
}

// MarkCorrectionsUsed flags corrections consumed by an export. Already
// flagged ids are left alone; the count of newly flagged rows is returned.
func (s *Store) MarkCorrectionsUsed(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var total int64
	err := s.InTx(ctx, func(tx *Tx) error {
		// SQLite caps bound parameters, so update in batches.
		const batch = 500
		for start := 0; start < len(ids); start += batch {
			end := min(start+batch, len(ids))
			chunk := ids[start:end]
			args := make([]any, len(chunk))
			for i, id := range chunk {
				args[i] = id
			}
			res, err := tx.tx.ExecContext(ctx,
				`UPDATE corrections SET used_for_retraining = 1
				 WHERE used_for_retraining = 0 AND id IN (`+placeholders(len(chunk))+`)`, args...)
			if err != nil {
				return fmt.Errorf("mark corrections used: %w", err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	return total, err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
