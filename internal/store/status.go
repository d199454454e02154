package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalimax/kalimax/internal/corpus"
)

// curatedTables hold rows with a curation_status column.
var curatedTables = []string{"corpus", "high_risk", "profanity"}

// AdvanceStatus moves a record to next. The lifecycle only moves forward;
// anything else returns corpus.ErrStatusRegression.
func (s *Store) AdvanceStatus(ctx context.Context, id string, next corpus.Status) (corpus.Status, error) {
	if _, err := corpus.ParseStatus(string(next)); err != nil {
		return "", err
	}

	var prev corpus.Status
	err := s.InTx(ctx, func(tx *Tx) error {
		table, current, err := findStatus(ctx, tx.tx, id)
		if err != nil {
			return err
		}
		prev = current
		if !current.CanAdvanceTo(next) {
			return fmt.Errorf("%s: %s -> %s: %w", id, current, next, corpus.ErrStatusRegression)
		}

		query := `UPDATE ` + table + ` SET curation_status = ? WHERE id = ?`
		args := []any{next, id}
		if table != "profanity" {
			query = `UPDATE ` + table + ` SET curation_status = ?, updated_at = ? WHERE id = ?`
			args = []any{next, time.Now().UTC(), id}
		}
		_, err = tx.tx.ExecContext(ctx, query, args...)
		return err
	})
	return prev, err
}

func findStatus(ctx context.Context, tx *sql.Tx, id string) (string, corpus.Status, error) {
	var (
		found  []string
		status corpus.Status
	)
	for _, table := range curatedTables {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT curation_status FROM `+table+` WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		if status, err = corpus.ParseStatus(raw); err != nil {
			return "", "", fmt.Errorf("%s %s: %w", table, id, err)
		}
		found = append(found, table)
	}
	switch len(found) {
	case 0:
		return "", "", fmt.Errorf("record %s: %w", id, ErrNotFound)
	case 1:
		return found[0], status, nil
	}
	return "", "", fmt.Errorf("record %s in %s: %w", id, strings.Join(found, ", "), ErrAmbiguousID)
}
