package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kalimax/kalimax/internal/corpus"
)

// MemoryKey identifies a cached translation. SourceText should already be
// normalized by the caller.
type MemoryKey struct {
	SourceText string
	SourceLang corpus.Language
	TargetLang corpus.Language
	Audience   corpus.Audience
}

// MemoryEntry is a cached inference result.
type MemoryEntry struct {
	Text        string
	Confidence  float64
	ServiceUsed string
}

// MemoryStats summarises translation memory usage.
type MemoryStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

// CachedTranslation returns the cached result for key and bumps its usage.
func (s *Store) CachedTranslation(ctx context.Context, key MemoryKey) (MemoryEntry, bool, error) {
	var (
		e           MemoryEntry
		confidence  sql.NullFloat64
		service     sql.NullString
		invalidated bool
	)
	source := normalizeKey(key.SourceText)
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, confidence, service_used, invalidated FROM translation_memory
		 WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND audience = ?`,
		source, key.SourceLang, key.TargetLang, key.Audience).Scan(&e.Text, &confidence, &service, &invalidated)
	if errors.Is(err, sql.ErrNoRows) {
		return MemoryEntry{}, false, nil
	}
	if err != nil {
		return MemoryEntry{}, false, err
	}
	if invalidated {
		return MemoryEntry{}, false, nil
	}
	e.Confidence = confidence.Float64
	e.ServiceUsed = service.String

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ?
		 WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND audience = ?`,
		time.Now().UTC(), source, key.SourceLang, key.TargetLang, key.Audience)
	return e, true, err
}

// SaveTranslation stores or replaces the cached result for key.
func (s *Store) SaveTranslation(ctx context.Context, key MemoryKey, e MemoryEntry) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (
			id, source_text, source_lang, target_lang, audience, final_text, confidence,
			service_used, usage_count, invalidated, last_used, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		"mem_"+uuid.NewString(), normalizeKey(key.SourceText), key.SourceLang, key.TargetLang, key.Audience,
		e.Text, e.Confidence, nullString(e.ServiceUsed), now, now)
	return err
}

// InvalidateTranslations marks every cached result for a source text as stale,
// typically after a human correction.
func (s *Store) InvalidateTranslations(ctx context.Context, sourceText string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE translation_memory SET invalidated = TRUE WHERE source_text = ?`, normalizeKey(sourceText))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MemoryStats returns summary statistics for the translation memory.
func (s *Store) MemoryStats(ctx context.Context) (*MemoryStats, error) {
	stats := &MemoryStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
