package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalimax/kalimax/internal/corpus"
)

func insertGlossary(ctx context.Context, db execer, g *corpus.GlossaryEntry) error {
	return insertIgnore(ctx, db, g.ID, `
		INSERT OR IGNORE INTO glossary (
			id, creole_canonical, english_equivalents, aliases, domain, cultural_weight,
			preferred_for_patients, recommended_alternative, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.CreoleCanonical, g.EnglishEquivalents, g.Aliases, g.Domain, g.CulturalWeight,
		boolInt(g.PreferredForPatients), nullString(g.RecommendedAlt), nullString(g.Notes))
}

// AddGlossaryEntry inserts a glossary entry.
func (s *Store) AddGlossaryEntry(ctx context.Context, g *corpus.GlossaryEntry) error {
	return insertGlossary(ctx, s.db, g)
}

// ListGlossary returns glossary entries, optionally filtered by domain (pass
// "" for everything).
func (s *Store) ListGlossary(ctx context.Context, domain corpus.Domain) ([]corpus.GlossaryEntry, error) {
	query := `SELECT id, creole_canonical, english_equivalents, aliases, domain, cultural_weight,
		preferred_for_patients, COALESCE(recommended_alternative, ''), COALESCE(notes, ''), created_at
		FROM glossary`
	var args []any
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY domain, creole_canonical`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []corpus.GlossaryEntry
	for rows.Next() {
		var (
			e              corpus.GlossaryEntry
			domain, weight string
			preferred      int
		)
		if err := rows.Scan(&e.ID, &e.CreoleCanonical, &e.EnglishEquivalents, &e.Aliases, &domain, &weight,
			&preferred, &e.RecommendedAlt, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PreferredForPatients = preferred != 0
		if e.Domain, err = corpus.ParseDomain(domain); err != nil {
			return nil, fmt.Errorf("glossary %s: %w", e.ID, err)
		}
		if e.CulturalWeight, err = corpus.ParseCulturalWeight(weight); err != nil {
			return nil, fmt.Errorf("glossary %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GlossaryTerms returns English term -> Creole canonical pairs for a domain,
// ready to embed in a translation prompt. Taboo entries are replaced by their
// recommended alternative when one exists.
func (s *Store) GlossaryTerms(ctx context.Context, domain corpus.Domain) (map[string]string, error) {
	entries, err := s.ListGlossary(ctx, domain)
	if err != nil {
		return nil, err
	}
	terms := make(map[string]string)
	for _, e := range entries {
		target := e.CreoleCanonical
		if e.CulturalWeight == corpus.WeightTaboo && e.RecommendedAlt != "" {
			target = e.RecommendedAlt
		}
		for _, en := range e.EnglishEquivalents {
			if en = strings.TrimSpace(en); en != "" {
				terms[en] = target
			}
		}
	}
	return terms, nil
}

// DeleteGlossaryEntry removes a glossary entry by ID.
func (s *Store) DeleteGlossaryEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("glossary %s: %w", id, ErrNotFound)
	}
	return nil
}
