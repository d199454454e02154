package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kalimax/kalimax/internal/corpus"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Tx groups inserts so an ingest either commits completely or not at all.
type Tx struct {
	tx *sql.Tx
}

// InTx runs fn in a transaction, rolling back when fn returns an error.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertIgnore runs an INSERT OR IGNORE and reports ErrDuplicate when the
// row already existed.
func insertIgnore(ctx context.Context, db execer, id, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrDuplicate)
	}
	return nil
}

func (t *Tx) InsertRecord(ctx context.Context, r *corpus.Record, dataset string) error {
	now := time.Now().UTC()
	return insertIgnore(ctx, t.tx, r.ID, `
		INSERT OR IGNORE INTO corpus (
			id, src_text, src_lang, tgt_text_literal, tgt_text_localized, tgt_lang,
			domain, is_idiom, expression_id, aliases, contains_dosage, context, cultural_note,
			provenance, confidence, dataset_name, curation_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceText, r.SourceLang, nullString(r.TargetLiteral), nullString(r.TargetLocalized), r.TargetLang,
		r.Domain, boolInt(r.IsIdiom), nullString(r.ExpressionID), r.Aliases, boolInt(r.ContainsDosage), r.Context, nullString(r.CulturalNote),
		nullString(r.Provenance), r.Confidence, nullString(dataset), r.Status, now, now)
}

func (t *Tx) InsertHighRisk(ctx context.Context, h *corpus.HighRiskRecord) error {
	var dosage sql.NullString
	if h.Dosage != nil {
		b, err := json.Marshal(h.Dosage)
		if err != nil {
			return fmt.Errorf("encode dosage for %s: %w", h.ID, err)
		}
		dosage = sql.NullString{String: string(b), Valid: true}
	}
	now := time.Now().UTC()
	return insertIgnore(ctx, t.tx, h.ID, `
		INSERT OR IGNORE INTO high_risk (
			id, src_text, src_lang, tgt_text_literal, tgt_text_localized, tgt_lang, domain,
			instruction_type, risk_level, contains_dosage, dosage_json, safety_flags, context,
			cultural_note, provenance, confidence, require_human_review, notes, curation_status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.SourceText, h.SourceLang, nullString(h.TargetLiteral), nullString(h.TargetLocalized), h.TargetLang, h.Domain,
		h.InstructionType, h.RiskLevel, boolInt(h.ContainsDosage), dosage, h.SafetyFlags, h.Context,
		nullString(h.CulturalNote), nullString(h.Provenance), h.Confidence, boolInt(h.RequireReview), nullString(h.Notes), h.Status,
		now, now)
}

func (t *Tx) InsertExpression(ctx context.Context, e *corpus.Expression) error {
	return insertIgnore(ctx, t.tx, e.ID, `
		INSERT OR IGNORE INTO expressions (
			id, creole, literal_gloss_en, idiomatic_en, localized_ht, register, region,
			cultural_note, provenance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Creole, nullString(e.LiteralGloss), nullString(e.IdiomaticEN), nullString(e.LocalizedHT),
		nullString(string(e.Register)), nullString(string(e.Region)), nullString(e.CulturalNote), nullString(e.Provenance))
}

func (t *Tx) InsertGlossary(ctx context.Context, g *corpus.GlossaryEntry) error {
	return insertGlossary(ctx, t.tx, g)
}

func (t *Tx) InsertProfanity(ctx context.Context, p *corpus.ProfanityRecord) error {
	acceptable, err := json.Marshal(p.Acceptable)
	if err != nil {
		return fmt.Errorf("encode acceptable context for %s: %w", p.ID, err)
	}
	return insertIgnore(ctx, t.tx, p.ID, `
		INSERT OR IGNORE INTO profanity (
			id, term_creole, term_english, severity, category, safe_alternatives_ht,
			safe_alternatives_en, cultural_note, should_flag, should_block, acceptable_context,
			provenance, curation_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TermCreole, p.TermEnglish, p.Severity, p.Category, p.SafeAlternativeHT,
		p.SafeAlternativeEN, nullString(p.CulturalNote), boolInt(p.ShouldFlag), boolInt(p.ShouldBlock), string(acceptable),
		nullString(p.Provenance), p.Status)
}

func (t *Tx) InsertChallenge(ctx context.Context, c *corpus.ChallengeRecord) error {
	return insertIgnore(ctx, t.tx, c.ID, `
		INSERT OR IGNORE INTO challenge (
			id, src_en, src_ht, tgt_en, tgt_ht, category, domain, difficulty, phenomenon,
			expected_behavior, notes, provenance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.SourceEN), nullString(c.SourceHT), nullString(c.TargetEN), nullString(c.TargetHT),
		nullString(c.Category), c.Domain, nullString(c.Difficulty), nullString(c.Phenomenon),
		nullString(c.ExpectedBehavior), nullString(c.Notes), nullString(c.Provenance))
}

func (t *Tx) InsertMonolingual(ctx context.Context, m *corpus.MonolingualRecord) error {
	table, err := monolingualTable(m.Lang)
	if err != nil {
		return err
	}
	return insertIgnore(ctx, t.tx, m.ID, `
		INSERT OR IGNORE INTO `+table+` (id, text, domain, register, region, provenance)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Text, nullString(string(m.Domain)), nullString(string(m.Register)), nullString(string(m.Region)),
		nullString(m.Provenance))
}

// UpsertRule inserts a rule or replaces the one with the same variant.
func (t *Tx) UpsertRule(ctx context.Context, r *corpus.NormalizationRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO normalization_rules (id, variant, canonical, english_equivalent, register, region, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(variant) DO UPDATE SET
			canonical = excluded.canonical,
			english_equivalent = excluded.english_equivalent,
			register = excluded.register,
			region = excluded.region,
			notes = excluded.notes`,
		r.ID, r.Variant, r.Canonical, nullString(r.EnglishEquivalent),
		nullString(string(r.Register)), nullString(string(r.Region)), nullString(r.Notes))
	if err != nil {
		return fmt.Errorf("upsert rule %s: %w", r.ID, err)
	}
	return nil
}
