package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/kalimax/kalimax/internal/corpus"
)

// bilingualQuery reads every bilingual training candidate as one stream,
// ordered by id. Blocked profanity and consumed corrections never appear.
const bilingualQuery = `
	SELECT id, 'corpus' AS origin, src_text, src_lang,
		COALESCE(tgt_text_literal, ''), COALESCE(tgt_text_localized, ''), tgt_lang,
		domain, is_idiom, COALESCE(expression_id, ''), aliases, contains_dosage, context,
		COALESCE(cultural_note, ''), COALESCE(provenance, ''), confidence, curation_status
	FROM corpus
	UNION ALL
	SELECT id, 'high_risk', src_text, src_lang,
		COALESCE(tgt_text_literal, ''), COALESCE(tgt_text_localized, ''), tgt_lang,
		domain, 0, '', '[]', contains_dosage, context,
		COALESCE(cultural_note, ''), COALESCE(provenance, ''), confidence, curation_status
	FROM high_risk
	UNION ALL
	SELECT id, 'profanity', term_english, 'eng_Latn',
		term_creole, COALESCE(json_extract(safe_alternatives_ht, '$[0]'), ''), 'hat_Latn',
		'general', 0, '', '[]', 0, NULL,
		COALESCE(cultural_note, ''), COALESCE(provenance, ''), 1.0, curation_status
	FROM profanity
	WHERE should_block = 0
	UNION ALL
	SELECT id, 'correction', input_text, src_lang,
		'', human_correction, tgt_lang,
		domain, 0, '', '[]', 0, json_object('audience', audience),
		'', 'correction:' || editor, 1.0, 'reviewed'
	FROM corrections
	WHERE used_for_retraining = 0
	ORDER BY id, origin`

// Bilingual streams bilingual records in id order. Enumerated columns are
// validated here; a value outside its vocabulary is yielded as an error
// wrapping corpus.ErrUnknownEnum and ends the stream.
func (s *Store) Bilingual(ctx context.Context) iter.Seq2[*corpus.Record, error] {
	return func(yield func(*corpus.Record, error) bool) {
		rows, err := s.db.QueryContext(ctx, bilingualQuery)
		if err != nil {
			yield(nil, fmt.Errorf("query bilingual records: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if !yield(rec, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("read bilingual records: %w", err))
		}
	}
}

func scanRecord(rows *sql.Rows) (*corpus.Record, error) {
	var (
		r                        corpus.Record
		origin, srcLang, tgtLang string
		domain, status           string
		isIdiom, containsDosage  int
	)
	err := rows.Scan(&r.ID, &origin, &r.SourceText, &srcLang,
		&r.TargetLiteral, &r.TargetLocalized, &tgtLang,
		&domain, &isIdiom, &r.ExpressionID, &r.Aliases, &containsDosage, &r.Context,
		&r.CulturalNote, &r.Provenance, &r.Confidence, &status)
	if err != nil {
		return nil, fmt.Errorf("scan record %q: %w", r.ID, err)
	}
	r.IsIdiom = isIdiom != 0
	r.ContainsDosage = containsDosage != 0

	if r.Origin, err = corpus.ParseOrigin(origin); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.SourceLang, err = corpus.ParseLanguage(srcLang); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.TargetLang, err = corpus.ParseLanguage(tgtLang); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.Domain, err = corpus.ParseDomain(domain); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.Status, err = corpus.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return &r, nil
}

// Challenges returns the held-out evaluation set.
func (s *Store) Challenges(ctx context.Context) ([]corpus.ChallengeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(src_en, ''), COALESCE(src_ht, ''), COALESCE(tgt_en, ''), COALESCE(tgt_ht, ''),
			COALESCE(category, ''), domain, COALESCE(difficulty, ''), COALESCE(phenomenon, ''),
			COALESCE(expected_behavior, ''), COALESCE(notes, ''), COALESCE(provenance, '')
		FROM challenge ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query challenge set: %w", err)
	}
	defer rows.Close()

	var out []corpus.ChallengeRecord
	for rows.Next() {
		var (
			c      corpus.ChallengeRecord
			domain string
		)
		if err := rows.Scan(&c.ID, &c.SourceEN, &c.SourceHT, &c.TargetEN, &c.TargetHT,
			&c.Category, &domain, &c.Difficulty, &c.Phenomenon,
			&c.ExpectedBehavior, &c.Notes, &c.Provenance); err != nil {
			return nil, err
		}
		if c.Domain, err = corpus.ParseDomain(domain); err != nil {
			return nil, fmt.Errorf("challenge %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Expressions returns all idiom entries ordered by id.
func (s *Store) Expressions(ctx context.Context) ([]corpus.Expression, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creole, COALESCE(literal_gloss_en, ''), COALESCE(idiomatic_en, ''),
			COALESCE(localized_ht, ''), COALESCE(register, ''), COALESCE(region, ''),
			COALESCE(cultural_note, ''), COALESCE(provenance, '')
		FROM expressions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expressions: %w", err)
	}
	defer rows.Close()

	var out []corpus.Expression
	for rows.Next() {
		var (
			e                corpus.Expression
			register, region string
		)
		if err := rows.Scan(&e.ID, &e.Creole, &e.LiteralGloss, &e.IdiomaticEN,
			&e.LocalizedHT, &register, &region, &e.CulturalNote, &e.Provenance); err != nil {
			return nil, err
		}
		if e.Register, err = corpus.ParseRegister(register); err != nil {
			return nil, fmt.Errorf("expression %s: %w", e.ID, err)
		}
		if e.Region, err = corpus.ParseRegion(region); err != nil {
			return nil, fmt.Errorf("expression %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func monolingualTable(lang corpus.Language) (string, error) {
	switch lang {
	case corpus.LangCreole:
		return "monolingual_ht", nil
	case corpus.LangEnglish:
		return "monolingual_en", nil
	}
	return "", fmt.Errorf("monolingual: %w", &corpus.EnumError{Field: "language", Value: string(lang)})
}

// Monolingual streams plain-text records of one language in id order.
func (s *Store) Monolingual(ctx context.Context, lang corpus.Language) iter.Seq2[*corpus.MonolingualRecord, error] {
	return func(yield func(*corpus.MonolingualRecord, error) bool) {
		table, err := monolingualTable(lang)
		if err != nil {
			yield(nil, err)
			return
		}
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, text, COALESCE(domain, ''), COALESCE(register, ''), COALESCE(region, ''),
				COALESCE(provenance, '')
			FROM `+table+` ORDER BY id`)
		if err != nil {
			yield(nil, fmt.Errorf("query %s: %w", table, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMonolingual(rows, lang)
			if !yield(m, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("read %s: %w", table, err))
		}
	}
}

func scanMonolingual(rows *sql.Rows, lang corpus.Language) (*corpus.MonolingualRecord, error) {
	var (
		m                        corpus.MonolingualRecord
		domain, register, region string
	)
	if err := rows.Scan(&m.ID, &m.Text, &domain, &register, &region, &m.Provenance); err != nil {
		return nil, err
	}
	m.Lang = lang
	var err error
	if domain != "" {
		if m.Domain, err = corpus.ParseDomain(domain); err != nil {
			return nil, fmt.Errorf("monolingual %s: %w", m.ID, err)
		}
	}
	if m.Register, err = corpus.ParseRegister(register); err != nil {
		return nil, fmt.Errorf("monolingual %s: %w", m.ID, err)
	}
	if m.Region, err = corpus.ParseRegion(region); err != nil {
		return nil, fmt.Errorf("monolingual %s: %w", m.ID, err)
	}
	return &m, nil
}

// Rules returns the normalization rule table ordered by variant.
func (s *Store) Rules(ctx context.Context) ([]corpus.NormalizationRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, variant, canonical, COALESCE(english_equivalent, ''),
			COALESCE(register, ''), COALESCE(region, ''), COALESCE(notes, '')
		FROM normalization_rules ORDER BY variant`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []corpus.NormalizationRule
	for rows.Next() {
		var (
			r                corpus.NormalizationRule
			register, region string
		)
		if err := rows.Scan(&r.ID, &r.Variant, &r.Canonical, &r.EnglishEquivalent,
			&register, &region, &r.Notes); err != nil {
			return nil, err
		}
		r.Register = corpus.Register(register)
		r.Region = corpus.Region(region)
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
