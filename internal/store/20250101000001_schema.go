package store

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return execAll(ctx, db, schema)
	}, func(ctx context.Context, db *bun.DB) error {
		var drops []string
		for i := len(corpusTables) - 1; i >= 0; i-- {
			drops = append(drops, "DROP TABLE IF EXISTS "+corpusTables[i])
		}
		return execAll(ctx, db, drops)
	})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS corpus (
		id TEXT PRIMARY KEY,
		src_text TEXT NOT NULL,
		src_lang TEXT NOT NULL,
		tgt_text_literal TEXT,
		tgt_text_localized TEXT,
		tgt_lang TEXT NOT NULL,
		domain TEXT NOT NULL,
		is_idiom INTEGER NOT NULL DEFAULT 0,
		expression_id TEXT,
		aliases TEXT NOT NULL DEFAULT '[]',
		contains_dosage INTEGER NOT NULL DEFAULT 0,
		context TEXT,
		cultural_note TEXT,
		provenance TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		dataset_name TEXT,
		curation_status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (tgt_text_literal IS NOT NULL OR tgt_text_localized IS NOT NULL),
		UNIQUE(src_text, tgt_text_localized, domain)
	)`,
	`CREATE TABLE IF NOT EXISTS high_risk (
		id TEXT PRIMARY KEY,
		src_text TEXT NOT NULL,
		src_lang TEXT NOT NULL,
		tgt_text_literal TEXT,
		tgt_text_localized TEXT,
		tgt_lang TEXT NOT NULL,
		domain TEXT NOT NULL,
		instruction_type TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		contains_dosage INTEGER NOT NULL DEFAULT 0,
		dosage_json TEXT,
		safety_flags TEXT NOT NULL DEFAULT '[]',
		context TEXT,
		cultural_note TEXT,
		provenance TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		require_human_review INTEGER NOT NULL DEFAULT 1,
		notes TEXT,
		curation_status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (tgt_text_literal IS NOT NULL OR tgt_text_localized IS NOT NULL),
		UNIQUE(src_text, tgt_text_localized, domain)
	)`,
	`CREATE TABLE IF NOT EXISTS expressions (
		id TEXT PRIMARY KEY,
		creole TEXT NOT NULL UNIQUE,
		literal_gloss_en TEXT,
		idiomatic_en TEXT,
		localized_ht TEXT,
		register TEXT,
		region TEXT,
		cultural_note TEXT,
		provenance TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		creole_canonical TEXT NOT NULL,
		english_equivalents TEXT NOT NULL DEFAULT '[]',
		aliases TEXT NOT NULL DEFAULT '[]',
		domain TEXT NOT NULL,
		cultural_weight TEXT NOT NULL DEFAULT 'neutral',
		preferred_for_patients INTEGER NOT NULL DEFAULT 0,
		recommended_alternative TEXT,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(creole_canonical, domain)
	)`,
	`CREATE TABLE IF NOT EXISTS profanity (
		id TEXT PRIMARY KEY,
		term_creole TEXT NOT NULL,
		term_english TEXT NOT NULL,
		severity TEXT NOT NULL,
		category TEXT NOT NULL,
		safe_alternatives_ht TEXT NOT NULL DEFAULT '[]',
		safe_alternatives_en TEXT NOT NULL DEFAULT '[]',
		cultural_note TEXT,
		should_flag INTEGER NOT NULL DEFAULT 1,
		should_block INTEGER NOT NULL DEFAULT 0,
		acceptable_context TEXT,
		provenance TEXT,
		curation_status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(term_creole, term_english)
	)`,
	`CREATE TABLE IF NOT EXISTS normalization_rules (
		id TEXT PRIMARY KEY,
		variant TEXT NOT NULL UNIQUE,
		canonical TEXT NOT NULL,
		english_equivalent TEXT,
		register TEXT,
		region TEXT,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	// corrections is append-only; only used_for_retraining is ever updated.
	`CREATE TABLE IF NOT EXISTS corrections (
		id TEXT PRIMARY KEY,
		input_text TEXT NOT NULL,
		model_output TEXT,
		human_correction TEXT NOT NULL,
		src_lang TEXT NOT NULL,
		tgt_lang TEXT NOT NULL,
		domain TEXT NOT NULL,
		audience TEXT NOT NULL,
		correction_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		editor TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		used_for_retraining INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS challenge (
		id TEXT PRIMARY KEY,
		src_en TEXT,
		src_ht TEXT,
		tgt_en TEXT,
		tgt_ht TEXT,
		category TEXT,
		domain TEXT NOT NULL DEFAULT 'general',
		difficulty TEXT,
		phenomenon TEXT,
		expected_behavior TEXT,
		notes TEXT,
		provenance TEXT,
		never_for_training INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS monolingual_ht (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		domain TEXT,
		register TEXT,
		region TEXT,
		provenance TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS monolingual_en (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		domain TEXT,
		register TEXT,
		region TEXT,
		provenance TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	// translation_memory caches inference results keyed by normalized source text.
	`CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		audience TEXT NOT NULL,
		final_text TEXT NOT NULL,
		confidence REAL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang, audience)
	)`,
}
