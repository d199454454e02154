package store

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return execAll(ctx, db, indexes)
	}, func(ctx context.Context, db *bun.DB) error {
		return execAll(ctx, db, []string{
			"DROP INDEX IF EXISTS idx_corpus_status",
			"DROP INDEX IF EXISTS idx_high_risk_status",
			"DROP INDEX IF EXISTS idx_profanity_block",
			"DROP INDEX IF EXISTS idx_corrections_unused",
			"DROP INDEX IF EXISTS idx_memory_lookup",
			"DROP INDEX IF EXISTS idx_glossary_domain",
		})
	})
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_corpus_status ON corpus(curation_status)",
	"CREATE INDEX IF NOT EXISTS idx_high_risk_status ON high_risk(curation_status)",
	"CREATE INDEX IF NOT EXISTS idx_profanity_block ON profanity(should_block)",
	"CREATE INDEX IF NOT EXISTS idx_corrections_unused ON corrections(used_for_retraining)",
	"CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang)",
	"CREATE INDEX IF NOT EXISTS idx_glossary_domain ON glossary(domain)",
}
