package store

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var corpusTables = []string{
	"corpus",
	"high_risk",
	"expressions",
	"glossary",
	"profanity",
	"normalization_rules",
	"corrections",
	"challenge",
	"monolingual_ht",
	"monolingual_en",
	"translation_memory",
}

var migrations = migrate.NewMigrations()

func execAll(ctx context.Context, db *bun.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrate applies pending migrations.
func (s *Store) migrate(ctx context.Context) error {
	migrator := migrate.NewMigrator(s.bdb, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		s.log.Debug("schema up to date")
		return nil
	}
	s.log.Info("migrated schema", zap.String("group", group.String()))
	return nil
}
