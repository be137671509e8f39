package pg

import (
	"fmt"

	_ "github.com/lib/pq"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/pressly/goose/v3"
)

func init() {
	goose.SetLogger(logger.GetLogger())
}

// Migrate applies every pending migration in dir, row level security policies included.
func Migrate(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigrationStatus logs applied and pending migrations.
func MigrationStatus(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return goose.Status(db, dir)
}
