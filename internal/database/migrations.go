package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/database/migrations"
)

// gooseUpContext and gooseResetContext are seams for tests.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseResetContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.ResetContext(ctx, db, dir, opts...)
	}
)

func (db *DB) prepareGoose() error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{slog.Default()})
	if err := goose.SetDialect(string(db.Dialect)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending embedded migration.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.prepareGoose(); err != nil {
		return err
	}
	return gooseUpContext(ctx, db.DB, ".")
}

// Reset rolls every migration back, dropping the schema.
func (db *DB) Reset(ctx context.Context) error {
	if err := db.prepareGoose(); err != nil {
		return err
	}
	return gooseResetContext(ctx, db.DB, ".")
}

type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(fmt.Sprintf(format, v...), "component", "goose")
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(fmt.Sprintf(format, v...), "component", "goose")
}
