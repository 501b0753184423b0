package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migrate applies every pending "up" migration found under path (a directory).
func Migrate(databaseURL, path string, logger *slog.Logger) error {
	// golang-migrate needs a database/sql handle; pgx/v5/stdlib keeps the same driver as the pool.
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	upErr := m.Up()
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return fmt.Errorf("close migrations: %v", errors.Join(sourceErr, dbErr))
	}
	switch {
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info("No new migrations to apply.")
	case upErr != nil:
		return fmt.Errorf("apply migrations: %w", upErr)
	default:
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
