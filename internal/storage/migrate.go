package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"quickbar/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

// NewMigrator reads the embedded schema and applies it through db.
func NewMigrator(db *sql.DB, dbName string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{DatabaseName: dbName})
	if err != nil {
		return nil, fmt.Errorf("open migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, dbName, driver)
}

// MigrateUp applies every pending migration.
func MigrateUp(m *migrate.Migrate, log logrus.FieldLogger) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("schema is up to date")
			return nil
		}
		return err
	}
	logVersion(m, log)
	return nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(m *migrate.Migrate, steps int, log logrus.FieldLogger) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	if err := m.Steps(-steps); err != nil {
		return err
	}
	logVersion(m, log)
	return nil
}

func logVersion(m *migrate.Migrate, log logrus.FieldLogger) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("schema is empty")
		return
	}
	if err != nil {
		log.WithError(err).Warn("failed to read schema version")
		return
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema migrated")
}
