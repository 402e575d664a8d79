// Package db opens the database connections used by the store
package db

import (
	"bitwise74/blog-api/internal/model"
	"bitwise74/blog-api/pkg/util"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	// Driver is either "sqlite" or "postgres"
	Driver string
	// DSN is a file path for sqlite and a connection string for postgres
	DSN      string
	LogLevel string
}

func New(o Options) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch o.Driver {
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(SQLitePath(o.DSN)); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", o.DSN)
			}
		}

		dialector = sqlite.Open(SQLiteDSN(o.DSN))
	case "postgres":
		dialector = postgres.Open(o.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(o.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", o.Driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// SQLiteDSN makes write transactions start with BEGIN IMMEDIATE and wait
// up to 5s for a held lock instead of failing with "database is locked".
// Parameters already present in dsn are left alone.
func SQLiteDSN(dsn string) string {
	params := []string{}

	if !strings.Contains(dsn, "_busy_timeout=") {
		params = append(params, "_busy_timeout=5000")
	}

	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}

	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + strings.Join(params, "&")
}

// SQLitePath returns the file a sqlite DSN points at
func SQLitePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	return strings.TrimPrefix(path, "file:")
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(model.User{}, model.Post{})
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}

func gormLogLevel(l string) logger.LogLevel {
	switch l {
	case "debug":
		return logger.Info
	case "info", "warn":
		return logger.Warn
	default:
		return logger.Error
	}
}
