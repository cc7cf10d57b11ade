package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tracknit/review-api/internal/submissions"
	"github.com/tracknit/review-api/internal/users"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and parameterizes the storage backend.
type Config struct {
	// Driver is "sqlite" (default, DSN is a file path) or "postgres"
	// (DSN is a connection string).
	Driver string
	DSN    string
}

// Open establishes the database connection, migrates the schema and applies
// pending named migrations.
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite || cfg.Driver == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		// The DSN may carry credentials and is not logged.
		logger.Info("database initialized", zap.String("driver", cfg.Driver))
	}

	return db, nil
}

// Migrate brings the schema up to date and runs pending named migrations.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	models := []interface{}{
		&users.User{},
		&submissions.Submission{},
		&submissions.Comment{},
		&submissions.Like{},
		&submissions.MutedSubmission{},
		&submissions.SubmissionViewer{},
		&submissions.View{},
		&submissions.UserExercise{},
		&submissions.Notification{},
		&migrationRecord{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	return applyMigrations(db, logger)
}
