package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tracknit/review-api/internal/submissions"
)

const migrationBackfillIsLiked = "2026-08-20_backfill_is_liked"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillIsLiked, apply: backfillIsLiked},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillIsLiked repairs the denormalized liked flag from the likes table.
// Rows written before the flag was recomputed transactionally can disagree
// with their like set.
func backfillIsLiked(db *gorm.DB) error {
	likedIDs := func() *gorm.DB {
		return db.Session(&gorm.Session{NewDB: true}).
			Table("likes").
			Select("likes.submission_id")
	}

	err := db.Model(&submissions.Submission{}).
		Where("is_liked = ? AND id IN (?)", false, likedIDs()).
		Update("is_liked", true).Error
	if err != nil {
		return err
	}
	return db.Model(&submissions.Submission{}).
		Where("is_liked = ? AND id NOT IN (?)", true, likedIDs()).
		Update("is_liked", false).Error
}
