package database

import (
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tracknit/review-api/internal/submissions"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("first migrate failed: %v", err)
	}
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var records []migrationRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("failed to load migration ledger: %v", err)
	}
	if len(records) != 1 || records[0].Name != migrationBackfillIsLiked {
		t.Fatalf("unexpected migration ledger: %#v", records)
	}
}

func TestBackfillIsLikedRepairsDrift(t *testing.T) {
	db := openTestDB(t)
	if err := db.AutoMigrate(&submissions.Submission{}, &submissions.Like{}, &migrationRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	stale := submissions.Submission{Key: "key-1", UserID: "u1", Language: "go", Slug: "leap", State: submissions.StatePending, Version: 1, IsLiked: false}
	drifted := submissions.Submission{Key: "key-2", UserID: "u2", Language: "go", Slug: "leap", State: submissions.StatePending, Version: 1, IsLiked: true}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to seed submission: %v", err)
	}
	if err := db.Create(&drifted).Error; err != nil {
		t.Fatalf("failed to seed submission: %v", err)
	}
	if err := db.Create(&submissions.Like{SubmissionID: stale.ID, UserID: "fan"}).Error; err != nil {
		t.Fatalf("failed to seed like: %v", err)
	}

	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	var repaired submissions.Submission
	if err := db.Where("id = ?", stale.ID).Take(&repaired).Error; err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if !repaired.IsLiked {
		t.Fatalf("expected liked flag to be set from the likes table")
	}
	repaired = submissions.Submission{}
	if err := db.Where("id = ?", drifted.ID).Take(&repaired).Error; err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if repaired.IsLiked {
		t.Fatalf("expected orphaned liked flag to clear")
	}
}
