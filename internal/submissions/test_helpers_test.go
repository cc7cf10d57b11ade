package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticKeyProvider struct {
	keys  []string
	index int
}

func (p *staticKeyProvider) NewID() (string, error) {
	if p.index >= len(p.keys) {
		return "", errors.New("exhausted keys")
	}
	key := p.keys[p.index]
	p.index++
	return key, nil
}

type sequentialKeyProvider struct {
	next int
}

func (p *sequentialKeyProvider) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("key-%d", p.next), nil
}

func newTestDB(t *testing.T) *gorm.DB {
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

	models := []interface{}{
		&Submission{}, &Comment{}, &Like{}, &MutedSubmission{},
		&SubmissionViewer{}, &View{}, &UserExercise{}, &Notification{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type adjustableClock struct {
	current time.Time
}

func (c *adjustableClock) Now() time.Time {
	return c.current
}

func (c *adjustableClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *adjustableClock) {
	t.Helper()
	db := newTestDB(t)
	clock := &adjustableClock{current: time.Now().UTC()}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    clock.Now,
		Keys:     &sequentialKeyProvider{},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, db, clock
}

func mustProblem(t *testing.T, trackID, slug string) Problem {
	t.Helper()
	problem, err := NewProblem(trackID, slug)
	if err != nil {
		t.Fatalf("unexpected problem error: %v", err)
	}
	return problem
}

func mustStart(t *testing.T, service *Service, userID string, exerciseID uint64, problem Problem) *Submission {
	t.Helper()
	submission, err := service.Start(context.Background(), userID, exerciseID, problem, `{"files":{}}`)
	if err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	return submission
}

func setCreatedAt(t *testing.T, db *gorm.DB, submission *Submission, createdAt time.Time) {
	t.Helper()
	err := db.Model(&Submission{}).
		Where("id = ?", submission.ID).
		UpdateColumn("created_at", createdAt).Error
	if err != nil {
		t.Fatalf("failed to set created_at: %v", err)
	}
	submission.CreatedAt = createdAt
}

func reload(t *testing.T, db *gorm.DB, submission *Submission) *Submission {
	t.Helper()
	var stored Submission
	if err := db.Where("id = ?", submission.ID).Take(&stored).Error; err != nil {
		t.Fatalf("failed to reload submission: %v", err)
	}
	return &stored
}
