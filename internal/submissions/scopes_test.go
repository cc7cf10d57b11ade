package submissions

import (
	"context"
	"testing"
	"time"
)

func collectIDs(t *testing.T, result []Submission) map[uint64]bool {
	t.Helper()
	ids := make(map[uint64]bool, len(result))
	for _, item := range result {
		ids[item.ID] = true
	}
	return ids
}

func TestPendingIncludesNeedsInput(t *testing.T) {
	service, db, _ := newTestService(t)
	problem := mustProblem(t, "go", "leap")

	pending := mustStart(t, service, "user-1", 1, problem)
	needsInput := mustStart(t, service, "user-2", 2, problem)
	done := mustStart(t, service, "user-3", 3, problem)
	if err := db.Model(&Submission{}).Where("id = ?", needsInput.ID).Update("state", StateNeedsInput).Error; err != nil {
		t.Fatalf("failed to set state: %v", err)
	}
	if err := db.Model(&Submission{}).Where("id = ?", done.ID).Update("state", StateDone).Error; err != nil {
		t.Fatalf("failed to set state: %v", err)
	}

	var result []Submission
	if err := db.Scopes(Pending).Find(&result).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids := collectIDs(t, result)
	if !ids[pending.ID] || !ids[needsInput.ID] || ids[done.ID] {
		t.Fatalf("unexpected pending set: %#v", ids)
	}
}

func TestAgingRequiresNitsAndAge(t *testing.T) {
	service, db, clock := newTestService(t)
	problem := mustProblem(t, "go", "leap")
	now := clock.Now()
	old := now.Add(-4 * 7 * 24 * time.Hour)

	eligible := mustStart(t, service, "user-1", 1, problem)
	setCreatedAt(t, db, eligible, old)
	if err := db.Model(&Submission{}).Where("id = ?", eligible.ID).Update("nit_count", 2).Error; err != nil {
		t.Fatalf("failed to set nit count: %v", err)
	}

	noNits := mustStart(t, service, "user-2", 2, problem)
	setCreatedAt(t, db, noNits, old)

	tooYoung := mustStart(t, service, "user-3", 3, problem)
	if err := db.Model(&Submission{}).Where("id = ?", tooYoung.ID).Update("nit_count", 5).Error; err != nil {
		t.Fatalf("failed to set nit count: %v", err)
	}

	oldButDone := mustStart(t, service, "user-4", 4, problem)
	setCreatedAt(t, db, oldButDone, old)
	if err := db.Model(&Submission{}).Where("id = ?", oldButDone.ID).
		Updates(map[string]interface{}{"nit_count": 1, "state": StateDone}).Error; err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	result, err := service.AgingSubmissions(context.Background())
	if err != nil {
		t.Fatalf("unexpected aging error: %v", err)
	}
	ids := collectIDs(t, result)
	if !ids[eligible.ID] {
		t.Fatalf("expected the old nitpicked pending submission")
	}
	if ids[noNits.ID] {
		t.Fatalf("a submission without nits must never age")
	}
	if ids[tooYoung.ID] || ids[oldButDone.ID] {
		t.Fatalf("unexpected aging set: %#v", ids)
	}
}

func TestOrderingScopes(t *testing.T) {
	service, db, clock := newTestService(t)
	problem := mustProblem(t, "go", "leap")
	base := clock.Now()

	first := mustStart(t, service, "user-1", 1, problem)
	setCreatedAt(t, db, first, base.Add(-3*time.Hour))
	second := mustStart(t, service, "user-2", 2, problem)
	setCreatedAt(t, db, second, base.Add(-2*time.Hour))
	third := mustStart(t, service, "user-3", 3, problem)
	setCreatedAt(t, db, third, base.Add(-1*time.Hour))

	var chronological []Submission
	if err := db.Scopes(Chronologically).Find(&chronological).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if chronological[0].ID != first.ID || chronological[2].ID != third.ID {
		t.Fatalf("unexpected chronological order")
	}

	var reversed []Submission
	if err := db.Scopes(Reversed).Find(&reversed).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if reversed[0].ID != third.ID || reversed[2].ID != first.ID {
		t.Fatalf("unexpected reversed order")
	}
}

func TestTimeWindowScopes(t *testing.T) {
	service, db, clock := newTestService(t)
	problem := mustProblem(t, "go", "leap")
	now := clock.Now()

	older := mustStart(t, service, "user-1", 1, problem)
	setCreatedAt(t, db, older, now.Add(-10*24*time.Hour))
	middle := mustStart(t, service, "user-2", 2, problem)
	setCreatedAt(t, db, middle, now.Add(-5*24*time.Hour))
	fresh := mustStart(t, service, "user-3", 3, problem)
	setCreatedAt(t, db, fresh, now.Add(-time.Hour))

	var recent []Submission
	if err := db.Scopes(Recent(now)).Find(&recent).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids := collectIDs(t, recent)
	if ids[older.ID] || !ids[middle.ID] || !ids[fresh.ID] {
		t.Fatalf("unexpected recent set: %#v", ids)
	}

	var between []Submission
	err := db.Scopes(Between(now.Add(-11*24*time.Hour), now.Add(-4*24*time.Hour))).Find(&between).Error
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, between)
	if !ids[older.ID] || !ids[middle.ID] || ids[fresh.ID] {
		t.Fatalf("unexpected between set: %#v", ids)
	}

	var olderThan []Submission
	if err := db.Scopes(OlderThan(now.Add(-6*24*time.Hour))).Find(&olderThan).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, olderThan)
	if !ids[older.ID] || ids[middle.ID] || ids[fresh.ID] {
		t.Fatalf("unexpected older-than set: %#v", ids)
	}

	var since []Submission
	if err := db.Scopes(Since(now.Add(-6*24*time.Hour))).Find(&since).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, since)
	if ids[older.ID] || !ids[middle.ID] || !ids[fresh.ID] {
		t.Fatalf("unexpected since set: %#v", ids)
	}
}

func TestExclusionScopes(t *testing.T) {
	service, db, _ := newTestService(t)
	ctx := context.Background()

	hello := mustStart(t, service, "user-1", 1, mustProblem(t, "go", "hello-world"))
	leap := mustStart(t, service, "user-1", 2, mustProblem(t, "go", "leap"))
	otherUser := mustStart(t, service, "user-2", 3, mustProblem(t, "go", "leap"))

	if _, err := service.AddComment(ctx, leap, "commenter", "nit"); err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	if err := service.Like(ctx, otherUser, "liker"); err != nil {
		t.Fatalf("unexpected like error: %v", err)
	}
	if err := service.Mute(ctx, hello, "muter"); err != nil {
		t.Fatalf("unexpected mute error: %v", err)
	}

	var result []Submission
	if err := db.Scopes(ExcludingHello).Find(&result).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids := collectIDs(t, result)
	if ids[hello.ID] || !ids[leap.ID] {
		t.Fatalf("unexpected excluding-hello set: %#v", ids)
	}

	if err := db.Scopes(NotSubmittedBy("user-1")).Find(&result).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, result)
	if ids[hello.ID] || ids[leap.ID] || !ids[otherUser.ID] {
		t.Fatalf("unexpected not-submitted-by set: %#v", ids)
	}

	if err := db.Scopes(NotCommentedOnBy("commenter")).Find(&result).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, result)
	if ids[leap.ID] || !ids[hello.ID] || !ids[otherUser.ID] {
		t.Fatalf("unexpected not-commented-on set: %#v", ids)
	}

	if err := db.Scopes(NotLikedBy("liker")).Find(&result).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, result)
	if ids[otherUser.ID] || !ids[leap.ID] {
		t.Fatalf("unexpected not-liked-by set: %#v", ids)
	}

	if err := db.Scopes(UnmutedFor("muter")).Find(&result).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	ids = collectIDs(t, result)
	if ids[hello.ID] || !ids[leap.ID] || !ids[otherUser.ID] {
		t.Fatalf("unexpected unmuted-for set: %#v", ids)
	}
}

func TestCompletedForAndRandomPick(t *testing.T) {
	service, db, _ := newTestService(t)
	problem := mustProblem(t, "go", "leap")
	ctx := context.Background()

	finished := mustStart(t, service, "user-1", 1, problem)
	if err := db.Model(&Submission{}).Where("id = ?", finished.ID).Update("state", StateDone).Error; err != nil {
		t.Fatalf("failed to set state: %v", err)
	}
	mustStart(t, service, "user-2", 2, problem)
	otherSlug := mustStart(t, service, "user-3", 3, mustProblem(t, "go", "two-fer"))
	if err := db.Model(&Submission{}).Where("id = ?", otherSlug.ID).Update("state", StateDone).Error; err != nil {
		t.Fatalf("failed to set state: %v", err)
	}

	var completed []Submission
	if err := db.Scopes(CompletedFor(problem)).Find(&completed).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != finished.ID {
		t.Fatalf("unexpected completed set: %#v", completed)
	}

	pick, err := service.RandomCompleted(ctx, problem)
	if err != nil {
		t.Fatalf("unexpected random pick error: %v", err)
	}
	if pick == nil || pick.ID != finished.ID {
		t.Fatalf("expected the sole finished submission, got %#v", pick)
	}

	missing, err := service.RandomCompleted(ctx, mustProblem(t, "go", "bob"))
	if err != nil {
		t.Fatalf("unexpected random pick error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil when nothing is completed, got %#v", missing)
	}
}

func TestBrowseComposesFilters(t *testing.T) {
	service, db, _ := newTestService(t)
	ctx := context.Background()

	goSub := mustStart(t, service, "user-1", 1, mustProblem(t, "go", "leap"))
	mustStart(t, service, "user-1", 2, mustProblem(t, "ruby", "leap"))
	mustStart(t, service, "user-2", 3, mustProblem(t, "go", "hello-world"))
	goDone := mustStart(t, service, "user-2", 4, mustProblem(t, "go", "bob"))
	if err := db.Model(&Submission{}).Where("id = ?", goDone.ID).Update("state", StateDone).Error; err != nil {
		t.Fatalf("failed to set state: %v", err)
	}

	result, err := service.Browse(ctx, BrowseOptions{
		TrackID:      "go",
		Pending:      true,
		ExcludeHello: true,
		Newest:       true,
	})
	if err != nil {
		t.Fatalf("unexpected browse error: %v", err)
	}
	ids := collectIDs(t, result)
	if len(result) != 1 || !ids[goSub.ID] {
		t.Fatalf("unexpected browse set: %#v", ids)
	}
}

func TestTrendingRanksByWindowedActivity(t *testing.T) {
	service, db, clock := newTestService(t)
	problem := mustProblem(t, "go", "leap")
	ctx := context.Background()
	now := clock.Now()

	// The nitpicker follows go/leap but not ruby/leap.
	if err := db.Create(&UserExercise{UserID: "nitpicker", Language: "go", Slug: "leap", IsNitpicker: true}).Error; err != nil {
		t.Fatalf("failed to create user exercise: %v", err)
	}
	if err := db.Create(&UserExercise{UserID: "nitpicker", Language: "ruby", Slug: "leap", IsNitpicker: false}).Error; err != nil {
		t.Fatalf("failed to create user exercise: %v", err)
	}

	hot := mustStart(t, service, "user-1", 1, problem)
	warm := mustStart(t, service, "user-2", 2, problem)
	quiet := mustStart(t, service, "user-3", 3, problem)
	unfollowed := mustStart(t, service, "user-4", 4, mustProblem(t, "ruby", "leap"))

	for _, fan := range []string{"fan-1", "fan-2"} {
		if err := service.Like(ctx, hot, fan); err != nil {
			t.Fatalf("unexpected like error: %v", err)
		}
	}
	if _, err := service.AddComment(ctx, hot, "fan-1", "nice"); err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	if err := service.Like(ctx, warm, "fan-1"); err != nil {
		t.Fatalf("unexpected like error: %v", err)
	}
	if err := service.Like(ctx, unfollowed, "fan-1"); err != nil {
		t.Fatalf("unexpected like error: %v", err)
	}

	// Activity outside the window must not count.
	stale := Like{SubmissionID: quiet.ID, UserID: "fan-3"}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to create like: %v", err)
	}
	err := db.Model(&Like{}).Where("id = ?", stale.ID).
		UpdateColumn("created_at", now.Add(-72*time.Hour)).Error
	if err != nil {
		t.Fatalf("failed to age like: %v", err)
	}

	clock.Advance(time.Minute)
	result, err := service.TrendingFor(ctx, "nitpicker", 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected trending error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected two trending rows, got %d", len(result))
	}
	if result[0].ID != hot.ID || result[0].TotalActivity != 3 {
		t.Fatalf("expected the hot submission first, got %#v", result[0])
	}
	if result[1].ID != warm.ID || result[1].TotalActivity != 1 {
		t.Fatalf("expected the warm submission second, got %#v", result[1])
	}
	for _, row := range result {
		if row.ID == quiet.ID || row.ID == unfollowed.ID {
			t.Fatalf("unexpected row in trending: %d", row.ID)
		}
	}
}
