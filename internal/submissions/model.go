package submissions

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State enumerates the submission lifecycle states.
type State string

const (
	// StatePending marks a freshly submitted iteration awaiting review.
	StatePending State = "pending"
	// StateNeedsInput marks a submission waiting on a reply from its author.
	StateNeedsInput State = "needs_input"
	// StateDone marks a submission whose review cycle completed.
	StateDone State = "done"
	// StateHibernating marks a submission parked without recent activity.
	StateHibernating State = "hibernating"
	// StateSuperseded marks a submission replaced by a newer iteration.
	StateSuperseded State = "superseded"
)

const (
	maxIdentifierLength = 190
	helloWorldSlug      = "hello-world"
)

var (
	// ErrInvalidTrackID indicates that a track identifier is empty or exceeds storage bounds.
	ErrInvalidTrackID = errors.New("submissions: invalid track id")
	// ErrInvalidSlug indicates that an exercise slug is empty or exceeds storage bounds.
	ErrInvalidSlug = errors.New("submissions: invalid slug")
)

// TrackID represents a validated language track identifier.
type TrackID string

// NewTrackID validates raw input and returns a TrackID.
func NewTrackID(rawInput string) (TrackID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTrackID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidTrackID, maxIdentifierLength)
	}
	return TrackID(trimmed), nil
}

// String returns the underlying track identifier.
func (id TrackID) String() string {
	return string(id)
}

// Slug represents a validated exercise identifier within a track.
type Slug string

// NewSlug validates raw input and returns a Slug.
func NewSlug(rawInput string) (Slug, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidSlug, maxIdentifierLength)
	}
	return Slug(trimmed), nil
}

// String returns the underlying slug.
func (s Slug) String() string {
	return string(s)
}

// Problem identifies an exercise inside a language track.
type Problem struct {
	TrackID TrackID
	Slug    Slug
}

// NewProblem validates both identifiers and returns a Problem.
func NewProblem(rawTrackID, rawSlug string) (Problem, error) {
	trackID, err := NewTrackID(rawTrackID)
	if err != nil {
		return Problem{}, err
	}
	slug, err := NewSlug(rawSlug)
	if err != nil {
		return Problem{}, err
	}
	return Problem{TrackID: trackID, Slug: slug}, nil
}

// Submission models one iteration a user submitted for an exercise.
type Submission struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Key            string     `gorm:"column:key;size:64;not null;uniqueIndex:idx_submissions_key"`
	UserID         string     `gorm:"column:user_id;size:190;not null;index:idx_submissions_related,priority:1;uniqueIndex:idx_submissions_iteration,priority:1"`
	UserExerciseID uint64     `gorm:"column:user_exercise_id;index"`
	Language       string     `gorm:"column:language;size:190;not null;index:idx_submissions_related,priority:2;uniqueIndex:idx_submissions_iteration,priority:2"`
	Slug           string     `gorm:"column:slug;size:190;not null;index:idx_submissions_related,priority:3;uniqueIndex:idx_submissions_iteration,priority:3"`
	Solution       string     `gorm:"column:solution;type:text;not null"`
	State          State      `gorm:"column:state;size:32;not null;default:'pending';index"`
	DoneAt         *time.Time `gorm:"column:done_at"`
	Version        int64      `gorm:"column:version;not null;default:1;uniqueIndex:idx_submissions_iteration,priority:4"`
	NitCount       int64      `gorm:"column:nit_count;not null;default:0"`
	IsLiked        bool       `gorm:"column:is_liked;not null;default:false"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Submission) TableName() string {
	return "submissions"
}

// TrackID exposes the language column under its domain name.
func (s *Submission) TrackID() TrackID {
	return TrackID(s.Language)
}

// Problem reconstructs the exercise identity this submission was made against.
func (s *Submission) Problem() Problem {
	return Problem{TrackID: TrackID(s.Language), Slug: Slug(s.Slug)}
}

// Name renders the slug as a display title, e.g. "two-fer" becomes "Two Fer".
func (s *Submission) Name() string {
	parts := strings.Split(s.Slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// ActivityDescription summarizes the submission for activity feeds.
func (s *Submission) ActivityDescription() string {
	return "Submitted an iteration"
}

// IsDone reports whether the review cycle completed.
func (s *Submission) IsDone() bool {
	return s.State == StateDone
}

// IsPending reports whether the submission awaits review.
func (s *Submission) IsPending() bool {
	return s.State == StatePending
}

// IsHibernating reports whether the submission is parked.
func (s *Submission) IsHibernating() bool {
	return s.State == StateHibernating
}

// IsSuperseded reports whether a newer iteration replaced this one.
func (s *Submission) IsSuperseded() bool {
	return s.State == StateSuperseded
}

// Liked reports the denormalized like flag.
func (s *Submission) Liked() bool {
	return s.IsLiked
}

// OlderThan reports whether the submission was created before now minus age,
// compared in UTC.
func (s *Submission) OlderThan(age time.Duration, now time.Time) bool {
	return s.CreatedAt.UTC().Before(now.UTC().Add(-age))
}

// DiscussionInvolvesUser reports whether the conversation grew beyond the
// nitpicks received, i.e. the author (or others) replied.
func (s *Submission) DiscussionInvolvesUser(commentCount int64) bool {
	return s.NitCount < commentCount
}

// Comment is review feedback attached to a submission, listed oldest first.
type Comment struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SubmissionID uint64    `gorm:"column:submission_id;not null;index"`
	UserID       string    `gorm:"column:user_id;size:190;not null;index"`
	Body         string    `gorm:"column:body;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Like records one user's like on a submission. At most one row per
// (submission, user) pair.
type Like struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SubmissionID uint64    `gorm:"column:submission_id;not null;uniqueIndex:idx_likes_submission_user,priority:1"`
	UserID       string    `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_likes_submission_user,priority:2"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName provides the explicit table binding for GORM.
func (Like) TableName() string {
	return "likes"
}

// MutedSubmission suppresses notifications about a submission for one user.
type MutedSubmission struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SubmissionID uint64    `gorm:"column:submission_id;not null;uniqueIndex:idx_mutes_submission_user,priority:1"`
	UserID       string    `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_mutes_submission_user,priority:2"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (MutedSubmission) TableName() string {
	return "muted_submissions"
}

// SubmissionViewer records that a user has seen a submission.
type SubmissionViewer struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SubmissionID uint64    `gorm:"column:submission_id;not null;uniqueIndex:idx_viewers_submission_user,priority:1"`
	UserID       string    `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_viewers_submission_user,priority:2"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (SubmissionViewer) TableName() string {
	return "submission_viewers"
}

// View tracks when a user last looked at an exercise. One row per
// (user, exercise) pair, refreshed by upsert.
type View struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       string    `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_views_user_exercise,priority:1"`
	ExerciseID   uint64    `gorm:"column:exercise_id;not null;uniqueIndex:idx_views_user_exercise,priority:2"`
	LastViewedAt time.Time `gorm:"column:last_viewed_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (View) TableName() string {
	return "views"
}

// UserExercise is the per-user per-problem tracking record. The nitpicker
// flag scopes which exercises feed a user's trending feed.
type UserExercise struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;size:190;not null;index:idx_user_exercises_identity,priority:1"`
	Language    string    `gorm:"column:language;size:190;not null;index:idx_user_exercises_identity,priority:2"`
	Slug        string    `gorm:"column:slug;size:190;not null;index:idx_user_exercises_identity,priority:3"`
	IsNitpicker bool      `gorm:"column:is_nitpicker;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (UserExercise) TableName() string {
	return "user_exercises"
}

// ItemTypeSubmission tags notification rows owned by a submission.
const ItemTypeSubmission = "submission"

// Notification is a cross-cutting notification record. Rows tagged to a
// submission are deleted along with it even though delivery is owned
// elsewhere.
type Notification struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;size:190;not null;index"`
	ItemType  string    `gorm:"column:item_type;size:32;not null;index:idx_notifications_item,priority:1"`
	ItemID    uint64    `gorm:"column:item_id;not null;index:idx_notifications_item,priority:2"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Read      bool      `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Notification) TableName() string {
	return "notifications"
}
