package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase    = errors.New("database handle is required")
	errMissingKeyProvider = errors.New("key provider is required")
	errMissingSubmission  = errors.New("submission is required")
	noOpLogger            = zap.NewNop()

	// ErrMissingUser indicates a submission was started without an owner.
	ErrMissingUser = errors.New("submissions: user is required")
	// ErrMissingSolution indicates a submission was started without a payload.
	ErrMissingSolution = errors.New("submissions: solution is required")
)

// ServiceError wraps a failure with a stable machine-readable code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "submissions.service.new"
	opStart        = "submissions.start"
	opFind         = "submissions.find"
	opSupersede    = "submissions.supersede"
	opLike         = "submissions.like"
	opUnlike       = "submissions.unlike"
	opMute         = "submissions.mute"
	opUnmute       = "submissions.unmute"
	opUnmuteAll    = "submissions.unmute_all"
	opRecordView   = "submissions.record_view"
	opMarkViewed   = "submissions.mark_viewed"
	opDelete       = "submissions.delete"
	opAddComment   = "submissions.add_comment"
	opComments     = "submissions.comments"
	opViewCount    = "submissions.view_count"
	opMutedBy      = "submissions.muted_by"
	opPrior        = "submissions.prior"
	opRelated      = "submissions.related"
	opParticipants = "submissions.participant_submissions"
	opBrowse       = "submissions.browse"
	opAging        = "submissions.aging"
	opCompleted    = "submissions.random_completed"
	opTrending     = "submissions.trending"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig wires the dependencies of the submission service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Keys     IDProvider
	Logger   *zap.Logger
}

// Service owns the submission lifecycle and its engagement queries.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	keys   IDProvider
	logger *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Keys == nil {
		return nil, newServiceError(opServiceNew, "missing_key_provider", errMissingKeyProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		clock:  clock,
		keys:   cfg.Keys,
		logger: logger,
	}, nil
}

// Start creates a new submission for the exercise: state pending, a fresh
// key, and a version one past the latest iteration by the same user on the
// same exercise. The version count and the insert share one transaction,
// and a unique index on (user, language, slug, version) rejects the loser
// if two starts race to the same version.
func (s *Service) Start(ctx context.Context, userID string, userExerciseID uint64, problem Problem, solution string) (*Submission, error) {
	if userID == "" {
		s.logError(opStart, "missing_user", ErrMissingUser)
		return nil, newServiceError(opStart, "missing_user", ErrMissingUser)
	}
	if solution == "" {
		s.logError(opStart, "missing_solution", ErrMissingSolution)
		return nil, newServiceError(opStart, "missing_solution", ErrMissingSolution)
	}

	key, err := s.keys.NewID()
	if err != nil {
		s.logError(opStart, "key_generation_failed", err)
		return nil, newServiceError(opStart, "key_generation_failed", err)
	}

	submission := &Submission{
		Key:            key,
		UserID:         userID,
		UserExerciseID: userExerciseID,
		Language:       problem.TrackID.String(),
		Slug:           problem.Slug.String(),
		Solution:       solution,
		State:          StatePending,
		NitCount:       0,
		IsLiked:        false,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var related int64
		err := tx.Model(&Submission{}).
			Where("user_id = ? AND language = ? AND slug = ?", userID, submission.Language, submission.Slug).
			Count(&related).Error
		if err != nil {
			return newServiceError(opStart, "version_count_failed", err)
		}
		submission.Version = related + 1

		if err := tx.Create(submission).Error; err != nil {
			return newServiceError(opStart, "insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opStart, "transaction_failed", txErr,
			zap.String("user_id", userID),
			zap.String("track_id", submission.Language),
			zap.String("slug", submission.Slug))
		return nil, txErr
	}

	return submission, nil
}

// FindByKey loads a submission by its externally visible key.
func (s *Service) FindByKey(ctx context.Context, key string) (*Submission, error) {
	var submission Submission
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(opFind, "not_found", err)
	}
	if err != nil {
		s.logError(opFind, "query_failed", err, zap.String("key", key))
		return nil, newServiceError(opFind, "query_failed", err)
	}
	return &submission, nil
}

// Supersede forces the submission into the superseded state and clears its
// completion timestamp. Any prior state is permitted; repeating the call is
// harmless.
func (s *Service) Supersede(ctx context.Context, submission *Submission) error {
	if submission == nil {
		return newServiceError(opSupersede, "missing_submission", errMissingSubmission)
	}

	err := s.db.WithContext(ctx).Model(&Submission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]interface{}{"state": StateSuperseded, "done_at": nil}).Error
	if err != nil {
		s.logError(opSupersede, "update_failed", err, zap.Uint64("submission_id", submission.ID))
		return newServiceError(opSupersede, "update_failed", err)
	}

	submission.State = StateSuperseded
	submission.DoneAt = nil
	return nil
}

// Like records the user's like and mutes further notifications about the
// submission for them. Repeat likes leave a single like row in place.
func (s *Service) Like(ctx context.Context, submission *Submission, userID string) error {
	if submission == nil {
		return newServiceError(opLike, "missing_submission", errMissingSubmission)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := Like{SubmissionID: submission.ID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&like).Error; err != nil {
			return newServiceError(opLike, "like_insert_failed", err)
		}

		mute := MutedSubmission{SubmissionID: submission.ID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&mute).Error; err != nil {
			return newServiceError(opLike, "mute_insert_failed", err)
		}

		if err := tx.Model(&Submission{}).
			Where("id = ?", submission.ID).
			Update("is_liked", true).Error; err != nil {
			return newServiceError(opLike, "flag_update_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opLike, "transaction_failed", txErr,
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID))
		return txErr
	}

	submission.IsLiked = true
	return nil
}

// Unlike removes the user's like, recomputes the denormalized liked flag
// from the remaining likes, and lifts the user's mute.
func (s *Service) Unlike(ctx context.Context, submission *Submission, userID string) error {
	if submission == nil {
		return newServiceError(opUnlike, "missing_submission", errMissingSubmission)
	}

	var stillLiked bool
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ? AND user_id = ?", submission.ID, userID).
			Delete(&Like{}).Error; err != nil {
			return newServiceError(opUnlike, "like_delete_failed", err)
		}

		var remaining int64
		if err := tx.Model(&Like{}).
			Where("submission_id = ?", submission.ID).
			Count(&remaining).Error; err != nil {
			return newServiceError(opUnlike, "like_count_failed", err)
		}
		stillLiked = remaining > 0

		if err := tx.Model(&Submission{}).
			Where("id = ?", submission.ID).
			Update("is_liked", stillLiked).Error; err != nil {
			return newServiceError(opUnlike, "flag_update_failed", err)
		}

		if err := tx.Where("submission_id = ? AND user_id = ?", submission.ID, userID).
			Delete(&MutedSubmission{}).Error; err != nil {
			return newServiceError(opUnlike, "unmute_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opUnlike, "transaction_failed", txErr,
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID))
		return txErr
	}

	submission.IsLiked = stillLiked
	return nil
}

// Mute suppresses notifications about the submission for the user. A user
// holds at most one mute row per submission.
func (s *Service) Mute(ctx context.Context, submission *Submission, userID string) error {
	if submission == nil {
		return newServiceError(opMute, "missing_submission", errMissingSubmission)
	}

	mute := MutedSubmission{SubmissionID: submission.ID, UserID: userID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&mute).Error
	if err != nil {
		s.logError(opMute, "insert_failed", err,
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID))
		return newServiceError(opMute, "insert_failed", err)
	}
	return nil
}

// Unmute lifts the user's notification mute for the submission.
func (s *Service) Unmute(ctx context.Context, submission *Submission, userID string) error {
	if submission == nil {
		return newServiceError(opUnmute, "missing_submission", errMissingSubmission)
	}

	err := s.db.WithContext(ctx).
		Where("submission_id = ? AND user_id = ?", submission.ID, userID).
		Delete(&MutedSubmission{}).Error
	if err != nil {
		s.logError(opUnmute, "delete_failed", err,
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID))
		return newServiceError(opUnmute, "delete_failed", err)
	}
	return nil
}

// UnmuteAll clears every mute held against the submission.
func (s *Service) UnmuteAll(ctx context.Context, submission *Submission) error {
	if submission == nil {
		return newServiceError(opUnmuteAll, "missing_submission", errMissingSubmission)
	}

	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submission.ID).
		Delete(&MutedSubmission{}).Error
	if err != nil {
		s.logError(opUnmuteAll, "delete_failed", err, zap.Uint64("submission_id", submission.ID))
		return newServiceError(opUnmuteAll, "delete_failed", err)
	}
	return nil
}

// IsMutedBy reports whether the user muted the submission.
func (s *Service) IsMutedBy(ctx context.Context, submission *Submission, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&MutedSubmission{}).
		Where("submission_id = ? AND user_id = ?", submission.ID, userID).
		Count(&count).Error
	if err != nil {
		s.logError(opMutedBy, "query_failed", err, zap.Uint64("submission_id", submission.ID))
		return false, newServiceError(opMutedBy, "query_failed", err)
	}
	return count > 0, nil
}

// RecordView upserts the per-exercise view row for the user: the first view
// inserts, every later one refreshes last_viewed_at. The conflict handling
// lives in the statement itself, so two concurrent first views cannot
// produce duplicate rows.
func (s *Service) RecordView(ctx context.Context, submission *Submission, userID string) error {
	if submission == nil {
		return newServiceError(opRecordView, "missing_submission", errMissingSubmission)
	}

	now := s.clock().UTC()
	view := View{UserID: userID, ExerciseID: submission.UserExerciseID, LastViewedAt: now}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "exercise_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_viewed_at": now}),
	}).Create(&view).Error
	if err != nil {
		s.logError(opRecordView, "upsert_failed", err,
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID))
		return newServiceError(opRecordView, "upsert_failed", err)
	}
	return nil
}

// MarkViewed adds the user to the submission's viewer set. Viewing is best
// effort: failures are logged and never surfaced, so a broken viewer insert
// cannot fail the surrounding request.
func (s *Service) MarkViewed(ctx context.Context, submission *Submission, userID string) {
	if submission == nil {
		return
	}

	viewer := SubmissionViewer{SubmissionID: submission.ID, UserID: userID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&viewer).Error
	if err != nil {
		s.loggerOrDefault().Warn("viewer insert failed",
			zap.String("operation", opMarkViewed),
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// ViewCount returns the size of the submission's viewer set.
func (s *Service) ViewCount(ctx context.Context, submission *Submission) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&SubmissionViewer{}).
		Where("submission_id = ?", submission.ID).
		Count(&count).Error
	if err != nil {
		s.logError(opViewCount, "query_failed", err, zap.Uint64("submission_id", submission.ID))
		return 0, newServiceError(opViewCount, "query_failed", err)
	}
	return count, nil
}

// AddComment attaches review feedback to the submission. Feedback from
// anyone but the author counts as a nitpick.
func (s *Service) AddComment(ctx context.Context, submission *Submission, userID, body string) (*Comment, error) {
	if submission == nil {
		return nil, newServiceError(opAddComment, "missing_submission", errMissingSubmission)
	}
	if userID == "" {
		return nil, newServiceError(opAddComment, "missing_user", ErrMissingUser)
	}

	comment := &Comment{SubmissionID: submission.ID, UserID: userID, Body: body}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return newServiceError(opAddComment, "insert_failed", err)
		}
		if userID != submission.UserID {
			if err := tx.Model(&Submission{}).
				Where("id = ?", submission.ID).
				UpdateColumn("nit_count", gorm.Expr("nit_count + 1")).Error; err != nil {
				return newServiceError(opAddComment, "nit_count_update_failed", err)
			}
		}
		return nil
	})
	if txErr != nil {
		s.logError(opAddComment, "transaction_failed", txErr,
			zap.Uint64("submission_id", submission.ID),
			zap.String("user_id", userID))
		return nil, txErr
	}

	if userID != submission.UserID {
		submission.NitCount++
	}
	return comment, nil
}

// Comments lists the submission's feedback oldest first.
func (s *Service) Comments(ctx context.Context, submission *Submission) ([]Comment, error) {
	var comments []Comment
	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submission.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		s.logError(opComments, "query_failed", err, zap.Uint64("submission_id", submission.ID))
		return nil, newServiceError(opComments, "query_failed", err)
	}
	return comments, nil
}

// CommentCount returns the total number of comments on the submission.
func (s *Service) CommentCount(ctx context.Context, submission *Submission) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Comment{}).
		Where("submission_id = ?", submission.ID).
		Count(&count).Error
	if err != nil {
		s.logError(opComments, "count_failed", err, zap.Uint64("submission_id", submission.ID))
		return 0, newServiceError(opComments, "count_failed", err)
	}
	return count, nil
}

// Delete removes the submission and everything it owns (comments, likes,
// mutes, viewer rows) plus notifications tagged to it, in one transaction.
func (s *Service) Delete(ctx context.Context, submission *Submission) error {
	if submission == nil {
		return newServiceError(opDelete, "missing_submission", errMissingSubmission)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{&Comment{}, &Like{}, &MutedSubmission{}, &SubmissionViewer{}}
		for _, model := range owned {
			if err := tx.Where("submission_id = ?", submission.ID).Delete(model).Error; err != nil {
				return newServiceError(opDelete, "cascade_failed", err)
			}
		}
		if err := tx.Where("item_type = ? AND item_id = ?", ItemTypeSubmission, submission.ID).
			Delete(&Notification{}).Error; err != nil {
			return newServiceError(opDelete, "notification_cascade_failed", err)
		}
		if err := tx.Where("id = ?", submission.ID).Delete(&Submission{}).Error; err != nil {
			return newServiceError(opDelete, "delete_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opDelete, "transaction_failed", txErr, zap.Uint64("submission_id", submission.ID))
		return txErr
	}
	return nil
}

// Prior returns the iteration immediately preceding this one, or nil when
// this is the first.
func (s *Service) Prior(ctx context.Context, submission *Submission) (*Submission, error) {
	var prior Submission
	err := s.db.WithContext(ctx).
		Scopes(Related(submission)).
		Where("submissions.version = ?", submission.Version-1).
		Take(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opPrior, "query_failed", err, zap.Uint64("submission_id", submission.ID))
		return nil, newServiceError(opPrior, "query_failed", err)
	}
	return &prior, nil
}

// RelatedTo lists every iteration of the submission's exercise by its
// author, oldest first.
func (s *Service) RelatedTo(ctx context.Context, submission *Submission) ([]Submission, error) {
	var related []Submission
	err := s.db.WithContext(ctx).Scopes(Related(submission)).Find(&related).Error
	if err != nil {
		s.logError(opRelated, "query_failed", err, zap.Uint64("submission_id", submission.ID))
		return nil, newServiceError(opRelated, "query_failed", err)
	}
	return related, nil
}

// ParticipantSubmissions lists the non-superseded submissions for the same
// exercise authored by anyone in the conversation: the commenters plus the
// current user. Newest first.
func (s *Service) ParticipantSubmissions(ctx context.Context, submission *Submission, currentUserID string) ([]Submission, error) {
	var participantIDs []string
	err := s.db.WithContext(ctx).Model(&Comment{}).
		Distinct("user_id").
		Where("submission_id = ?", submission.ID).
		Pluck("user_id", &participantIDs).Error
	if err != nil {
		s.logError(opParticipants, "commenter_query_failed", err, zap.Uint64("submission_id", submission.ID))
		return nil, newServiceError(opParticipants, "commenter_query_failed", err)
	}
	if currentUserID != "" {
		participantIDs = append(participantIDs, currentUserID)
	}
	if len(participantIDs) == 0 {
		return nil, nil
	}

	var result []Submission
	err = s.db.WithContext(ctx).
		Scopes(Reversed).
		Where("submissions.user_id IN ?", participantIDs).
		Where("submissions.language = ? AND submissions.slug = ?", submission.Language, submission.Slug).
		Where("submissions.state <> ?", StateSuperseded).
		Find(&result).Error
	if err != nil {
		s.logError(opParticipants, "query_failed", err, zap.Uint64("submission_id", submission.ID))
		return nil, newServiceError(opParticipants, "query_failed", err)
	}
	return result, nil
}

// BrowseOptions selects and orders submissions for listing endpoints. Zero
// values leave the corresponding filter off.
type BrowseOptions struct {
	TrackID          string
	Pending          bool
	Recent           bool
	ExcludeHello     bool
	NotSubmittedBy   string
	NotCommentedOnBy string
	NotLikedBy       string
	UnmutedFor       string
	Newest           bool
}

// Browse composes the requested filters into one query and executes it.
func (s *Service) Browse(ctx context.Context, opts BrowseOptions) ([]Submission, error) {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, 9)
	if opts.TrackID != "" {
		scopes = append(scopes, ForTrack(TrackID(opts.TrackID)))
	}
	if opts.Pending {
		scopes = append(scopes, Pending)
	}
	if opts.Recent {
		scopes = append(scopes, Recent(s.clock()))
	}
	if opts.ExcludeHello {
		scopes = append(scopes, ExcludingHello)
	}
	if opts.NotSubmittedBy != "" {
		scopes = append(scopes, NotSubmittedBy(opts.NotSubmittedBy))
	}
	if opts.NotCommentedOnBy != "" {
		scopes = append(scopes, NotCommentedOnBy(opts.NotCommentedOnBy))
	}
	if opts.NotLikedBy != "" {
		scopes = append(scopes, NotLikedBy(opts.NotLikedBy))
	}
	if opts.UnmutedFor != "" {
		scopes = append(scopes, UnmutedFor(opts.UnmutedFor))
	}
	if opts.Newest {
		scopes = append(scopes, Reversed)
	} else {
		scopes = append(scopes, Chronologically)
	}

	var result []Submission
	err := s.db.WithContext(ctx).Scopes(scopes...).Find(&result).Error
	if err != nil {
		s.logError(opBrowse, "query_failed", err)
		return nil, newServiceError(opBrowse, "query_failed", err)
	}
	return result, nil
}

// AgingSubmissions lists pending submissions with nitpicks that have gone
// quiet for more than three weeks.
func (s *Service) AgingSubmissions(ctx context.Context) ([]Submission, error) {
	var result []Submission
	err := s.db.WithContext(ctx).Scopes(Aging(s.clock())).Find(&result).Error
	if err != nil {
		s.logError(opAging, "query_failed", err)
		return nil, newServiceError(opAging, "query_failed", err)
	}
	return result, nil
}

// RandomCompleted picks one finished submission for the exercise at random,
// or nil when none exist.
func (s *Service) RandomCompleted(ctx context.Context, problem Problem) (*Submission, error) {
	var result []Submission
	err := s.db.WithContext(ctx).Scopes(RandomCompletedFor(problem)).Find(&result).Error
	if err != nil {
		s.logError(opCompleted, "query_failed", err,
			zap.String("track_id", problem.TrackID.String()),
			zap.String("slug", problem.Slug.String()))
		return nil, newServiceError(opCompleted, "query_failed", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// TrendingFor ranks the submissions the user nitpicks by recent like and
// comment activity within the timeframe.
func (s *Service) TrendingFor(ctx context.Context, userID string, timeframe time.Duration) ([]TrendingSubmission, error) {
	var result []TrendingSubmission
	err := s.db.WithContext(ctx).
		Table("submissions").
		Scopes(Trending(userID, timeframe, s.clock())).
		Find(&result).Error
	if err != nil {
		s.logError(opTrending, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opTrending, "query_failed", err)
	}
	return result, nil
}

// DiscussionInvolvesUser reports whether the conversation on the submission
// grew beyond the nitpicks received.
func (s *Service) DiscussionInvolvesUser(ctx context.Context, submission *Submission) (bool, error) {
	count, err := s.CommentCount(ctx, submission)
	if err != nil {
		return false, err
	}
	return submission.DiscussionInvolvesUser(count), nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("submissions service error", attrs...)
}
