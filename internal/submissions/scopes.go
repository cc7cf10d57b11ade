package submissions

import (
	"time"

	"gorm.io/gorm"
)

// Scope is a composable query fragment over the submissions table. Scopes
// narrow, order or limit the running query without executing it; callers
// chain them through gorm's Scopes and materialize once with Find or Take.
type Scope func(tx *gorm.DB) *gorm.DB

const (
	agingThreshold = 3 * 7 * 24 * time.Hour
	recentWindow   = 7 * 24 * time.Hour
	trendingLimit  = 10
)

// Pending selects submissions still waiting on review activity.
func Pending(tx *gorm.DB) *gorm.DB {
	return tx.Where("submissions.state IN ?", []State{StateNeedsInput, StatePending})
}

// Aging selects pending submissions that received nitpicks but have sat
// untouched for more than three weeks.
func Aging(now time.Time) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		cutoff := now.UTC().Add(-agingThreshold)
		return OlderThan(cutoff)(Pending(tx).Where("submissions.nit_count > 0"))
	}
}

// Chronologically orders by creation time, oldest first.
func Chronologically(tx *gorm.DB) *gorm.DB {
	return tx.Order("submissions.created_at ASC")
}

// Reversed orders by creation time, newest first.
func Reversed(tx *gorm.DB) *gorm.DB {
	return tx.Order("submissions.created_at DESC")
}

// NotCommentedOnBy excludes submissions the user has commented on.
func NotCommentedOnBy(userID string) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		commented := tx.Session(&gorm.Session{NewDB: true}).
			Table("comments").
			Select("comments.submission_id").
			Where("comments.user_id = ?", userID)
		return tx.Where("submissions.id NOT IN (?)", commented)
	}
}

// NotLikedBy excludes submissions the user has liked.
func NotLikedBy(userID string) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		liked := tx.Session(&gorm.Session{NewDB: true}).
			Table("likes").
			Select("likes.submission_id").
			Where("likes.user_id = ?", userID)
		return tx.Where("submissions.id NOT IN (?)", liked)
	}
}

// UnmutedFor excludes submissions the user has muted.
func UnmutedFor(userID string) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		muted := tx.Session(&gorm.Session{NewDB: true}).
			Table("muted_submissions").
			Select("muted_submissions.submission_id").
			Where("muted_submissions.user_id = ?", userID)
		return tx.Where("submissions.id NOT IN (?)", muted)
	}
}

// ExcludingHello drops the canonical warm-up exercise from listings.
func ExcludingHello(tx *gorm.DB) *gorm.DB {
	return tx.Where("submissions.slug <> ?", helloWorldSlug)
}

// NotSubmittedBy excludes the user's own submissions.
func NotSubmittedBy(userID string) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("submissions.user_id <> ?", userID)
	}
}

// Between selects submissions created within the inclusive bounds.
func Between(upper, lower time.Time) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("submissions.created_at BETWEEN ? AND ?", upper, lower)
	}
}

// OlderThan selects submissions created strictly before the timestamp.
func OlderThan(timestamp time.Time) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("submissions.created_at < ?", timestamp)
	}
}

// Since selects submissions created strictly after the timestamp.
func Since(timestamp time.Time) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("submissions.created_at > ?", timestamp)
	}
}

// Recent selects submissions from the last seven days.
func Recent(now time.Time) Scope {
	return Since(now.UTC().Add(-recentWindow))
}

// ForTrack filters by language track.
func ForTrack(trackID TrackID) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("submissions.language = ?", trackID.String())
	}
}

// CompletedFor selects finished submissions for the given exercise.
func CompletedFor(problem Problem) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(
			"submissions.language = ? AND submissions.slug = ? AND submissions.state = ?",
			problem.TrackID.String(), problem.Slug.String(), StateDone,
		)
	}
}

// RandomCompletedFor picks one finished submission for the exercise at
// random, using the backend's random ordering.
func RandomCompletedFor(problem Problem) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return CompletedFor(problem)(tx).Order("RANDOM()").Limit(1)
	}
}

// Related selects every iteration sharing the submission's user, track and
// slug, oldest first.
func Related(submission *Submission) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return Chronologically(tx).Where(
			"submissions.user_id = ? AND submissions.language = ? AND submissions.slug = ?",
			submission.UserID, submission.Language, submission.Slug,
		)
	}
}

// LikesBySubmission aggregates like counts grouped by submission id. The
// result carries columns (id, total_likes).
func LikesBySubmission(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true}).
		Table("likes").
		Select("likes.submission_id AS id, COUNT(*) AS total_likes").
		Group("likes.submission_id")
}

// CommentsBySubmission aggregates comment counts grouped by submission id.
// The result carries columns (id, total_comments).
func CommentsBySubmission(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true}).
		Table("comments").
		Select("comments.submission_id AS id, COUNT(*) AS total_comments").
		Group("comments.submission_id")
}

// TrendingSubmission is a submission row annotated with its activity counts
// inside the trending window.
type TrendingSubmission struct {
	Submission
	TotalLikes    int64 `gorm:"column:total_likes"`
	TotalComments int64 `gorm:"column:total_comments"`
	TotalActivity int64 `gorm:"column:total_activity"`
}

// Trending ranks submissions the user nitpicks by like plus comment activity
// within the timeframe ending at now. Rows without any activity are dropped
// and the result is capped at the top ten.
func Trending(userID string, timeframe time.Duration, now time.Time) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		windowStart := now.UTC().Add(-timeframe)
		windowEnd := now.UTC()

		likeCounts := LikesBySubmission(tx).
			Where("likes.created_at BETWEEN ? AND ?", windowStart, windowEnd)
		commentCounts := CommentsBySubmission(tx).
			Where("comments.created_at BETWEEN ? AND ?", windowStart, windowEnd)

		return tx.
			Select("submissions.*, COALESCE(l.total_likes, 0) AS total_likes, COALESCE(c.total_comments, 0) AS total_comments, COALESCE(l.total_likes, 0) + COALESCE(c.total_comments, 0) AS total_activity").
			Joins("LEFT JOIN (?) c ON c.id = submissions.id", commentCounts).
			Joins("LEFT JOIN (?) l ON l.id = submissions.id", likeCounts).
			Joins("INNER JOIN user_exercises ue ON ue.user_id = ? AND ue.is_nitpicker = ? AND ue.language = submissions.language AND ue.slug = submissions.slug", userID, true).
			Where("COALESCE(l.total_likes, 0) + COALESCE(c.total_comments, 0) > 0").
			Order("total_activity DESC").
			Limit(trendingLimit)
	}
}
