package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tracknit/review-api/internal/auth"
	"github.com/tracknit/review-api/internal/submissions"
	"github.com/tracknit/review-api/internal/users"
)

const userIDContextKey = "review_user_id"

const defaultTrendingWindow = 24 * time.Hour

var (
	errMissingTokenManager      = errors.New("token manager dependency required")
	errMissingUserService       = errors.New("user service dependency required")
	errMissingSubmissionService = errors.New("submission service dependency required")
	errInvalidAuthorization     = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the Bearer tokens protecting the API.
type TokenManager interface {
	IssueToken(ctx context.Context, userID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the router's collaborators.
type Dependencies struct {
	TokenManager TokenManager
	Users        *users.Service
	Submissions  *submissions.Service
	Logger       *zap.Logger
}

// NewHTTPHandler builds the gin router with all API routes registered.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Submissions == nil {
		return nil, errMissingSubmissionService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		tokens:      deps.TokenManager,
		users:       deps.Users,
		submissions: deps.Submissions,
		logger:      logger,
	}

	router.POST("/auth/token", handler.handleIssueToken)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/submissions", handler.handleStartSubmission)
	protected.GET("/submissions", handler.handleBrowseSubmissions)
	protected.GET("/submissions/:key", handler.handleShowSubmission)
	protected.GET("/submissions/:key/participants", handler.handleParticipants)
	protected.POST("/submissions/:key/like", handler.handleLike)
	protected.DELETE("/submissions/:key/like", handler.handleUnlike)
	protected.POST("/submissions/:key/mute", handler.handleMute)
	protected.DELETE("/submissions/:key/mute", handler.handleUnmute)
	protected.DELETE("/submissions/:key/mutes", handler.handleUnmuteAll)
	protected.POST("/submissions/:key/comments", handler.handleAddComment)
	protected.POST("/submissions/:key/supersede", handler.handleSupersede)
	protected.DELETE("/submissions/:key", handler.handleDeleteSubmission)
	protected.GET("/trending", handler.handleTrending)
	protected.GET("/exercises/:track/:slug/random-completed", handler.handleRandomCompleted)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

type httpHandler struct {
	tokens      TokenManager
	users       *users.Service
	submissions *submissions.Service
	logger      *zap.Logger
}

type tokenRequestPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type tokenResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

func (h *httpHandler) handleIssueToken(c *gin.Context) {
	var request tokenRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Resolve(c.Request.Context(), request.Username, request.Email)
	if err != nil {
		if errors.Is(err, users.ErrInvalidUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_username"})
			return
		}
		h.logger.Error("failed to resolve user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user_resolution_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, tokenResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		UserID:      user.ID,
		Username:    user.Username,
	})
}

type submissionPayload struct {
	Key              string `json:"key"`
	UserID           string `json:"user_id"`
	TrackID          string `json:"track_id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	State            string `json:"state"`
	Version          int64  `json:"version"`
	NitCount         int64  `json:"nit_count"`
	IsLiked          bool   `json:"is_liked"`
	Solution         string `json:"solution"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func toSubmissionPayload(submission *submissions.Submission) submissionPayload {
	return submissionPayload{
		Key:              submission.Key,
		UserID:           submission.UserID,
		TrackID:          submission.Language,
		Slug:             submission.Slug,
		Name:             submission.Name(),
		State:            string(submission.State),
		Version:          submission.Version,
		NitCount:         submission.NitCount,
		IsLiked:          submission.IsLiked,
		Solution:         submission.Solution,
		CreatedAtSeconds: submission.CreatedAt.UTC().Unix(),
	}
}

type startSubmissionPayload struct {
	TrackID        string `json:"track_id"`
	Slug           string `json:"slug"`
	Solution       string `json:"solution"`
	UserExerciseID uint64 `json:"user_exercise_id"`
}

func (h *httpHandler) handleStartSubmission(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request startSubmissionPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	problem, err := submissions.NewProblem(request.TrackID, request.Slug)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_problem"})
		return
	}

	submission, err := h.submissions.Start(c.Request.Context(), userID, request.UserExerciseID, problem, request.Solution)
	if err != nil {
		if errors.Is(err, submissions.ErrMissingUser) || errors.Is(err, submissions.ErrMissingSolution) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_submission"})
			return
		}
		h.logger.Error("failed to start submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submission_failed"})
		return
	}

	c.JSON(http.StatusCreated, toSubmissionPayload(submission))
}

func (h *httpHandler) handleBrowseSubmissions(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	if c.Query("aging") == "true" {
		result, err := h.submissions.AgingSubmissions(c.Request.Context())
		if err != nil {
			h.logger.Error("failed to list aging submissions", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
			return
		}
		c.JSON(http.StatusOK, toSubmissionListPayload(result))
		return
	}

	opts := submissions.BrowseOptions{
		TrackID:      c.Query("track"),
		Pending:      c.Query("pending") == "true",
		Recent:       c.Query("recent") == "true",
		ExcludeHello: c.Query("exclude_hello") == "true",
		Newest:       c.Query("order") == "newest",
	}
	if c.Query("not_mine") == "true" {
		opts.NotSubmittedBy = userID
	}
	if c.Query("uncommented") == "true" {
		opts.NotCommentedOnBy = userID
	}
	if c.Query("unliked") == "true" {
		opts.NotLikedBy = userID
	}
	if c.Query("unmuted") == "true" {
		opts.UnmutedFor = userID
	}

	result, err := h.submissions.Browse(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("failed to browse submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	c.JSON(http.StatusOK, toSubmissionListPayload(result))
}

type submissionListPayload struct {
	Submissions []submissionPayload `json:"submissions"`
}

func toSubmissionListPayload(result []submissions.Submission) submissionListPayload {
	payload := submissionListPayload{Submissions: make([]submissionPayload, 0, len(result))}
	for i := range result {
		payload.Submissions = append(payload.Submissions, toSubmissionPayload(&result[i]))
	}
	return payload
}

type commentPayload struct {
	UserID           string `json:"user_id"`
	Body             string `json:"body"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

type showSubmissionPayload struct {
	submissionPayload
	ViewCount int64            `json:"view_count"`
	Comments  []commentPayload `json:"comments"`
}

func (h *httpHandler) handleShowSubmission(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}

	if err := h.submissions.RecordView(c.Request.Context(), submission, userID); err != nil {
		h.logger.Error("failed to record view", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "view_failed"})
		return
	}
	h.submissions.MarkViewed(c.Request.Context(), submission, userID)

	viewCount, err := h.submissions.ViewCount(c.Request.Context(), submission)
	if err != nil {
		h.logger.Error("failed to count views", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "view_failed"})
		return
	}

	comments, err := h.submissions.Comments(c.Request.Context(), submission)
	if err != nil {
		h.logger.Error("failed to load comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comments_failed"})
		return
	}

	payload := showSubmissionPayload{
		submissionPayload: toSubmissionPayload(submission),
		ViewCount:         viewCount,
		Comments:          make([]commentPayload, 0, len(comments)),
	}
	for _, comment := range comments {
		payload.Comments = append(payload.Comments, commentPayload{
			UserID:           comment.UserID,
			Body:             comment.Body,
			CreatedAtSeconds: comment.CreatedAt.UTC().Unix(),
		})
	}
	c.JSON(http.StatusOK, payload)
}

func (h *httpHandler) handleParticipants(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}

	result, err := h.submissions.ParticipantSubmissions(c.Request.Context(), submission, userID)
	if err != nil {
		h.logger.Error("failed to load participant submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	c.JSON(http.StatusOK, toSubmissionListPayload(result))
}

func (h *httpHandler) handleLike(c *gin.Context) {
	h.mutateSubmission(c, "like", func(ctx context.Context, submission *submissions.Submission, userID string) error {
		return h.submissions.Like(ctx, submission, userID)
	})
}

func (h *httpHandler) handleUnlike(c *gin.Context) {
	h.mutateSubmission(c, "unlike", func(ctx context.Context, submission *submissions.Submission, userID string) error {
		return h.submissions.Unlike(ctx, submission, userID)
	})
}

func (h *httpHandler) handleMute(c *gin.Context) {
	h.mutateSubmission(c, "mute", func(ctx context.Context, submission *submissions.Submission, userID string) error {
		return h.submissions.Mute(ctx, submission, userID)
	})
}

func (h *httpHandler) handleUnmute(c *gin.Context) {
	h.mutateSubmission(c, "unmute", func(ctx context.Context, submission *submissions.Submission, userID string) error {
		return h.submissions.Unmute(ctx, submission, userID)
	})
}

func (h *httpHandler) handleUnmuteAll(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}
	if submission.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.submissions.UnmuteAll(c.Request.Context(), submission); err != nil {
		h.logger.Error("failed to unmute all", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unmute_all_failed"})
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

type addCommentPayload struct {
	Body string `json:"body"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}

	var request addCommentPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	comment, err := h.submissions.AddComment(c.Request.Context(), submission, userID, request.Body)
	if err != nil {
		h.logger.Error("failed to add comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_failed"})
		return
	}

	c.JSON(http.StatusCreated, commentPayload{
		UserID:           comment.UserID,
		Body:             comment.Body,
		CreatedAtSeconds: comment.CreatedAt.UTC().Unix(),
	})
}

func (h *httpHandler) handleSupersede(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}
	if submission.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.submissions.Supersede(c.Request.Context(), submission); err != nil {
		h.logger.Error("failed to supersede submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "supersede_failed"})
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

func (h *httpHandler) handleDeleteSubmission(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}
	if submission.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.submissions.Delete(c.Request.Context(), submission); err != nil {
		h.logger.Error("failed to delete submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type trendingEntryPayload struct {
	submissionPayload
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`
	TotalActivity int64 `json:"total_activity"`
}

func (h *httpHandler) handleTrending(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	window := defaultTrendingWindow
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_timeframe"})
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	result, err := h.submissions.TrendingFor(c.Request.Context(), userID, window)
	if err != nil {
		h.logger.Error("failed to compute trending", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	entries := make([]trendingEntryPayload, 0, len(result))
	for i := range result {
		entries = append(entries, trendingEntryPayload{
			submissionPayload: toSubmissionPayload(&result[i].Submission),
			TotalLikes:        result[i].TotalLikes,
			TotalComments:     result[i].TotalComments,
			TotalActivity:     result[i].TotalActivity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"submissions": entries})
}

func (h *httpHandler) handleRandomCompleted(c *gin.Context) {
	problem, err := submissions.NewProblem(c.Param("track"), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_problem"})
		return
	}

	submission, err := h.submissions.RandomCompleted(c.Request.Context(), problem)
	if err != nil {
		h.logger.Error("failed to pick completed submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	if submission == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

func (h *httpHandler) mutateSubmission(c *gin.Context, action string, mutate func(context.Context, *submissions.Submission, string) error) {
	userID := c.GetString(userIDContextKey)

	submission, ok := h.loadSubmission(c)
	if !ok {
		return
	}
	if err := mutate(c.Request.Context(), submission, userID); err != nil {
		h.logger.Error("submission mutation failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + "_failed"})
		return
	}
	c.JSON(http.StatusOK, toSubmissionPayload(submission))
}

func (h *httpHandler) loadSubmission(c *gin.Context) (*submissions.Submission, bool) {
	key := c.Param("key")
	submission, err := h.submissions.FindByKey(c.Request.Context(), key)
	if err != nil {
		var serviceErr *submissions.ServiceError
		if errors.As(err, &serviceErr) && strings.HasSuffix(serviceErr.Code(), ".not_found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return nil, false
		}
		h.logger.Error("failed to load submission", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return nil, false
	}
	return submission, true
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}
