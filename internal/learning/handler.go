package learning

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/studylink-app/studylink/internal/core/errors"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// RegisterRoutes registers the learning API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/learning/sessions/start", s.HandleStartSession)
	r.POST("/v1/learning/sessions/stop", s.HandleStopSession)
	r.GET("/v1/learning/sessions/active/:user_id", s.HandleActiveSession)
	r.GET("/v1/learning/sessions/:user_id", s.HandleListSessions)
	r.GET("/v1/learning/stats/:user_id", s.HandleStats)
	r.GET("/v1/learning/streak/:user_id", s.HandleStreak)
	r.GET("/v1/learning/goals/:user_id", s.HandleGoals)
	r.POST("/v1/learning/goals", s.HandleSetGoal)
	r.DELETE("/v1/learning/goals/:id", s.HandleRemoveGoal)
}

// HandleStartSession handles POST /v1/learning/sessions/start
func (s *Service) HandleStartSession(c *gin.Context) {
	var body struct {
		UserID  string `json:"user_id" binding:"required"`
		Subject string `json:"subject"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid session body", err)
		return
	}

	session, err := s.StartSession(c.Request.Context(), body.UserID, body.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrActiveSessionExists) {
			c.JSON(http.StatusConflict, httperr.ErrorResponse{
				ErrorType: httperr.HttpSessionConflictError,
				Message:   "An active learning session already exists",
			})
			return
		}

		slog.Error("Failed to start learning session", "user_id", body.UserID, "error", err)
		writeInternal(c, "Failed to start session")
		return
	}

	c.JSON(http.StatusCreated, session)
}

// HandleStopSession handles POST /v1/learning/sessions/stop
func (s *Service) HandleStopSession(c *gin.Context) {
	var body struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid session body", err)
		return
	}

	session, err := s.StopSession(c.Request.Context(), body.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "No active learning session",
			})
			return
		}

		slog.Error("Failed to stop learning session", "user_id", body.UserID, "error", err)
		writeInternal(c, "Failed to stop session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// HandleActiveSession handles GET /v1/learning/sessions/active/:user_id
func (s *Service) HandleActiveSession(c *gin.Context) {
	userID := c.Param("user_id")

	session, err := s.ActiveSession(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to load active session", "user_id", userID, "error", err)
		writeInternal(c, "Failed to load active session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// HandleListSessions handles GET /v1/learning/sessions/:user_id
// Query parameters: start_date, end_date (RFC 3339), limit.
func (s *Service) HandleListSessions(c *gin.Context) {
	userID := c.Param("user_id")

	var start, end *time.Time
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(c, "Invalid start_date", err)
			return
		}
		start = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(c, "Invalid end_date", err)
			return
		}
		end = &t
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(c, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	sessions, err := s.ListSessions(c.Request.Context(), userID, start, end, limit)
	if err != nil {
		slog.Error("Failed to list learning sessions", "user_id", userID, "error", err)
		writeInternal(c, "Failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// HandleStats handles GET /v1/learning/stats/:user_id
func (s *Service) HandleStats(c *gin.Context) {
	userID := c.Param("user_id")

	stats, err := s.Stats(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to aggregate learning stats", "user_id", userID, "error", err)
		writeInternal(c, "Failed to load stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleStreak handles GET /v1/learning/streak/:user_id
func (s *Service) HandleStreak(c *gin.Context) {
	userID := c.Param("user_id")

	streak, err := s.Streak(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to compute streak", "user_id", userID, "error", err)
		writeInternal(c, "Failed to load streak")
		return
	}

	c.JSON(http.StatusOK, streak)
}

// HandleGoals handles GET /v1/learning/goals/:user_id
func (s *Service) HandleGoals(c *gin.Context) {
	userID := c.Param("user_id")

	goals, err := s.Goals(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list goals", "user_id", userID, "error", err)
		writeInternal(c, "Failed to load goals")
		return
	}

	c.JSON(http.StatusOK, goals)
}

// HandleSetGoal handles POST /v1/learning/goals
func (s *Service) HandleSetGoal(c *gin.Context) {
	var body struct {
		UserID        string `json:"user_id" binding:"required"`
		Type          string `json:"type" binding:"required"`
		TargetMinutes int64  `json:"target_minutes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid goal body", err)
		return
	}

	goal, err := s.SetGoal(c.Request.Context(), body.UserID, body.Type, body.TargetMinutes)
	if err != nil {
		if errors.Is(err, ErrInvalidGoal) {
			writeBadRequest(c, "Invalid goal", err)
			return
		}

		slog.Error("Failed to set goal", "user_id", body.UserID, "error", err)
		writeInternal(c, "Failed to set goal")
		return
	}

	c.JSON(http.StatusOK, goal)
}

// HandleRemoveGoal handles DELETE /v1/learning/goals/:id
func (s *Service) HandleRemoveGoal(c *gin.Context) {
	id := c.Param("id")

	if err := s.RemoveGoal(c.Request.Context(), id); err != nil {
		slog.Error("Failed to remove goal", "goal_id", id, "error", err)
		writeInternal(c, "Failed to remove goal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func writeBadRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidRequestError,
		Message:   message,
		Details:   err.Error(),
	})
}

func writeInternal(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   message,
	})
}
