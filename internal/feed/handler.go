package feed

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	httperr "github.com/studylink-app/studylink/internal/core/errors"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// RegisterRoutes registers the feed and notification routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/feed/:user_id", s.HandleGetFeed)
	r.POST("/v1/notifications", s.HandleNotify)
	r.PUT("/v1/notifications/:id/read", s.HandleMarkRead)
	r.PUT("/v1/notifications/read-all/:user_id", s.HandleMarkAllRead)
}

// HandleGetFeed handles GET /v1/feed/:user_id?limit=
func (s *Service) HandleGetFeed(c *gin.Context) {
	userID := c.Param("user_id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidRequestError,
				Message:   "Invalid limit parameter",
				Details:   raw,
			})
			return
		}
		limit = parsed
	}

	snapshots, err := s.Get(c.Request.Context(), userID, limit)
	if err != nil {
		slog.Error("Failed to load feed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to load feed",
		})
		return
	}

	if snapshots == nil {
		snapshots = []v1.NotificationSnapshot{}
	}
	c.JSON(http.StatusOK, snapshots)
}

// HandleNotify handles POST /v1/notifications
func (s *Service) HandleNotify(c *gin.Context) {
	var snapshot v1.NotificationSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid notification body",
			Details:   err.Error(),
		})
		return
	}

	saved, err := s.Notify(c.Request.Context(), &snapshot)
	if err != nil {
		slog.Error("Failed to create notification",
			"receiver_id", snapshot.ReceiverID, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to create notification",
		})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// HandleMarkRead handles PUT /v1/notifications/:id/read
func (s *Service) HandleMarkRead(c *gin.Context) {
	id := c.Param("id")

	if err := s.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "Notification not found",
				Details:   id,
			})
			return
		}

		slog.Error("Failed to mark notification read", "notification_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to mark notification read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// HandleMarkAllRead handles PUT /v1/notifications/read-all/:user_id
func (s *Service) HandleMarkAllRead(c *gin.Context) {
	userID := c.Param("user_id")

	if err := s.MarkAllRead(c.Request.Context(), userID); err != nil {
		slog.Error("Failed to mark all notifications read", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to mark notifications read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
