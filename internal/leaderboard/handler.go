package leaderboard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/studylink-app/studylink/internal/core/errors"
)

// RegisterRoutes registers the ranking API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/rankings/:board", s.HandleTopN)
	r.POST("/v1/events", s.HandleRecordEvent)
}

// HandleTopN handles GET /v1/rankings/:board
func (s *Service) HandleTopN(c *gin.Context) {
	boardName := c.Param("board")

	entries, err := s.TopN(c.Request.Context(), boardName)
	if err != nil {
		if errors.Is(err, ErrUnknownBoard) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "Unknown ranking board",
				Details:   boardName,
			})
			return
		}

		slog.Error("Failed to serve ranking", "board", boardName, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query ranking",
		})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// HandleRecordEvent handles POST /v1/events
//
// The response reflects only the durable write: a failed cache increment
// behind a successful insert still returns 202.
func (s *Service) HandleRecordEvent(c *gin.Context) {
	var body struct {
		Board  string `json:"board" binding:"required"`
		Member string `json:"member" binding:"required"`
		Delta  int64  `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid event body",
			Details:   err.Error(),
		})
		return
	}

	if err := s.RecordEvent(c.Request.Context(), body.Board, body.Member, body.Delta); err != nil {
		if errors.Is(err, ErrUnknownBoard) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "Unknown ranking board",
				Details:   body.Board,
			})
			return
		}

		slog.Error("Failed to record engagement event",
			"board", body.Board, "member", body.Member, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to record event",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
