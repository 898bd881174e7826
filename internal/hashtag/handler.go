package hashtag

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httperr "github.com/studylink-app/studylink/internal/core/errors"
)

// RegisterRoutes registers the hashtag routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/hashtags", s.HandleRecord)
	r.GET("/v1/hashtags/daily", s.HandleDailyCounts)
}

// HandleRecord handles POST /v1/hashtags
//
// The post service calls this after a post write to have its text's
// hashtags counted. The response lists the extracted tags.
func (s *Service) HandleRecord(c *gin.Context) {
	var body struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid hashtag body",
			Details:   err.Error(),
		})
		return
	}

	tags := s.Record(c.Request.Context(), body.Text)
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"hashtags": tags})
}

// HandleDailyCounts handles GET /v1/hashtags/daily?limit=
//
// Returns the current day's durable hashtag counters, most used first.
func (s *Service) HandleDailyCounts(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidRequestError,
				Message:   "Invalid limit parameter",
				Details:   raw,
			})
			return
		}
		limit = parsed
	}

	counts, err := s.DailyCounts(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Failed to load daily hashtag counts", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to load daily hashtag counts",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hashtags": counts})
}
