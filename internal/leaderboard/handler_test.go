package leaderboard

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(scores *fakeScoreStore, events *fakeEventStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	newTestService(scores, events).RegisterRoutes(r)
	return r
}

func TestHandleTopN_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		scores         *fakeScoreStore
		events         *fakeEventStore
		expectedStatus int
	}{
		{
			name:           "known board returns 200",
			path:           "/v1/rankings/like-of-the-day",
			scores:         &fakeScoreStore{},
			events:         &fakeEventStore{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown board returns 404",
			path:           "/v1/rankings/absent",
			scores:         &fakeScoreStore{},
			events:         &fakeEventStore{},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "durable failure returns 500",
			path:           "/v1/rankings/like-of-the-day",
			scores:         &fakeScoreStore{},
			events:         &fakeEventStore{aggregateErr: errors.New("db down")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.scores, tt.events)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHandleRecordEvent_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		events         *fakeEventStore
		expectedStatus int
	}{
		{
			name:           "valid event returns 202",
			body:           `{"board":"like-of-the-day","member":"post-1","delta":1}`,
			events:         &fakeEventStore{},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "missing member returns 400",
			body:           `{"board":"like-of-the-day","delta":1}`,
			events:         &fakeEventStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown board returns 404",
			body:           `{"board":"absent","member":"post-1","delta":1}`,
			events:         &fakeEventStore{},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "durable failure returns 500",
			body:           `{"board":"like-of-the-day","member":"post-1","delta":1}`,
			events:         &fakeEventStore{insertErr: errors.New("db down")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeScoreStore{}, tt.events)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
