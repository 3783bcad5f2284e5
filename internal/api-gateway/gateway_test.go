package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func echo() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Method+" "+r.URL.RequestURI())
	}))
}

func newGateway(t *testing.T, tracker, board string) http.Handler {
	t.Helper()
	h, err := NewRouter(Routes{TrackerURL: tracker, LeaderboardURL: board, CORSOrigins: []string{"http://app.local"}}, zap.NewNop())
	require.NoError(t, err)
	return h
}

func TestRoutesRewritePrefixes(t *testing.T) {
	tracker, board := echo(), echo()
	defer tracker.Close()
	defer board.Close()
	h := newGateway(t, tracker.URL, board.URL)

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/tracker/bets?userId=u1", "GET /api/v1/bets?userId=u1"},
		{http.MethodPatch, "/api/tracker/bets/b1/result", "PATCH /api/v1/bets/b1/result"},
		{http.MethodGet, "/api/leaderboard/v1/leaderboard", "GET /v1/leaderboard"},
		{http.MethodGet, "/api/leaderboard/v1/users/u1/summary", "GET /v1/users/u1/summary"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, rr.Body.String())
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	tracker := echo()
	defer tracker.Close()
	h := newGateway(t, tracker.URL, tracker.URL)

	req := httptest.NewRequest(http.MethodOptions, "/api/tracker/bets", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://app.local", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestUpstreamDown(t *testing.T) {
	dead := echo()
	url := dead.URL
	dead.Close()

	rr := httptest.NewRecorder()
	newGateway(t, url, url).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tracker/users", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"upstream unavailable"}`, rr.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	rr := httptest.NewRecorder()
	newGateway(t, "http://localhost:1", "http://localhost:1").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/odds/x", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
