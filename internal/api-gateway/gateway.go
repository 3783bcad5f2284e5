// Package gateway roteia /api/tracker/* e /api/leaderboard/* para os serviços internos.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/shared/logger"
)

type Routes struct {
	TrackerURL     string
	LeaderboardURL string
	CORSOrigins    []string
}

// proxy troca o prefixo público `from` pelo prefixo interno `to`
func proxy(target *url.URL, from, to string, log *zap.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = to + strings.TrimPrefix(pr.In.URL.Path, from)
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("upstream failed", zap.String("upstream", target.Host), zap.String("path", r.URL.Path), zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
		},
	}
}

func NewRouter(rt Routes, log *zap.Logger) (http.Handler, error) {
	tracker, err := url.Parse(rt.TrackerURL)
	if err != nil {
		return nil, fmt.Errorf("tracker url: %w", err)
	}
	board, err := url.Parse(rt.LeaderboardURL)
	if err != nil {
		return nil, fmt.Errorf("leaderboard url: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// tracker (ex.: /api/tracker/bets -> tracker-service /api/v1/bets)
	r.Handle("/api/tracker/*", proxy(tracker, "/api/tracker", "/api/v1", log))

	// leaderboard (ex.: /api/leaderboard/v1/leaderboard -> leaderboard-service /v1/leaderboard, /ws incluso)
	r.Handle("/api/leaderboard/*", proxy(board, "/api/leaderboard", "", log))

	return r, nil
}
