package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/leaderboard"
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/shared/logger"
	"github.com/radieske/betting-tracker/internal/shared/store"
)

type Cache interface {
	Leaderboard(ctx context.Context) ([]byte, bool, error)
	SetLeaderboard(ctx context.Context, v any, ttl time.Duration) error
	Summary(ctx context.Context, userID string) ([]byte, bool, error)
}

// Source é usado só quando o cache do leaderboard expirou
type Source interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListBets(ctx context.Context, f store.BetFilter) ([]model.Bet, error)
}

// API expõe o leaderboard e os resumos em cache, além do WebSocket de atualizações
type API struct {
	Log       *zap.Logger
	Cache     Cache
	Source    Source
	TTL       time.Duration
	Threshold int
	WS        http.HandlerFunc
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(a.Log))
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/v1/leaderboard", a.getLeaderboard)        // ?limit=N
		r.Get("/v1/users/{id}/summary", a.getUserSummary) // só cache
	})
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// getLeaderboard retorna o leaderboard, preferencialmente do cache
func (a *API) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = 0
	}

	if b, ok, err := a.Cache.Leaderboard(r.Context()); err != nil {
		a.Log.Warn("redis get leaderboard failed", zap.Error(err))
	} else if ok {
		if limit == 0 {
			writeRaw(w, http.StatusOK, b)
			return
		}
		var entries []leaderboard.Entry
		if err := json.Unmarshal(b, &entries); err == nil {
			writeJSON(w, http.StatusOK, top(entries, limit))
			return
		}
	}

	entries, err := a.compute(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := a.Cache.SetLeaderboard(r.Context(), entries, a.TTL); err != nil {
		a.Log.Warn("redis set leaderboard failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, top(entries, limit))
}

func (a *API) compute(ctx context.Context) ([]leaderboard.Entry, error) {
	users, err := a.Source.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	bets, err := a.Source.ListBets(ctx, store.BetFilter{})
	if err != nil {
		return nil, err
	}
	return leaderboard.Rank(users, bets, leaderboard.Options{ProvisionalThreshold: a.Threshold}), nil
}

func top(entries []leaderboard.Entry, limit int) []leaderboard.Entry {
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	if limit > 0 && limit < len(entries) {
		return entries[:limit]
	}
	return entries
}

// getUserSummary retorna o resumo calculado pelo stats-processor; sem cache = 404
func (a *API) getUserSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, ok, err := a.Cache.Summary(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeRaw(w, http.StatusOK, b)
}
