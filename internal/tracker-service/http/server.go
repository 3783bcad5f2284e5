package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/importer"
	"github.com/radieske/betting-tracker/internal/shared/logger"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/tracker-service/dto"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

// Publisher recebe cada mutação para o stats-processor recalcular leaderboard e resumos
type Publisher interface {
	PublishActivity(ctx context.Context, e events.BetActivity) error
}

// Options agrupa parâmetros de cálculo e callbacks de métricas (registradas no main)
type Options struct {
	ImportPolicy    importer.ErrorPolicy
	ImportBookmaker string
	DefaultCurrency string
	Location        *time.Location

	OnBetCreated    func()
	OnResultChanged func(result string)
	OnImportRows    func(outcome string, n int)
}

type Server struct {
	log   *zap.Logger
	store store.Store
	publ  Publisher
	opts  Options
	now   func() time.Time
}

func NewServer(log *zap.Logger, st store.Store, p Publisher, opts Options) *Server {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = importer.DefaultCurrency
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.OnBetCreated == nil {
		opts.OnBetCreated = func() {}
	}
	if opts.OnResultChanged == nil {
		opts.OnResultChanged = func(string) {}
	}
	if opts.OnImportRows == nil {
		opts.OnImportRows = func(string, int) {}
	}
	return &Server{log: log, store: st, publ: p, opts: opts, now: time.Now}
}

// Router monta a API pública sob /api/v1
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.createUser)
			r.Get("/", s.listUsers)
			r.Delete("/{id}", s.deleteUser)
			r.Get("/{id}/summary", s.userSummary)
			r.Post("/{id}/import", s.importCSV)
			r.Post("/{id}/restore", s.restore)
			r.Get("/{id}/export.csv", s.exportCSV)
			r.Get("/{id}/export.json", s.exportJSON)
		})
		r.Route("/bets", func(r chi.Router) {
			r.Post("/", s.createBet)
			r.Get("/", s.listBets)
			r.Get("/{id}", s.getBet)
			r.Put("/{id}", s.updateBet)
			r.Patch("/{id}/result", s.setResult)
			r.Delete("/{id}", s.deleteBet)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.createTransaction)
			r.Get("/", s.listTransactions)
			r.Get("/totals", s.transactionTotals)
			r.Put("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})
	})
	return r
}

// publish não falha a requisição: o dado já está gravado e o próximo evento recalcula tudo
func (s *Server) publish(ctx context.Context, e events.BetActivity) {
	if e.Ts.IsZero() {
		e.Ts = s.now().UTC()
	}
	if err := s.publ.PublishActivity(ctx, e); err != nil {
		s.log.Warn("publish bet activity failed",
			zap.String("kind", string(e.Kind)),
			zap.String("userId", e.UserID),
			zap.Error(err),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode lê o corpo JSON e aplica a validação das tags do DTO
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &badRequest{err: err}
	}
	if err := dto.Validate(dst); err != nil {
		return &badRequest{err: err}
	}
	return nil
}

type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// fail mapeia erros para status: 400 payload, 404 não encontrado, 500 o resto
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bad *badRequest
		ve  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &bad):
		writeError(w, http.StatusBadRequest, bad.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
