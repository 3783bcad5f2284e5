package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/betting-tracker/internal/betting/bankroll"
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/stats"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/tracker-service/dto"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), model.User{Name: req.Name, Color: req.Color})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.UserChanged, UserID: u.ID})
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// deleteUser remove o usuário e, em cascata, apostas e transações
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.UserChanged, UserID: id})
	w.WriteHeader(http.StatusNoContent)
}

// userSummary calcula o resumo na hora; o leaderboard-service serve a versão em cache
func (s *Server) userSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetUser(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	bets, err := s.store.ListBets(r.Context(), store.BetFilter{UserID: id})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	txs, err := s.store.ListTransactions(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum := stats.Summarize(bets, stats.Options{
		NetDeposits: bankroll.Totalize(txs).NetDeposits(),
		Now:         s.now(),
		Location:    s.opts.Location,
	})
	writeJSON(w, http.StatusOK, sum)
}
