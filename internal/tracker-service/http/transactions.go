package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/betting-tracker/internal/betting/bankroll"
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/tracker-service/dto"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

var errUserIDRequired = errors.New("userId required")

func applyTransaction(t model.Transaction, req dto.TransactionRequest) model.Transaction {
	t.UserID = req.UserID
	t.Type = model.TransactionType(req.Type)
	t.Amount = req.Amount
	t.Bookmaker = req.Bookmaker
	if req.Date != nil {
		t.Date = req.Date.UTC()
	}
	t.Status = model.TransactionStatus(req.Status)
	if t.Status == "" {
		t.Status = model.TransactionCompleted
	}
	t.Method = req.Method
	t.Notes = req.Notes
	t.Category = req.Category
	t.Tags = req.Tags
	return t
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.GetUser(r.Context(), req.UserID); err != nil {
		s.fail(w, r, err)
		return
	}
	t := applyTransaction(model.Transaction{Date: s.now().UTC()}, req)
	created, err := s.store.CreateTransaction(r.Context(), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.TransactionChange, UserID: created.UserID})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.fail(w, r, &badRequest{err: errUserIDRequired})
		return
	}
	txs, err := s.store.ListTransactions(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// transactionTotals: depósitos, saques e saldo por casa, só com transações completed
func (s *Server) transactionTotals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.fail(w, r, &badRequest{err: errUserIDRequired})
		return
	}
	txs, err := s.store.ListTransactions(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bankroll.Totalize(txs))
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	cur, err := s.store.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// o dono da transação não muda numa edição
	req.UserID = cur.UserID
	t := applyTransaction(cur, req)
	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTransaction(r.Context(), t); err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.TransactionChange, UserID: t.UserID})
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.TransactionChange, UserID: t.UserID})
	w.WriteHeader(http.StatusNoContent)
}
