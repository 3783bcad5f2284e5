package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/settlement"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/tracker-service/dto"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.GetUser(r.Context(), req.UserID); err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.now().UTC()
	b := model.Bet{
		UserID:    req.UserID,
		Event:     req.Event,
		Market:    req.Market,
		Bookmaker: req.Bookmaker,
		Stake:     req.Stake,
		Odds:      req.Odds,
		Result:    model.ResultPending,
		Currency:  req.Currency,
		Tags:      req.Tags,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if b.Currency == "" {
		b.Currency = s.opts.DefaultCurrency
	}
	if req.CreatedAt != nil {
		b.CreatedAt = req.CreatedAt.UTC()
	}
	// criada já liquidada: payout vem da mesma regra do PATCH de resultado
	if res := model.Result(req.Result); res.Settled() {
		b, _ = settlement.Transition(b, res, req.Payout, now)
	}

	created, err := s.store.CreateBet(r.Context(), b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.opts.OnBetCreated()
	s.publish(r.Context(), events.BetActivity{Kind: events.BetCreated, UserID: created.UserID, BetID: created.ID})
	writeJSON(w, http.StatusCreated, created)
}

// listBets aceita ?userId, ?result, ?search, ?sort, ?limit, ?offset
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	f, err := betFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bets, err := s.store.ListBets(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

func betFilter(r *http.Request) (store.BetFilter, error) {
	q := r.URL.Query()
	f := store.BetFilter{
		UserID: q.Get("userId"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("result"); v != "" {
		res, err := model.ParseResult(v)
		if err != nil {
			return f, &badRequest{err: err}
		}
		f.Result = res
	}
	var err error
	if f.Limit, err = queryInt(q.Get("limit")); err != nil {
		return f, &badRequest{err: fmt.Errorf("limit: %w", err)}
	}
	if f.Offset, err = queryInt(q.Get("offset")); err != nil {
		return f, &badRequest{err: fmt.Errorf("offset: %w", err)}
	}
	return f, nil
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// updateBet grava a edição como veio, inclusive o payout informado
func (s *Server) updateBet(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBetRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.store.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	b.Event = req.Event
	b.Market = req.Market
	b.Bookmaker = req.Bookmaker
	b.Stake = req.Stake
	b.Odds = req.Odds
	b.Result = model.Result(req.Result)
	b.Payout = req.Payout
	if !b.Result.Settled() {
		b.Payout = nil
	}
	if req.Currency != "" {
		b.Currency = req.Currency
	}
	b.Tags = req.Tags
	b.Notes = req.Notes
	b.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateBet(r.Context(), b); err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.BetUpdated, UserID: b.UserID, BetID: b.ID})
	writeJSON(w, http.StatusOK, b)
}

// setResult aplica a transição de resultado; repetir o mesmo resultado sem payout não grava nada
func (s *Server) setResult(w http.ResponseWriter, r *http.Request) {
	var req dto.SetResultRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.store.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	to := model.Result(req.Result)
	next, changed := settlement.Transition(b, to, req.Payout, s.now().UTC())
	if !changed {
		writeJSON(w, http.StatusOK, b)
		return
	}
	if err := s.store.UpdateBet(r.Context(), next); err != nil {
		s.fail(w, r, err)
		return
	}
	s.opts.OnResultChanged(string(to))
	s.publish(r.Context(), events.BetActivity{
		Kind:   events.BetResultChanged,
		UserID: next.UserID,
		BetID:  next.ID,
		Result: string(to),
	})
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) deleteBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.store.GetBet(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteBet(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.publish(r.Context(), events.BetActivity{Kind: events.BetDeleted, UserID: b.UserID, BetID: id})
	w.WriteHeader(http.StatusNoContent)
}
