package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/export"
	"github.com/radieske/betting-tracker/internal/betting/importer"
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/tracker-service/dto"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

const (
	maxUploadBytes = 5 << 20
	importTag      = "csv-import"
)

var errInvalidImportRow = errors.New("stake and odds must be positive")

// importCSV recebe o texto CSV no corpo e grava as apostas válidas num único lote
func (s *Server) importCSV(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		s.fail(w, r, err)
		return
	}

	policy := s.opts.ImportPolicy
	if v := r.URL.Query().Get("policy"); v != "" {
		p, err := importer.ParsePolicy(v)
		if err != nil {
			s.fail(w, r, &badRequest{err: err})
			return
		}
		policy = p
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.fail(w, r, &badRequest{err: err})
		return
	}

	batch, err := importer.Parse(string(body), importer.Options{
		Policy:          policy,
		Bookmaker:       s.opts.ImportBookmaker,
		DefaultCurrency: s.opts.DefaultCurrency,
		Now:             s.now,
		Logger:          s.log.With(zap.String("userId", userID)),
	})
	if err != nil {
		s.importFailed(w, err)
		return
	}

	now := s.now().UTC()
	resp := dto.ImportResponse{Dialect: batch.Dialect, Errors: []dto.RowIssue{}, Rejected: []dto.RowIssue{}}
	for _, re := range batch.Errors {
		resp.Errors = append(resp.Errors, dto.NewRowIssue(re))
	}

	bets := make([]model.Bet, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		if row.Stake <= 0 || row.Odds <= 0 {
			resp.Rejected = append(resp.Rejected, dto.RowIssue{Line: row.Line, Reason: errInvalidImportRow.Error()})
			continue
		}
		bets = append(bets, betFromRow(userID, row, now))
	}
	s.opts.OnImportRows("skipped", len(resp.Errors))
	s.opts.OnImportRows("rejected", len(resp.Rejected))
	if len(bets) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: importer.ErrNoRows.Error(),
			Rows:  append(resp.Errors, resp.Rejected...),
		})
		return
	}

	created, err := s.store.CreateBets(r.Context(), bets)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.opts.OnImportRows("imported", len(created))
	s.publish(r.Context(), events.BetActivity{Kind: events.BetsImported, UserID: userID, Count: len(created)})

	resp.Imported = len(created)
	resp.Bets = created
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) importFailed(w http.ResponseWriter, err error) {
	resp := dto.ErrorResponse{Error: err.Error()}
	var re *importer.RowError
	if errors.As(err, &re) {
		resp.Rows = []dto.RowIssue{dto.NewRowIssue(re)}
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

// betFromRow: resultado fora do enum vira pending e o texto original fica nas notas
func betFromRow(userID string, row importer.Row, now time.Time) model.Bet {
	notes := fmt.Sprintf("Imported from %s CSV", row.Bookmaker)
	res := row.Result
	if !res.Valid() {
		notes += fmt.Sprintf("; unrecognized result %q", string(row.Result))
		res = model.ResultPending
	}
	b := model.Bet{
		UserID:    userID,
		Event:     row.Event,
		Market:    row.Market,
		Bookmaker: row.Bookmaker,
		Stake:     row.Stake,
		Odds:      row.Odds,
		Result:    res,
		Currency:  row.Currency,
		Tags:      []string{strings.ToLower(row.Bookmaker), importTag},
		Notes:     notes,
		CreatedAt: row.PlacedAt,
		UpdatedAt: now,
	}
	if res.Settled() && row.Payout != nil {
		b.Payout = model.Float(*row.Payout)
	}
	return b
}

// restore recria apostas e transações de um backup JSON no usuário da rota, com ids novos
func (s *Server) restore(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := export.ReadJSON(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.fail(w, r, &badRequest{err: err})
		return
	}

	bets := make([]model.Bet, 0, len(doc.Bets))
	for _, b := range doc.Bets {
		b.ID = ""
		b.UserID = userID
		if !b.Result.Settled() {
			b.Payout = nil
		}
		bets = append(bets, b)
	}
	var resp dto.RestoreResponse
	if len(bets) > 0 {
		created, err := s.store.CreateBets(r.Context(), bets)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Bets = len(created)
	}
	for _, t := range doc.Transactions {
		t.ID = ""
		t.UserID = userID
		if _, err := s.store.CreateTransaction(r.Context(), t); err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Transactions++
	}

	s.publish(r.Context(), events.BetActivity{Kind: events.BetsImported, UserID: userID, Count: resp.Bets})
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	u, bets, _, ok := s.loadUserData(w, r, false)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bets-%s-%s.csv"`, u.ID, s.now().Format("2006-01-02")))
	if err := export.WriteCSV(w, bets, []model.User{u}); err != nil {
		s.log.Warn("export csv failed", zap.String("userId", u.ID), zap.Error(err))
	}
}

func (s *Server) exportJSON(w http.ResponseWriter, r *http.Request) {
	u, bets, txs, ok := s.loadUserData(w, r, true)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%s-%s.json"`, u.ID, s.now().Format("2006-01-02")))
	if err := export.WriteJSON(w, export.NewDocument(&u, bets, txs, s.now())); err != nil {
		s.log.Warn("export json failed", zap.String("userId", u.ID), zap.Error(err))
	}
}

func (s *Server) loadUserData(w http.ResponseWriter, r *http.Request, withTxs bool) (model.User, []model.Bet, []model.Transaction, bool) {
	u, err := s.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return model.User{}, nil, nil, false
	}
	bets, err := s.store.ListBets(r.Context(), store.BetFilter{UserID: u.ID, Sort: store.SortDateDesc})
	if err != nil {
		s.fail(w, r, err)
		return model.User{}, nil, nil, false
	}
	var txs []model.Transaction
	if withTxs {
		if txs, err = s.store.ListTransactions(r.Context(), u.ID); err != nil {
			s.fail(w, r, err)
			return model.User{}, nil, nil, false
		}
	}
	return u, bets, txs, true
}
