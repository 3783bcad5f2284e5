package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/stats"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/shared/store/mocks"
	"github.com/radieske/betting-tracker/internal/tracker-service/dto"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BetActivity
}

func (p *recordingPublisher) PublishActivity(_ context.Context, e events.BetActivity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) kinds() []events.ActivityKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.ActivityKind
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	store *mocks.Store
	publ  *recordingPublisher
	h     http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := new(mocks.Store)
	publ := &recordingPublisher{}
	srv := NewServer(zap.NewNop(), st, publ, Options{})
	srv.now = func() time.Time { return testNow }
	t.Cleanup(func() { st.AssertExpectations(t) })
	return &fixture{store: st, publ: publ, h: srv.Router()}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	return rr
}

var alice = model.User{ID: "u1", Name: "Alice", Color: "#ff0000", CreatedAt: testNow}

func pendingBet() model.Bet {
	return model.Bet{
		ID: "b1", UserID: "u1", Event: "Arsenal vs Chelsea", Market: "1X2", Bookmaker: "Bet365",
		Stake: 100, Odds: 2.5, Result: model.ResultPending, Currency: "SEK", Tags: []string{},
		CreatedAt: testNow.Add(-time.Hour), UpdatedAt: testNow.Add(-time.Hour),
	}
}

func TestCreateBet(t *testing.T) {
	t.Run("pending by default", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateBet", mock.Anything, mock.MatchedBy(func(b model.Bet) bool {
			return b.Result == model.ResultPending && b.Payout == nil && b.Currency == "SEK" && b.CreatedAt.Equal(testNow)
		})).Return(pendingBet(), nil)

		rr := f.do(http.MethodPost, "/api/v1/bets", dto.CreateBetRequest{
			UserID: "u1", Event: "Arsenal vs Chelsea", Market: "1X2", Bookmaker: "Bet365", Stake: 100, Odds: 2.5,
		})
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, []events.ActivityKind{events.BetCreated}, f.publ.kinds())
	})

	t.Run("created settled gets computed payout", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateBet", mock.Anything, mock.MatchedBy(func(b model.Bet) bool {
			return b.Result == model.ResultWon && b.Payout != nil && *b.Payout == 250
		})).Return(pendingBet(), nil)

		rr := f.do(http.MethodPost, "/api/v1/bets", dto.CreateBetRequest{
			UserID: "u1", Event: "E", Market: "M", Bookmaker: "Bet365", Stake: 100, Odds: 2.5, Result: "won",
		})
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("odds below minimum", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodPost, "/api/v1/bets", dto.CreateBetRequest{
			UserID: "u1", Event: "E", Market: "M", Bookmaker: "Bet365", Stake: 100, Odds: 1.0,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Odds")
		f.store.AssertNotCalled(t, "CreateBet", mock.Anything, mock.Anything)
	})

	t.Run("unknown result", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodPost, "/api/v1/bets", dto.CreateBetRequest{
			UserID: "u1", Event: "E", Market: "M", Bookmaker: "Bet365", Stake: 100, Odds: 2, Result: "cashout",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "ghost").Return(model.User{}, store.ErrNotFound)
		rr := f.do(http.MethodPost, "/api/v1/bets", dto.CreateBetRequest{
			UserID: "ghost", Event: "E", Market: "M", Bookmaker: "Bet365", Stake: 100, Odds: 2,
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"not found"}`, rr.Body.String())
	})
}

func TestSetResult(t *testing.T) {
	t.Run("won computes payout", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetBet", mock.Anything, "b1").Return(pendingBet(), nil)
		f.store.On("UpdateBet", mock.Anything, mock.MatchedBy(func(b model.Bet) bool {
			return b.Result == model.ResultWon && b.Payout != nil && *b.Payout == 250 && b.UpdatedAt.Equal(testNow)
		})).Return(nil)

		rr := f.do(http.MethodPatch, "/api/v1/bets/b1/result", dto.SetResultRequest{Result: "won"})
		require.Equal(t, http.StatusOK, rr.Code)

		var got model.Bet
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.NotNil(t, got.Payout)
		assert.Equal(t, 250.0, *got.Payout)

		require.Len(t, f.publ.events, 1)
		assert.Equal(t, events.BetResultChanged, f.publ.events[0].Kind)
		assert.Equal(t, "won", f.publ.events[0].Result)
	})

	t.Run("override payout kept verbatim", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetBet", mock.Anything, "b1").Return(pendingBet(), nil)
		f.store.On("UpdateBet", mock.Anything, mock.MatchedBy(func(b model.Bet) bool {
			return b.Payout != nil && *b.Payout == 300
		})).Return(nil)

		rr := f.do(http.MethodPatch, "/api/v1/bets/b1/result", dto.SetResultRequest{Result: "won", Payout: model.Float(300)})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("back to pending clears payout", func(t *testing.T) {
		f := newFixture(t)
		won := pendingBet()
		won.Result = model.ResultWon
		won.Payout = model.Float(250)
		f.store.On("GetBet", mock.Anything, "b1").Return(won, nil)
		f.store.On("UpdateBet", mock.Anything, mock.MatchedBy(func(b model.Bet) bool {
			return b.Result == model.ResultPending && b.Payout == nil
		})).Return(nil)

		rr := f.do(http.MethodPatch, "/api/v1/bets/b1/result", dto.SetResultRequest{Result: "pending"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), `"payout"`)
	})

	t.Run("same result is a no-op", func(t *testing.T) {
		f := newFixture(t)
		won := pendingBet()
		won.Result = model.ResultWon
		won.Payout = model.Float(250)
		f.store.On("GetBet", mock.Anything, "b1").Return(won, nil)

		rr := f.do(http.MethodPatch, "/api/v1/bets/b1/result", dto.SetResultRequest{Result: "won"})
		assert.Equal(t, http.StatusOK, rr.Code)
		f.store.AssertNotCalled(t, "UpdateBet", mock.Anything, mock.Anything)
		assert.Empty(t, f.publ.events)
	})

	t.Run("missing bet", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetBet", mock.Anything, "nope").Return(model.Bet{}, store.ErrNotFound)
		rr := f.do(http.MethodPatch, "/api/v1/bets/nope/result", dto.SetResultRequest{Result: "lost"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateBetTrustsPayout(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetBet", mock.Anything, "b1").Return(pendingBet(), nil)
	f.store.On("UpdateBet", mock.Anything, mock.MatchedBy(func(b model.Bet) bool {
		return b.Result == model.ResultWon && b.Payout != nil && *b.Payout == 999 && b.UserID == "u1"
	})).Return(nil)

	rr := f.do(http.MethodPut, "/api/v1/bets/b1", dto.UpdateBetRequest{
		Event: "E", Market: "M", Bookmaker: "Unibet", Stake: 100, Odds: 2.5, Result: "won", Payout: model.Float(999),
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []events.ActivityKind{events.BetUpdated}, f.publ.kinds())
}

func TestListBets(t *testing.T) {
	t.Run("filters from query", func(t *testing.T) {
		f := newFixture(t)
		want := store.BetFilter{UserID: "u1", Result: model.ResultWon, Search: "arsenal", Sort: store.SortStakeDesc, Limit: 10, Offset: 20}
		f.store.On("ListBets", mock.Anything, want).Return(nil, nil)

		rr := f.do(http.MethodGet, "/api/v1/bets?userId=u1&result=WON&search=arsenal&sort=stake-desc&limit=10&offset=20", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("bad result filter", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodGet, "/api/v1/bets?result=cashout", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodGet, "/api/v1/bets?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteBetPublishesOwner(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetBet", mock.Anything, "b1").Return(pendingBet(), nil)
	f.store.On("DeleteBet", mock.Anything, "b1").Return(nil)

	rr := f.do(http.MethodDelete, "/api/v1/bets/b1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, f.publ.events, 1)
	assert.Equal(t, "u1", f.publ.events[0].UserID)
}

func TestUserSummaryIncludesDeposits(t *testing.T) {
	f := newFixture(t)
	won := pendingBet()
	won.Result = model.ResultWon
	f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
	f.store.On("ListBets", mock.Anything, store.BetFilter{UserID: "u1"}).Return([]model.Bet{won}, nil)
	f.store.On("ListTransactions", mock.Anything, "u1").Return([]model.Transaction{
		{Type: model.TransactionDeposit, Amount: 500, Bookmaker: "Bet365", Status: model.TransactionCompleted},
		{Type: model.TransactionWithdrawal, Amount: 200, Bookmaker: "Bet365", Status: model.TransactionPending},
	}, nil)

	rr := f.do(http.MethodGet, "/api/v1/users/u1/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var sum stats.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.WonBets)
	assert.InDelta(t, 150.0, sum.Profit, 1e-9)
	assert.InDelta(t, 500.0, sum.NetDeposits, 1e-9)
	assert.InDelta(t, -350.0, sum.ProfitIncludingTransactions, 1e-9)
}

func TestTransactions(t *testing.T) {
	t.Run("create defaults to completed", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx model.Transaction) bool {
			return tx.Status == model.TransactionCompleted && tx.Type == model.TransactionDeposit && tx.Date.Equal(testNow)
		})).Return(model.Transaction{ID: "t1", UserID: "u1"}, nil)

		rr := f.do(http.MethodPost, "/api/v1/transactions", dto.TransactionRequest{
			UserID: "u1", Type: "deposit", Amount: 100, Bookmaker: "Bet365",
		})
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, []events.ActivityKind{events.TransactionChange}, f.publ.kinds())
	})

	t.Run("invalid type", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodPost, "/api/v1/transactions", dto.TransactionRequest{
			UserID: "u1", Type: "bonus", Amount: 100, Bookmaker: "Bet365",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("list requires user", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodGet, "/api/v1/transactions", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("totals", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListTransactions", mock.Anything, "u1").Return([]model.Transaction{
			{Type: model.TransactionDeposit, Amount: 300, Bookmaker: "Bet365", Status: model.TransactionCompleted},
			{Type: model.TransactionWithdrawal, Amount: 100, Bookmaker: "Bet365", Status: model.TransactionCompleted},
			{Type: model.TransactionDeposit, Amount: 999, Bookmaker: "Bet365", Status: model.TransactionFailed},
		}, nil)

		rr := f.do(http.MethodGet, "/api/v1/transactions/totals?userId=u1", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var got struct {
			Deposits    float64 `json:"deposits"`
			Withdrawals float64 `json:"withdrawals"`
			Balance     float64 `json:"balance"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 300.0, got.Deposits)
		assert.Equal(t, 100.0, got.Withdrawals)
		assert.Equal(t, 200.0, got.Balance)
	})
}

const standardCSV = "Date,Event,Market,Odds,Stake,Result,Payout\n" +
	"2024-01-15,Arsenal vs Chelsea,1X2,2.50,100,won,250\n" +
	"2024-01-16,Liverpool vs City,Over 2.5,1.80,50,lost,0\n"

func TestImportCSV(t *testing.T) {
	t.Run("standard rows are tagged and stored in one batch", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateBets", mock.Anything, mock.MatchedBy(func(bets []model.Bet) bool {
			if len(bets) != 2 {
				return false
			}
			b := bets[0]
			return b.UserID == "u1" && b.Result == model.ResultWon && *b.Payout == 250 &&
				assert.ObjectsAreEqual([]string{"bet365", "csv-import"}, b.Tags) &&
				strings.HasPrefix(b.Notes, "Imported from Bet365 CSV")
		})).Return([]model.Bet{{ID: "a"}, {ID: "b"}}, nil)

		rr := f.do(http.MethodPost, "/api/v1/users/u1/import", standardCSV)
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.ImportResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Imported)
		assert.Equal(t, "standard", string(resp.Dialect))
		assert.Empty(t, resp.Errors)

		require.Len(t, f.publ.events, 1)
		assert.Equal(t, events.BetsImported, f.publ.events[0].Kind)
		assert.Equal(t, 2, f.publ.events[0].Count)
	})

	t.Run("standard default policy aborts on bad row", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)

		rr := f.do(http.MethodPost, "/api/v1/users/u1/import", standardCSV+"2024-01-17,Bad,1X2\n")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "too few columns")
		f.store.AssertNotCalled(t, "CreateBets", mock.Anything, mock.Anything)
	})

	t.Run("collect policy keeps good rows", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateBets", mock.Anything, mock.Anything).Return([]model.Bet{{ID: "a"}, {ID: "b"}}, nil)

		rr := f.do(http.MethodPost, "/api/v1/users/u1/import?policy=collect", standardCSV+"2024-01-17,Bad,1X2\n")
		require.Equal(t, http.StatusCreated, rr.Code)
		var resp dto.ImportResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, 4, resp.Errors[0].Line)
	})

	t.Run("unknown policy", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		rr := f.do(http.MethodPost, "/api/v1/users/u1/import?policy=yolo", standardCSV)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		rr := f.do(http.MethodPost, "/api/v1/users/u1/import", "Date,Event\n")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("extracted unknown result becomes pending with note", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateBets", mock.Anything, mock.MatchedBy(func(bets []model.Bet) bool {
			return len(bets) == 2 &&
				bets[0].Result == model.ResultWon && bets[0].Payout != nil && *bets[0].Payout == 250 &&
				bets[1].Result == model.ResultPending && bets[1].Payout == nil &&
				strings.Contains(bets[1].Notes, `unrecognized result "kontant ut"`)
		})).Return([]model.Bet{{ID: "a"}, {ID: "b"}}, nil)

		body := strings.Join([]string{
			`"",Datum och tid,Spelbekräftelse,Typ,Odds,Evenemang,Resultat,Insats,Utdelning`,
			`"",15/01/2024 18:30:00,PL3109675301I,Singel,Arsenal - 2.50,Arsenal v Chelsea (Match Odds),Vinnande,100 kr,`,
			`"",18/01/2024 12:00:00,PL3109675304I,Singel,Över 2.5 - 1.95,Ajax v PSV (Totalt antal mål),Kontant ut,10 kr,`,
		}, "\n")
		rr := f.do(http.MethodPost, "/api/v1/users/u1/import", body)
		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), `"dialect":"extracted-table"`)
	})
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	won := pendingBet()
	won.Result = model.ResultWon
	f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
	f.store.On("ListBets", mock.Anything, store.BetFilter{UserID: "u1", Sort: store.SortDateDesc}).Return([]model.Bet{won}, nil)

	rr := f.do(http.MethodGet, "/api/v1/users/u1/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "bets-u1-2024-06-01.csv")

	recs, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Alice", recs[1][1])
	assert.Equal(t, "250.00", recs[1][8])
	assert.Equal(t, "150.00", recs[1][9])
}

func TestRestore(t *testing.T) {
	t.Run("bets and transactions are recreated for the route user", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		f.store.On("CreateBets", mock.Anything, mock.MatchedBy(func(bets []model.Bet) bool {
			return len(bets) == 1 && bets[0].ID == "" && bets[0].UserID == "u1"
		})).Return([]model.Bet{{ID: "new"}}, nil)
		f.store.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx model.Transaction) bool {
			return tx.ID == "" && tx.UserID == "u1"
		})).Return(model.Transaction{ID: "t"}, nil)

		body := `{"version":"1.0","bets":[{"id":"old","userId":"other","event":"E","market":"M","bookmaker":"B","stake":10,"odds":2,"result":"lost","payout":0}],
		"transactions":[{"id":"tx","userId":"other","type":"deposit","amount":50,"bookmaker":"B","status":"completed"}]}`
		rr := f.do(http.MethodPost, "/api/v1/users/u1/restore", body)
		require.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"bets":1,"transactions":1}`, rr.Body.String())
	})

	t.Run("unsupported version", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetUser", mock.Anything, "u1").Return(alice, nil)
		rr := f.do(http.MethodPost, "/api/v1/users/u1/restore", `{"version":"2.0","bets":[]}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "unsupported backup version")
	})
}

func TestUsers(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("CreateUser", mock.Anything, model.User{Name: "Alice", Color: "#ff0000"}).Return(alice, nil)
		rr := f.do(http.MethodPost, "/api/v1/users", dto.CreateUserRequest{Name: "Alice", Color: "#ff0000"})
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("bad color", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(http.MethodPost, "/api/v1/users", dto.CreateUserRequest{Name: "Alice", Color: "red"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("DeleteUser", mock.Anything, "u1").Return(nil)
		rr := f.do(http.MethodDelete, "/api/v1/users/u1", nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, []events.ActivityKind{events.UserChanged}, f.publ.kinds())
	})
}
