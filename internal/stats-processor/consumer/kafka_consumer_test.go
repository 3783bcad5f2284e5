package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/leaderboard"
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/stats"
	"github.com/radieske/betting-tracker/internal/shared/kafka"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/shared/store/mocks"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

type fakeCache struct {
	board     []leaderboard.Entry
	summaries map[string]stats.Summary
	deleted   []string
}

func (c *fakeCache) SetLeaderboard(_ context.Context, e []leaderboard.Entry) error {
	c.board = e
	return nil
}

func (c *fakeCache) SetSummary(_ context.Context, userID string, s stats.Summary) error {
	if c.summaries == nil {
		c.summaries = map[string]stats.Summary{}
	}
	c.summaries[userID] = s
	return nil
}

func (c *fakeCache) DeleteSummary(_ context.Context, userID string) error {
	c.deleted = append(c.deleted, userID)
	return nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	topics []string
}

func (b *fakeBroadcaster) Publish(_ context.Context, channel string, payload []byte) error {
	var upd events.Update
	if err := json.Unmarshal(payload, &upd); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, channel+"|"+upd.Topic)
	return nil
}

type fakeWriter struct{ msgs []kafka.Message }

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// fakeReader entrega as mensagens e cancela o contexto quando acabam
type fakeReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

var (
	now   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	users = []model.User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}
	bets  = []model.Bet{
		{ID: "b1", UserID: "u1", Stake: 100, Odds: 2, Result: model.ResultWon, CreatedAt: now},
		{ID: "b2", UserID: "u2", Stake: 100, Odds: 2, Result: model.ResultLost, CreatedAt: now},
		{ID: "b3", UserID: "u1", Stake: 50, Odds: 3, Result: model.ResultPending, CreatedAt: now},
	}
)

type setup struct {
	src   *mocks.Store
	cache *fakeCache
	bc    *fakeBroadcaster
	dlq   *fakeWriter
	p     *Processor
	stage []string
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	s := &setup{src: new(mocks.Store), cache: &fakeCache{}, bc: &fakeBroadcaster{}, dlq: &fakeWriter{}}
	s.p = &Processor{
		Log:         zap.NewNop(),
		DLQ:         s.dlq,
		Source:      s.src,
		Cache:       s.cache,
		Broadcaster: s.bc,
		Channel:     "tracker_updates_broadcast",
		Now:         func() time.Time { return now },
		OnError:     func(stage string) { s.stage = append(s.stage, stage) },
	}
	t.Cleanup(func() { s.src.AssertExpectations(t) })
	return s
}

func activity(t *testing.T, e events.BetActivity) kafka.Message {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(e.UserID), Value: b}
}

func TestHandleRecomputesLeaderboardAndSummary(t *testing.T) {
	s := newSetup(t)
	s.src.On("ListUsers", mock.Anything).Return(users, nil)
	s.src.On("ListBets", mock.Anything, store.BetFilter{}).Return(bets, nil)
	s.src.On("ListTransactions", mock.Anything, "u1").Return([]model.Transaction{
		{Type: model.TransactionDeposit, Amount: 1000, Status: model.TransactionCompleted, Bookmaker: "Bet365"},
	}, nil)

	s.p.Handle(context.Background(), activity(t, events.BetActivity{Kind: events.BetResultChanged, UserID: "u1", BetID: "b1"}))

	require.Len(t, s.cache.board, 2)
	assert.Equal(t, "u1", s.cache.board[0].UserID)
	assert.Equal(t, 1, s.cache.board[0].Rank)

	sum, ok := s.cache.summaries["u1"]
	require.True(t, ok)
	assert.Equal(t, 2, sum.TotalBets)
	assert.Equal(t, 1, sum.PendingBets)
	assert.InDelta(t, 100.0, sum.Profit, 1e-9)
	assert.InDelta(t, 1000.0, sum.NetDeposits, 1e-9)

	assert.Equal(t, []string{
		"tracker_updates_broadcast|leaderboard",
		"tracker_updates_broadcast|summary:u1",
	}, s.bc.topics)
	assert.Empty(t, s.stage)
}

func TestHandleDeletedUserDropsSummary(t *testing.T) {
	s := newSetup(t)
	s.src.On("ListUsers", mock.Anything).Return(users[1:], nil)
	s.src.On("ListBets", mock.Anything, store.BetFilter{}).Return(bets[1:2], nil)

	s.p.Handle(context.Background(), activity(t, events.BetActivity{Kind: events.UserChanged, UserID: "u1"}))

	assert.Equal(t, []string{"u1"}, s.cache.deleted)
	assert.Len(t, s.cache.board, 1)
	s.src.AssertNotCalled(t, "ListTransactions", mock.Anything, mock.Anything)
}

func TestHandleInvalidMessageGoesToDLQ(t *testing.T) {
	s := newSetup(t)

	s.p.Handle(context.Background(), kafka.Message{Key: []byte("k"), Value: []byte("{not json")})
	s.p.Handle(context.Background(), activity(t, events.BetActivity{Kind: events.BetCreated}))

	require.Len(t, s.dlq.msgs, 2)
	assert.Equal(t, "{not json", string(s.dlq.msgs[0].Value))
	assert.Equal(t, []string{"decode", "decode"}, s.stage)
	s.src.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestHandleStoreFailureCountsStage(t *testing.T) {
	s := newSetup(t)
	s.src.On("ListUsers", mock.Anything).Return(nil, errors.New("db down"))

	s.p.Handle(context.Background(), activity(t, events.BetActivity{Kind: events.BetCreated, UserID: "u1"}))

	assert.Equal(t, []string{"db"}, s.stage)
	assert.Nil(t, s.cache.board)
	assert.Empty(t, s.dlq.msgs)
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	s := newSetup(t)
	s.src.On("ListUsers", mock.Anything).Return(users, nil)
	s.src.On("ListBets", mock.Anything, store.BetFilter{}).Return(bets, nil)
	s.src.On("ListTransactions", mock.Anything, mock.Anything).Return(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.p.Reader = &fakeReader{cancel: cancel, msgs: []kafka.Message{
		activity(t, events.BetActivity{Kind: events.BetCreated, UserID: "u1"}),
		activity(t, events.BetActivity{Kind: events.BetCreated, UserID: "u2"}),
	}}
	consumed, recomputed := 0, 0
	s.p.OnConsumed = func() { consumed++ }
	s.p.OnRecomputed = func() { recomputed++ }

	err := s.p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 2, recomputed)
	assert.Contains(t, s.cache.summaries, "u2")
}
