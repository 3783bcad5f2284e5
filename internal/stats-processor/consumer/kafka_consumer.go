package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/bankroll"
	"github.com/radieske/betting-tracker/internal/betting/leaderboard"
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/stats"
	"github.com/radieske/betting-tracker/internal/shared/kafka"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/stats-processor/pubsub"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

var errMissingUser = errors.New("bet activity without userId")

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Source é a leitura do banco necessária para recalcular tudo
type Source interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListBets(ctx context.Context, f store.BetFilter) ([]model.Bet, error)
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

type Cache interface {
	SetLeaderboard(ctx context.Context, entries []leaderboard.Entry) error
	SetSummary(ctx context.Context, userID string, s stats.Summary) error
	DeleteSummary(ctx context.Context, userID string) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Processor consome bet_activity e recalcula leaderboard e resumo do usuário afetado.
// Mensagens que não decodificam vão para a DLQ; falhas de banco/cache só geram log,
// porque o próximo evento recalcula o estado completo.
type Processor struct {
	Log         *zap.Logger
	Reader      MessageReader
	DLQ         kafka.MessageWriter
	Source      Source
	Cache       Cache
	Broadcaster Broadcaster
	Channel     string

	ProvisionalThreshold int
	Location             *time.Location
	Now                  func() time.Time

	OnConsumed   func()       // métricas (counter++)
	OnRecomputed func()       // métricas
	OnError      func(string) // métricas por fase
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem; nunca devolve erro para não travar o consumer group
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	ev, err := decode(m.Value)
	if err != nil {
		p.Log.Warn("invalid message, sending to dlq", zap.Int64("offset", m.Offset), zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m)
		return
	}
	if err := p.Recompute(ctx, ev.UserID); err != nil {
		p.Log.Warn("recompute failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("userId", ev.UserID),
			zap.Error(err),
		)
		return
	}
	if p.OnRecomputed != nil {
		p.OnRecomputed()
	}
}

func decode(b []byte) (events.BetActivity, error) {
	var ev events.BetActivity
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, err
	}
	if ev.UserID == "" {
		return ev, errMissingUser
	}
	return ev, nil
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	if err := kafka.WriteRaw(ctx, p.DLQ, string(m.Key), m.Value); err != nil {
		p.Log.Error("dlq publish failed", zap.Error(err))
		p.fail("dlq")
	}
}

// Recompute refaz o leaderboard inteiro e, se userID não for vazio, o resumo desse usuário.
// Usuário inexistente (apagado) tem o resumo removido do cache.
func (p *Processor) Recompute(ctx context.Context, userID string) error {
	users, err := p.Source.ListUsers(ctx)
	if err != nil {
		p.fail("db")
		return fmt.Errorf("list users: %w", err)
	}
	bets, err := p.Source.ListBets(ctx, store.BetFilter{})
	if err != nil {
		p.fail("db")
		return fmt.Errorf("list bets: %w", err)
	}

	entries := leaderboard.Rank(users, bets, leaderboard.Options{ProvisionalThreshold: p.ProvisionalThreshold})
	if err := p.Cache.SetLeaderboard(ctx, entries); err != nil {
		p.Log.Warn("redis set leaderboard failed", zap.Error(err))
		p.fail("cache")
	}
	p.broadcast(ctx, events.TopicLeaderboard, entries)

	if userID == "" {
		return nil
	}
	if !hasUser(users, userID) {
		if err := p.Cache.DeleteSummary(ctx, userID); err != nil {
			p.Log.Warn("redis delete summary failed", zap.String("userId", userID), zap.Error(err))
			p.fail("cache")
		}
		return nil
	}

	txs, err := p.Source.ListTransactions(ctx, userID)
	if err != nil {
		p.fail("db")
		return fmt.Errorf("list transactions: %w", err)
	}
	sum := stats.Summarize(userBets(bets, userID), stats.Options{
		NetDeposits: bankroll.Totalize(txs).NetDeposits(),
		Now:         p.now(),
		Location:    p.Location,
	})
	if err := p.Cache.SetSummary(ctx, userID, sum); err != nil {
		p.Log.Warn("redis set summary failed", zap.String("userId", userID), zap.Error(err))
		p.fail("cache")
	}
	p.broadcast(ctx, events.SummaryTopic(userID), sum)
	return nil
}

func (p *Processor) broadcast(ctx context.Context, topic string, v any) {
	if p.Broadcaster == nil {
		return
	}
	b, err := pubsub.Envelope(topic, v)
	if err != nil {
		p.Log.Warn("ws envelope failed", zap.String("topic", topic), zap.Error(err))
		p.fail("broadcast")
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Publish(pctx, p.Channel, b); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.String("topic", topic), zap.Error(err))
		p.fail("broadcast")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func hasUser(users []model.User, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func userBets(bets []model.Bet, userID string) []model.Bet {
	var out []model.Bet
	for _, b := range bets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}
