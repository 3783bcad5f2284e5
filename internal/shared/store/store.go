// Package store persiste usuários, apostas e transações no Postgres.
// Os serviços dependem das interfaces pequenas abaixo, não de *Postgres.
package store

import (
	"context"
	"errors"

	"github.com/radieske/betting-tracker/internal/betting/model"
)

var ErrNotFound = errors.New("not found")

type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// DeleteUser remove o usuário junto com apostas e transações
	DeleteUser(ctx context.Context, id string) error
}

type BetReader interface {
	GetBet(ctx context.Context, id string) (model.Bet, error)
	ListBets(ctx context.Context, f BetFilter) ([]model.Bet, error)
}

type BetWriter interface {
	CreateBet(ctx context.Context, b model.Bet) (model.Bet, error)
	// CreateBets grava o lote inteiro numa transação (importação)
	CreateBets(ctx context.Context, bets []model.Bet) ([]model.Bet, error)
	UpdateBet(ctx context.Context, b model.Bet) error
	DeleteBet(ctx context.Context, id string) error
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, tx model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type Store interface {
	UserStore
	BetReader
	BetWriter
	TransactionStore
}

// Ordenações aceitas em BetFilter.Sort
const (
	SortDateDesc  = "date-desc"
	SortDateAsc   = "date-asc"
	SortStakeDesc = "stake-desc"
	SortOddsDesc  = "odds-desc"
)

// BetFilter filtra a listagem de apostas. Campos vazios não filtram; Limit 0 = sem limite.
type BetFilter struct {
	UserID string
	Result model.Result
	Search string // event, market ou bookmaker (ILIKE)
	Sort   string
	Limit  int
	Offset int
}
