// Package mocks traz um mock testify de store.Store para testes de handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/shared/store"
)

type Store struct {
	mock.Mock
}

var _ store.Store = (*Store)(nil)

func (m *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *Store) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Store) GetBet(ctx context.Context, id string) (model.Bet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Bet), args.Error(1)
}

func (m *Store) ListBets(ctx context.Context, f store.BetFilter) ([]model.Bet, error) {
	args := m.Called(ctx, f)
	bets, _ := args.Get(0).([]model.Bet)
	return bets, args.Error(1)
}

func (m *Store) CreateBet(ctx context.Context, b model.Bet) (model.Bet, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(model.Bet), args.Error(1)
}

func (m *Store) CreateBets(ctx context.Context, bets []model.Bet) ([]model.Bet, error) {
	args := m.Called(ctx, bets)
	out, _ := args.Get(0).([]model.Bet)
	return out, args.Error(1)
}

func (m *Store) UpdateBet(ctx context.Context, b model.Bet) error {
	return m.Called(ctx, b).Error(0)
}

func (m *Store) DeleteBet(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Store) CreateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (m *Store) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (m *Store) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	args := m.Called(ctx, userID)
	txs, _ := args.Get(0).([]model.Transaction)
	return txs, args.Error(1)
}

func (m *Store) UpdateTransaction(ctx context.Context, tx model.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *Store) DeleteTransaction(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
