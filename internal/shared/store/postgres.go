package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/betting-tracker/internal/betting/model"
)

//go:embed schema.sql
var schema string

// Postgres implementa Store sobre database/sql + lib/pq
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db, now: time.Now} }

// EnsureSchema cria as tabelas se ainda não existirem
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type scanner interface {
	Scan(dest ...any) error
}

// ---- users ----

func (p *Postgres) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = p.now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, name, color, created_at) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Name, u.Color, u.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Color, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, color, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Color, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteUser apaga apostas, transações e o usuário na mesma transação
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bets WHERE user_id=$1`, id); err != nil {
		return fmt.Errorf("delete user bets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id=$1`, id); err != nil {
		return fmt.Errorf("delete user transactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ---- bets ----

func scanBet(s scanner) (model.Bet, error) {
	var (
		b      model.Bet
		result string
		payout sql.NullFloat64
		tags   pq.StringArray
	)
	err := s.Scan(&b.ID, &b.UserID, &b.Event, &b.Market, &b.Bookmaker, &b.Stake, &b.Odds,
		&result, &payout, &b.Currency, &tags, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Bet{}, err
	}
	b.Result = model.Result(result)
	if payout.Valid {
		b.Payout = model.Float(payout.Float64)
	}
	b.Tags = []string(tags)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b, nil
}

func (p *Postgres) prepareBet(b model.Bet) model.Bet {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := p.now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertBet(ctx context.Context, e execer, b model.Bet) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO bets (`+betColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.ID, b.UserID, b.Event, b.Market, b.Bookmaker, b.Stake, b.Odds,
		string(b.Result), nullFloat(b.Payout), b.Currency, pq.Array(b.Tags), b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (p *Postgres) CreateBet(ctx context.Context, b model.Bet) (model.Bet, error) {
	b = p.prepareBet(b)
	if err := insertBet(ctx, p.db, b); err != nil {
		return model.Bet{}, fmt.Errorf("insert bet: %w", err)
	}
	return b, nil
}

func (p *Postgres) CreateBets(ctx context.Context, bets []model.Bet) ([]model.Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]model.Bet, 0, len(bets))
	for i, b := range bets {
		b = p.prepareBet(b)
		if err := insertBet(ctx, tx, b); err != nil {
			return nil, fmt.Errorf("insert bet %d: %w", i, err)
		}
		out = append(out, b)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) GetBet(ctx context.Context, id string) (model.Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `SELECT `+betColumns+` FROM bets WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bet{}, ErrNotFound
	}
	if err != nil {
		return model.Bet{}, fmt.Errorf("get bet: %w", err)
	}
	return b, nil
}

func (p *Postgres) ListBets(ctx context.Context, f BetFilter) ([]model.Bet, error) {
	q, args := listBetsQuery(f)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	out := []model.Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBet grava os campos mutáveis; created_at e user_id não mudam
func (p *Postgres) UpdateBet(ctx context.Context, b model.Bet) error {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = p.now().UTC()
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET
		  event=$2, market=$3, bookmaker=$4, stake=$5, odds=$6, result=$7,
		  payout=$8, currency=$9, tags=$10, notes=$11, updated_at=$12
		WHERE id=$1`,
		b.ID, b.Event, b.Market, b.Bookmaker, b.Stake, b.Odds, string(b.Result),
		nullFloat(b.Payout), b.Currency, pq.Array(b.Tags), b.Notes, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteBet(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM bets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- transactions ----

const txColumns = `id, user_id, type, amount, bookmaker, date, status, method, notes, category, tags, created_at, updated_at`

func scanTransaction(s scanner) (model.Transaction, error) {
	var (
		t           model.Transaction
		typ, status string
		tags        pq.StringArray
	)
	err := s.Scan(&t.ID, &t.UserID, &typ, &t.Amount, &t.Bookmaker, &t.Date, &status,
		&t.Method, &t.Notes, &t.Category, &tags, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	t.Type = model.TransactionType(typ)
	t.Status = model.TransactionStatus(status)
	t.Tags = []string(tags)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

func (p *Postgres) CreateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := p.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		t.ID, t.UserID, string(t.Type), t.Amount, t.Bookmaker, t.Date, string(t.Status),
		t.Method, t.Notes, t.Category, pq.Array(t.Tags), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (p *Postgres) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	t, err := scanTransaction(p.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (p *Postgres) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id=$1 ORDER BY date DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE transactions SET
		  type=$2, amount=$3, bookmaker=$4, date=$5, status=$6,
		  method=$7, notes=$8, category=$9, tags=$10, updated_at=$11
		WHERE id=$1`,
		t.ID, string(t.Type), t.Amount, t.Bookmaker, t.Date, string(t.Status),
		t.Method, t.Notes, t.Category, pq.Array(t.Tags), p.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteTransaction(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
