package model

import "time"

// MinOdds é a menor odd decimal aceita na criação de uma aposta.
const MinOdds = 1.01

// Bet é a entidade central do tracker.
// Payout nil significa "sem payout" (pending); 0 é o payout válido de uma aposta perdida.
type Bet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Event     string    `json:"event"`
	Market    string    `json:"market"`
	Bookmaker string    `json:"bookmaker"`
	Stake     float64   `json:"stake"`
	Odds      float64   `json:"odds"`
	Result    Result    `json:"result"`
	Payout    *float64  `json:"payout,omitempty"`
	Currency  string    `json:"currency"`
	Tags      []string  `json:"tags"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction é um depósito ou saque numa casa de apostas.
// Só transações completed entram nos totais de banca.
type Transaction struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      TransactionType   `json:"type"`
	Amount    float64           `json:"amount"`
	Bookmaker string            `json:"bookmaker"`
	Date      time.Time         `json:"date"`
	Status    TransactionStatus `json:"status"`
	Method    string            `json:"method,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Category  string            `json:"category,omitempty"`
	Tags      []string          `json:"tags"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Float devolve um ponteiro para v; usado nos campos opcionais.
func Float(v float64) *float64 { return &v }
