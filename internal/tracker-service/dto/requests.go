package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate aplica as tags `validate` de qualquer request deste pacote
func Validate(v any) error { return validate.Struct(v) }

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// CreateBetRequest: result ausente = pending; payout só é aceito junto com um resultado liquidado
type CreateBetRequest struct {
	UserID    string     `json:"userId" validate:"required"`
	Event     string     `json:"event" validate:"required"`
	Market    string     `json:"market" validate:"required"`
	Bookmaker string     `json:"bookmaker" validate:"required"`
	Stake     float64    `json:"stake" validate:"gt=0"`
	Odds      float64    `json:"odds" validate:"gte=1.01"`
	Result    string     `json:"result" validate:"omitempty,oneof=pending won lost void"`
	Payout    *float64   `json:"payout" validate:"omitempty,gte=0"`
	Currency  string     `json:"currency" validate:"omitempty,len=3"`
	Tags      []string   `json:"tags"`
	Notes     string     `json:"notes"`
	CreatedAt *time.Time `json:"createdAt"`
}

// UpdateBetRequest é uma edição completa; os valores (inclusive payout) são gravados como vieram
type UpdateBetRequest struct {
	Event     string   `json:"event" validate:"required"`
	Market    string   `json:"market" validate:"required"`
	Bookmaker string   `json:"bookmaker" validate:"required"`
	Stake     float64  `json:"stake" validate:"gt=0"`
	Odds      float64  `json:"odds" validate:"gte=1.01"`
	Result    string   `json:"result" validate:"required,oneof=pending won lost void"`
	Payout    *float64 `json:"payout" validate:"omitempty,gte=0"`
	Currency  string   `json:"currency" validate:"omitempty,len=3"`
	Tags      []string `json:"tags"`
	Notes     string   `json:"notes"`
}

type SetResultRequest struct {
	Result string   `json:"result" validate:"required,oneof=pending won lost void"`
	Payout *float64 `json:"payout" validate:"omitempty,gte=0"`
}

type TransactionRequest struct {
	UserID    string     `json:"userId" validate:"required"`
	Type      string     `json:"type" validate:"required,oneof=deposit withdrawal"`
	Amount    float64    `json:"amount" validate:"gt=0"`
	Bookmaker string     `json:"bookmaker" validate:"required"`
	Date      *time.Time `json:"date"`
	Status    string     `json:"status" validate:"omitempty,oneof=completed pending failed"`
	Method    string     `json:"method"`
	Notes     string     `json:"notes"`
	Category  string     `json:"category"`
	Tags      []string   `json:"tags"`
}
