package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/radieske/betting-tracker/internal/betting/model"
)

const Version = "1.0"

var (
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrInvalidBet         = errors.New("invalid bet in backup")
)

// Document é o backup completo de um usuário.
type Document struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exportedAt"`
	User         *model.User         `json:"user,omitempty"`
	Users        []model.User        `json:"users,omitempty"`
	Bets         []model.Bet         `json:"bets"`
	Transactions []model.Transaction `json:"transactions,omitempty"`
}

func NewDocument(user *model.User, bets []model.Bet, txs []model.Transaction, now time.Time) Document {
	if bets == nil {
		bets = []model.Bet{}
	}
	return Document{
		Version:      Version,
		ExportedAt:   now.UTC(),
		User:         user,
		Bets:         bets,
		Transactions: txs,
	}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON lê um backup e rejeita versões desconhecidas e apostas com resultado fora do enum.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	for i, b := range doc.Bets {
		if !b.Result.Valid() {
			return Document{}, fmt.Errorf("%w: bets[%d] result %q", ErrInvalidBet, i, b.Result)
		}
		if b.Stake <= 0 || b.Odds <= 0 {
			return Document{}, fmt.Errorf("%w: bets[%d] stake/odds must be positive", ErrInvalidBet, i)
		}
	}
	return doc, nil
}
