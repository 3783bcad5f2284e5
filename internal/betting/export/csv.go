// Package export gera os arquivos de exportação (CSV para planilhas e JSON de backup).
// Payout e lucro sempre saem de settlement.Resolve.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/money"
	"github.com/radieske/betting-tracker/internal/betting/settlement"
)

var csvHeader = []string{
	"Date", "User", "Event", "Market", "Stake", "Odds", "Bookmaker",
	"Result", "Payout", "Profit", "Currency", "Notes", "Tags",
}

// WriteCSV escreve uma linha por aposta. Payout fica vazio para apostas pending.
func WriteCSV(w io.Writer, bets []model.Bet, users []model.User) error {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bets {
		s := settlement.Resolve(b)
		payout := ""
		if s.Payout != nil {
			payout = money.Fixed(*s.Payout, 2)
		}
		rec := []string{
			b.CreatedAt.UTC().Format("2006-01-02"),
			names[b.UserID],
			b.Event,
			b.Market,
			money.Fixed(b.Stake, 2),
			money.Fixed(b.Odds, 2),
			b.Bookmaker,
			string(b.Result),
			payout,
			money.Fixed(s.Profit, 2),
			b.Currency,
			b.Notes,
			strings.Join(b.Tags, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s: %w", b.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
