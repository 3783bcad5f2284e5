// Package bankroll soma depósitos e saques de um usuário.
package bankroll

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/money"
)

type BookmakerTotals struct {
	Bookmaker   string  `json:"bookmaker"`
	Deposits    float64 `json:"deposits"`
	Withdrawals float64 `json:"withdrawals"`
	Balance     float64 `json:"balance"`
}

type Totals struct {
	Deposits    float64           `json:"deposits"`
	Withdrawals float64           `json:"withdrawals"`
	Balance     float64           `json:"balance"`
	ByBookmaker []BookmakerTotals `json:"byBookmaker"`
}

// NetDeposits é o valor esperado por stats.Options.NetDeposits.
func (t Totals) NetDeposits() float64 { return t.Balance }

type pair struct{ in, out decimal.Decimal }

// Totalize considera apenas transações completed.
func Totalize(txs []model.Transaction) Totals {
	var all pair
	books := map[string]*pair{}

	for _, tx := range txs {
		if tx.Status != model.TransactionCompleted {
			continue
		}
		p := books[tx.Bookmaker]
		if p == nil {
			p = &pair{}
			books[tx.Bookmaker] = p
		}
		amt := money.Dec(tx.Amount)
		switch tx.Type {
		case model.TransactionDeposit:
			all.in = all.in.Add(amt)
			p.in = p.in.Add(amt)
		case model.TransactionWithdrawal:
			all.out = all.out.Add(amt)
			p.out = p.out.Add(amt)
		}
	}

	names := make([]string, 0, len(books))
	for k := range books {
		names = append(names, k)
	}
	sort.Strings(names)

	t := Totals{
		Deposits:    all.in.InexactFloat64(),
		Withdrawals: all.out.InexactFloat64(),
		Balance:     all.in.Sub(all.out).InexactFloat64(),
		ByBookmaker: make([]BookmakerTotals, 0, len(names)),
	}
	for _, n := range names {
		p := books[n]
		t.ByBookmaker = append(t.ByBookmaker, BookmakerTotals{
			Bookmaker:   n,
			Deposits:    p.in.InexactFloat64(),
			Withdrawals: p.out.InexactFloat64(),
			Balance:     p.in.Sub(p.out).InexactFloat64(),
		})
	}
	return t
}
