// Package leaderboard classifica usuários pelo desempenho das apostas.
package leaderboard

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/money"
	"github.com/radieske/betting-tracker/internal/betting/settlement"
)

const DefaultProvisionalThreshold = 5

type Options struct {
	// Usuários com menos apostas liquidadas que isso ficam provisórios. 0 usa o default.
	ProvisionalThreshold int
}

type Entry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	Name          string  `json:"name"`
	Color         string  `json:"color"`
	TotalStake    float64 `json:"totalStake"`
	TotalPayout   float64 `json:"totalPayout"`
	NetProfit     float64 `json:"netProfit"`
	ROI           float64 `json:"roi"`
	WinRate       float64 `json:"winRate"`
	TotalBets     int     `json:"totalBets"`
	SettledBets   int     `json:"settledBets"`
	IsProvisional bool    `json:"isProvisional"`
}

type acc struct {
	stake, payout decimal.Decimal
	won, settled  int
	total         int
}

// Rank monta uma entrada por usuário (inclusive sem apostas) e ordena por
// roi desc, lucro desc, total de apostas desc, nome asc (sueco) e userId asc.
// Aqui "liquidada" é só won ou lost; void conta apenas em TotalBets.
// Apostas de usuários desconhecidos são ignoradas.
func Rank(users []model.User, bets []model.Bet, opts Options) []Entry {
	threshold := opts.ProvisionalThreshold
	if threshold <= 0 {
		threshold = DefaultProvisionalThreshold
	}

	byUser := make(map[string]*acc, len(users))
	for _, u := range users {
		byUser[u.ID] = &acc{}
	}

	for _, b := range bets {
		a, ok := byUser[b.UserID]
		if !ok {
			continue
		}
		a.total++
		if b.Result != model.ResultWon && b.Result != model.ResultLost {
			continue
		}
		a.settled++
		a.stake = a.stake.Add(money.Dec(b.Stake))
		if p := settlement.Resolve(b).Payout; p != nil {
			a.payout = a.payout.Add(money.Dec(*p))
		}
		if b.Result == model.ResultWon {
			a.won++
		}
	}

	out := make([]Entry, 0, len(users))
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true

		a := byUser[u.ID]
		net := a.payout.Sub(a.stake)
		e := Entry{
			UserID:        u.ID,
			Name:          u.Name,
			Color:         u.Color,
			TotalStake:    a.stake.InexactFloat64(),
			TotalPayout:   a.payout.InexactFloat64(),
			NetProfit:     net.InexactFloat64(),
			TotalBets:     a.total,
			SettledBets:   a.settled,
			IsProvisional: a.settled < threshold,
		}
		e.ROI = money.Pct(net, a.stake)
		e.WinRate = money.Ratio(a.won, a.settled)
		out = append(out, e)
	}

	// collate.Collator não é seguro para uso concorrente
	col := collate.New(language.Swedish)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ROI != b.ROI {
			return a.ROI > b.ROI
		}
		if a.NetProfit != b.NetProfit {
			return a.NetProfit > b.NetProfit
		}
		if a.TotalBets != b.TotalBets {
			return a.TotalBets > b.TotalBets
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.UserID < b.UserID
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
