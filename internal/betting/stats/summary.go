// Package stats agrega uma lista de apostas num resumo para dashboards.
//
// Summarize é pura: não lê relógio quando Options.Now é informado, não guarda
// estado e nunca falha. Divisões por zero viram 0 e somas monetárias são feitas
// em decimal para que o resultado não dependa da ordem de entrada.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/money"
	"github.com/radieske/betting-tracker/internal/betting/settlement"
)

const recentWindow = 10

type Options struct {
	// NetDeposits = depósitos completed - saques completed (ver bankroll.Totals).
	NetDeposits float64
	// Now substitui timestamps ausentes. Zero usa time.Now().
	Now time.Time
	// Location define a fronteira de dia/mês das séries. Nil usa UTC.
	Location *time.Location
}

type Summary struct {
	TotalBets   int `json:"totalBets"`
	SettledBets int `json:"settledBets"`
	WonBets     int `json:"wonBets"`
	LostBets    int `json:"lostBets"`
	VoidBets    int `json:"voidBets"`
	PendingBets int `json:"pendingBets"`

	TotalStaked                 float64 `json:"totalStaked"`
	TotalPayout                 float64 `json:"totalPayout"`
	Profit                      float64 `json:"profit"`
	NetDeposits                 float64 `json:"netDeposits"`
	ProfitIncludingTransactions float64 `json:"profitIncludingTransactions"`
	ROI                         float64 `json:"roi"`
	WinRate                     float64 `json:"winRate"`
	AvgStake                    float64 `json:"avgStake"`
	AvgOdds                     float64 `json:"avgOdds"`
	PendingStake                float64 `json:"pendingStake"`
	PendingPotential            float64 `json:"pendingPotential"`
	RecentWinRate               float64 `json:"recentWinRate"`

	BestWin *model.Bet `json:"bestWin,omitempty"`

	Daily       []DailyPoint     `json:"daily"`
	Monthly     []MonthlyPoint   `json:"monthly"`
	OddsBuckets []OddsBucket     `json:"oddsBuckets"`
	ByBookmaker []BookmakerStats `json:"byBookmaker"`
}

type DailyPoint struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	Profit     float64 `json:"profit"`
	Cumulative float64 `json:"cumulative"`
	Count      int     `json:"count"`
}

type MonthlyPoint struct {
	Month  string  `json:"month"` // YYYY-MM
	Profit float64 `json:"profit"`
	Staked float64 `json:"staked"`
	Won    int     `json:"won"`
	Lost   int     `json:"lost"`
	Count  int     `json:"count"`
}

type BookmakerStats struct {
	Bookmaker string  `json:"bookmaker"`
	Count     int     `json:"count"`
	Staked    float64 `json:"staked"`
	Profit    float64 `json:"profit"`
	ROI       float64 `json:"roi"`
}

// Summarize reduz bets ao resumo. Apostas liquidadas incluem void (conta no
// stake total e na taxa de acerto); o payout total soma apenas as vencidas.
func Summarize(bets []model.Bet, opts Options) Summary {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	s := Summary{TotalBets: len(bets), NetDeposits: opts.NetDeposits}
	var (
		staked    decimal.Decimal
		payout    decimal.Decimal
		oddsSum   decimal.Decimal
		pendStake decimal.Decimal
		pendPot   decimal.Decimal
		settled   []model.Bet
	)

	daily := map[string]*dayAcc{}
	monthly := map[string]*monthAcc{}
	books := map[string]*bookAcc{}
	buckets := newBucketSet()

	for _, b := range bets {
		switch {
		case b.Result == model.ResultPending:
			s.PendingBets++
			pendStake = pendStake.Add(money.Dec(b.Stake))
			pendPot = pendPot.Add(money.Dec(b.Stake).Mul(money.Dec(b.Odds)))
			continue
		case !b.Result.Settled():
			continue
		}

		settled = append(settled, b)
		res := settlement.Resolve(b)
		profit := money.Dec(res.Profit)

		staked = staked.Add(money.Dec(b.Stake))
		oddsSum = oddsSum.Add(money.Dec(b.Odds))
		switch b.Result {
		case model.ResultWon:
			s.WonBets++
			if res.Payout != nil {
				payout = payout.Add(money.Dec(*res.Payout))
			}
			if s.BestWin == nil || betterWin(b, *s.BestWin) {
				bw := b
				s.BestWin = &bw
			}
		case model.ResultLost:
			s.LostBets++
		case model.ResultVoid:
			s.VoidBets++
		}

		at := b.CreatedAt
		if at.IsZero() {
			at = now
		}
		at = at.In(loc)

		dk := at.Format("2006-01-02")
		d := daily[dk]
		if d == nil {
			d = &dayAcc{}
			daily[dk] = d
		}
		d.profit = d.profit.Add(profit)
		d.count++

		mk := at.Format("2006-01")
		m := monthly[mk]
		if m == nil {
			m = &monthAcc{}
			monthly[mk] = m
		}
		m.profit = m.profit.Add(profit)
		m.staked = m.staked.Add(money.Dec(b.Stake))
		m.count++
		switch b.Result {
		case model.ResultWon:
			m.won++
		case model.ResultLost:
			m.lost++
		}

		bk := books[b.Bookmaker]
		if bk == nil {
			bk = &bookAcc{}
			books[b.Bookmaker] = bk
		}
		bk.count++
		bk.staked = bk.staked.Add(money.Dec(b.Stake))
		bk.profit = bk.profit.Add(profit)

		buckets.add(b)
	}

	s.SettledBets = len(settled)
	profit := payout.Sub(staked)

	s.TotalStaked = staked.InexactFloat64()
	s.TotalPayout = payout.InexactFloat64()
	s.Profit = profit.InexactFloat64()
	s.ProfitIncludingTransactions = profit.Sub(money.Dec(opts.NetDeposits)).InexactFloat64()
	s.ROI = money.Pct(profit, staked)
	s.WinRate = money.Ratio(s.WonBets, s.SettledBets)
	s.PendingStake = pendStake.InexactFloat64()
	s.PendingPotential = pendPot.InexactFloat64()
	if n := len(settled); n > 0 {
		nd := decimal.NewFromInt(int64(n))
		s.AvgStake = staked.Div(nd).InexactFloat64()
		s.AvgOdds = oddsSum.Div(nd).InexactFloat64()
	}
	s.RecentWinRate = recentWinRate(settled, now)

	s.Daily = dailySeries(daily)
	s.Monthly = monthlySeries(monthly)
	s.OddsBuckets = buckets.result()
	s.ByBookmaker = bookmakerSeries(books)
	return s
}

type dayAcc struct {
	profit decimal.Decimal
	count  int
}

type monthAcc struct {
	profit, staked   decimal.Decimal
	won, lost, count int
}

type bookAcc struct {
	profit, staked decimal.Decimal
	count          int
}

func dailySeries(m map[string]*dayAcc) []DailyPoint {
	keys := sortedKeys(m)
	out := make([]DailyPoint, 0, len(keys))
	var cum decimal.Decimal
	for _, k := range keys {
		d := m[k]
		cum = cum.Add(d.profit)
		out = append(out, DailyPoint{
			Date:       k,
			Profit:     d.profit.InexactFloat64(),
			Cumulative: cum.InexactFloat64(),
			Count:      d.count,
		})
	}
	return out
}

func monthlySeries(m map[string]*monthAcc) []MonthlyPoint {
	keys := sortedKeys(m)
	out := make([]MonthlyPoint, 0, len(keys))
	for _, k := range keys {
		a := m[k]
		out = append(out, MonthlyPoint{
			Month:  k,
			Profit: a.profit.InexactFloat64(),
			Staked: a.staked.InexactFloat64(),
			Won:    a.won,
			Lost:   a.lost,
			Count:  a.count,
		})
	}
	return out
}

func bookmakerSeries(m map[string]*bookAcc) []BookmakerStats {
	keys := sortedKeys(m)
	out := make([]BookmakerStats, 0, len(keys))
	for _, k := range keys {
		a := m[k]
		out = append(out, BookmakerStats{
			Bookmaker: k,
			Count:     a.count,
			Staked:    a.staked.InexactFloat64(),
			Profit:    a.profit.InexactFloat64(),
			ROI:       money.Pct(a.profit, a.staked),
		})
	}
	return out
}

// recentWinRate considera as últimas apostas liquidadas por data de criação.
func recentWinRate(settled []model.Bet, now time.Time) float64 {
	if len(settled) == 0 {
		return 0
	}
	recent := make([]model.Bet, len(settled))
	copy(recent, settled)
	at := func(b model.Bet) time.Time {
		if b.CreatedAt.IsZero() {
			return now
		}
		return b.CreatedAt
	}
	sort.SliceStable(recent, func(i, j int) bool {
		ti, tj := at(recent[i]), at(recent[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return recent[i].ID < recent[j].ID
	})
	if len(recent) > recentWindow {
		recent = recent[:recentWindow]
	}
	won := 0
	for _, b := range recent {
		if b.Result == model.ResultWon {
			won++
		}
	}
	return money.Ratio(won, len(recent))
}

// betterWin: maior odd; empate por maior stake e depois menor ID.
func betterWin(a, b model.Bet) bool {
	if a.Odds != b.Odds {
		return a.Odds > b.Odds
	}
	if a.Stake != b.Stake {
		return a.Stake > b.Stake
	}
	return a.ID < b.ID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
