package store

import (
	"fmt"
	"strings"
)

const betColumns = `id, user_id, event, market, bookmaker, stake, odds, result, payout, currency, tags, notes, created_at, updated_at`

var betOrder = map[string]string{
	SortDateDesc:  "created_at DESC, id",
	SortDateAsc:   "created_at ASC, id",
	SortStakeDesc: "stake DESC, created_at DESC, id",
	SortOddsDesc:  "odds DESC, created_at DESC, id",
}

// listBetsQuery monta o SELECT com placeholders posicionais ($1, $2...)
func listBetsQuery(f BetFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		where = append(where, "user_id = "+arg(f.UserID))
	}
	if f.Result != "" {
		where = append(where, "result = "+arg(string(f.Result)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		where = append(where, fmt.Sprintf("(event ILIKE %[1]s OR market ILIKE %[1]s OR bookmaker ILIKE %[1]s)", p))
	}

	var b strings.Builder
	b.WriteString("SELECT " + betColumns + " FROM bets")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	order, ok := betOrder[f.Sort]
	if !ok {
		order = betOrder[SortDateDesc]
	}
	b.WriteString(" ORDER BY " + order)
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + arg(f.Limit))
	}
	if f.Offset > 0 {
		b.WriteString(" OFFSET " + arg(f.Offset))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
