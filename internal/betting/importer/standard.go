package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/radieske/betting-tracker/internal/betting/model"
)

// parseStandard lê Date,Event,Market,Odds,Stake,Result[,Payout].
// A primeira linha não vazia é o cabeçalho. Payout ausente continua ausente.
func parseStandard(lines []line, opts Options) ([]Row, []*RowError, error) {
	var (
		rows   []Row
		errs   []*RowError
		header = true
		n      int
	)
	for _, l := range lines {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		n++

		row, err := standardRow(l, n, opts)
		if err != nil {
			var ferr error
			if errs, ferr = collect(errs, &RowError{Line: l.no, Raw: l.text, Err: err}, DialectStandard, opts); ferr != nil {
				return nil, nil, ferr
			}
			continue
		}
		rows = append(rows, row)
	}
	return rows, errs, nil
}

var nonAmount = regexp.MustCompile(`[^\d.,]`)

func standardRow(l line, n int, opts Options) (Row, error) {
	cols := splitFields(l.text)
	if len(cols) < 6 {
		return Row{}, fmt.Errorf("%w (%d)", ErrTooFewColumns, len(cols))
	}

	row := Row{
		Line:      l.no,
		PlacedAt:  parseStandardDate(cols[0], opts.Now),
		Event:     cols[1],
		Market:    cols[2],
		Result:    standardResult(cols[5]),
		Bookmaker: opts.Bookmaker,
		Currency:  detectCurrency(cols[4], opts.DefaultCurrency),
	}
	if row.Event == "" {
		row.Event = fmt.Sprintf("Unknown Event %d", n)
	}
	if row.Market == "" {
		row.Market = "Unknown Market"
	}

	if v, ok := leadingFloat(strings.Replace(cols[3], ",", ".", 1)); ok && v != 0 {
		row.Odds = v
	} else {
		row.Odds = 1.0
	}
	row.Stake, _ = parseAmount(cols[4])
	if len(cols) > 6 && cols[6] != "" {
		if v, ok := parseAmount(cols[6]); ok {
			row.Payout = model.Float(v)
		}
	}

	if row.Odds <= 0 || row.Stake <= 0 {
		return Row{}, ErrInvalidAmount
	}
	return row, nil
}

// parseAmount remove tudo que não é dígito, ponto ou vírgula e troca a primeira vírgula por ponto.
func parseAmount(s string) (float64, bool) {
	clean := strings.Replace(nonAmount.ReplaceAllString(s, ""), ",", ".", 1)
	return leadingFloat(clean)
}

var dateFormats = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "2006-01-02"},
	{regexp.MustCompile(`\d{2}/\d{2}/\d{4}`), "02/01/2006"},
	{regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), "02-01-2006"},
}

// parseStandardDate tenta os formatos em ordem; a primeira data válida vence.
// Sem data reconhecível usa now().
func parseStandardDate(s string, now func() time.Time) time.Time {
	for _, f := range dateFormats {
		m := f.re.FindString(s)
		if m == "" {
			continue
		}
		if t, err := time.ParseInLocation(f.layout, m, time.UTC); err == nil {
			return t
		}
	}
	return now()
}

type resultWords struct {
	result model.Result
	words  []string
}

var standardResults = []resultWords{
	{model.ResultWon, []string{"won", "win", "vunnen"}},
	{model.ResultLost, []string{"lost", "lose", "förlorad"}},
	{model.ResultVoid, []string{"void", "avbruten", "cancelled"}},
	{model.ResultPending, []string{"pending", "open", "pågående"}},
}

// standardResult mapeia texto livre; sem correspondência vira pending.
func standardResult(s string) model.Result {
	if r, ok := matchResult(s, standardResults); ok {
		return r
	}
	return model.ResultPending
}

func matchResult(s string, table []resultWords) (model.Result, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return "", false
	}
	for _, e := range table {
		for _, w := range e.words {
			if strings.Contains(lower, w) {
				return e.result, true
			}
		}
	}
	return "", false
}

var currencies = []struct {
	code    string
	markers []string
}{
	{"EUR", []string{"€", "EUR"}},
	{"USD", []string{"$", "USD"}},
	{"GBP", []string{"£", "GBP"}},
	{"SEK", []string{"kr", "SEK"}},
	{"NOK", []string{"NOK"}},
	{"DKK", []string{"DKK"}},
}

func detectCurrency(s, def string) string {
	for _, c := range currencies {
		for _, m := range c.markers {
			if strings.Contains(s, m) {
				return c.code
			}
		}
	}
	return def
}
