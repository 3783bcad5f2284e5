package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/money"
	"github.com/radieske/betting-tracker/internal/betting/settlement"
)

// ExtractedRow é uma linha do extrato já limpa, ainda em texto.
// Odds vem com 2 casas ("2.50"); Stake/Payout vazios quando ilegíveis.
// Result é won|lost|void|pending, o texto original em minúsculas, ou vazio.
type ExtractedRow struct {
	Line            int    `json:"line"`
	Date            string `json:"date"` // YYYY-MM-DD
	Match           string `json:"match"`
	MarketSelection string `json:"marketSelection"`
	Odds            string `json:"odds"`
	Stake           string `json:"stake"`
	Result          string `json:"result"`
	Payout          string `json:"payout"`
}

// ConvertExtractedTable limpa as linhas de um extrato de 9 colunas:
// "",data,confirmação,tipo,odds/seleção,evento,resultado,stake,payout
// Linhas de cabeçalho e de formatação da tabela são ignoradas sem erro.
func ConvertExtractedTable(text string, opts Options) ([]ExtractedRow, []*RowError, error) {
	return convertExtracted(splitLines(text), opts.withDefaults())
}

func convertExtracted(lines []line, opts Options) ([]ExtractedRow, []*RowError, error) {
	var (
		out  []ExtractedRow
		errs []*RowError
	)
	for _, rec := range joinRecords(lines) {
		if strings.TrimSpace(rec.text) == "" ||
			strings.Contains(rec.text, "Datum och tid") ||
			strings.Contains(rec.text, "Spelbekräftelse") {
			continue
		}

		if rec.unclosed && recordStart.MatchString(rec.text) {
			var ferr error
			re := &RowError{Line: rec.no, Raw: rec.text, Err: ErrUnclosedQuote}
			if errs, ferr = collect(errs, re, DialectExtracted, opts); ferr != nil {
				return nil, nil, ferr
			}
			continue
		}

		row, skip, err := extractedRow(rec)
		if skip {
			continue
		}
		if err != nil {
			var ferr error
			if errs, ferr = collect(errs, &RowError{Line: rec.no, Raw: rec.text, Err: err}, DialectExtracted, opts); ferr != nil {
				return nil, nil, ferr
			}
			continue
		}
		out = append(out, row)
	}
	return out, errs, nil
}

func extractedRow(rec line) (ExtractedRow, bool, error) {
	f := splitFields(rec.text)
	if len(f) < 8 {
		return ExtractedRow{}, true, nil
	}
	date, oddsSel, event, result, stake := f[1], f[4], f[5], f[6], f[7]
	payout := ""
	if len(f) > 8 {
		payout = f[8]
	}
	if date == "" || event == "" || oddsSel == "" || stake == "" {
		return ExtractedRow{}, true, nil
	}

	d, err := extractedDate(date)
	if err != nil {
		return ExtractedRow{}, false, err
	}
	odds, err := extractOdds(oddsSel)
	if err != nil {
		return ExtractedRow{}, false, err
	}

	row := ExtractedRow{
		Line:            rec.no,
		Date:            d,
		Match:           extractMatch(event),
		MarketSelection: extractMarketSelection(oddsSel, event),
		Odds:            odds,
		Stake:           cleanAmount(stake),
		Result:          extractedResult(result),
		Payout:          cleanAmount(payout),
	}
	if row.Payout == "" && strings.TrimSpace(result) != "" {
		row.Payout = backfillPayout(row.Stake, row.Odds, row.Result)
	}
	return row, false, nil
}

var dayMonthYear = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)

func extractedDate(s string) (string, error) {
	m := dayMonthYear.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d := m[3] + "-" + m[2] + "-" + m[1]
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// extractMatch: texto antes do primeiro "(", com " v " virando " vs ".
func extractMatch(event string) string {
	before, _, _ := strings.Cut(collapseSpace(event), "(")
	return strings.ReplaceAll(strings.TrimSpace(before), " v ", " vs ")
}

var (
	firstParens = regexp.MustCompile(`\(([^)]+)\)`)
	oddsSuffix  = regexp.MustCompile(` - ([\d,]+\.?\d*)$`)
)

func extractMarketSelection(oddsSel, event string) string {
	cleanOdds := collapseSpace(oddsSel)

	market := ""
	if m := firstParens.FindStringSubmatch(collapseSpace(event)); m != nil {
		market = m[1]
	}
	selection := oddsSuffix.ReplaceAllString(cleanOdds, "")

	switch {
	case market != "" && selection != "":
		return market + " - " + selection
	case selection != "":
		return selection
	case market != "":
		return market
	}
	return cleanOdds
}

func extractOdds(oddsSel string) (string, error) {
	m := oddsSuffix.FindStringSubmatch(collapseSpace(oddsSel))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingOdds, oddsSel)
	}
	v, ok := leadingFloat(strings.Replace(m[1], ",", ".", 1))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingOdds, oddsSel)
	}
	return money.Fixed(v, 2), nil
}

var (
	krSuffix  = regexp.MustCompile(`\s*kr\s*`)
	digitsRun = regexp.MustCompile(`[\d.]+`)
)

// cleanAmount: "1 234,50 kr" -> "1234.5". Vazio quando não há número.
func cleanAmount(s string) string {
	c := strings.ReplaceAll(s, `"`, "")
	c = krSuffix.ReplaceAllString(c, "")
	c = whitespaceRun.ReplaceAllString(c, "")
	c = strings.Replace(c, ",", ".", 1)

	m := digitsRun.FindString(c)
	if m == "" {
		return ""
	}
	v, ok := leadingFloat(m)
	if !ok {
		return ""
	}
	return formatNumber(v)
}

var extractedResults = []resultWords{
	{model.ResultWon, []string{"vinnande", "vinst", "won"}},
	{model.ResultLost, []string{"förlorad", "förlust", "lost", "förlorande"}},
	{model.ResultVoid, []string{"återbetald", "void", "makulerad", "push", "annullerat"}},
	{model.ResultPending, []string{"öppen", "ej avgjord", "pågår", "pending"}},
}

// extractedResult: vocabulário sueco mais amplo; texto sem correspondência passa adiante em minúsculas.
func extractedResult(s string) string {
	if r, ok := matchResult(s, extractedResults); ok {
		return string(r)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// backfillPayout usa a regra de liquidação; pending ou texto desconhecido não geram payout.
func backfillPayout(stake, odds, result string) string {
	st, ok1 := leadingFloat(stake)
	od, ok2 := leadingFloat(odds)
	if !ok1 || !ok2 {
		return ""
	}
	p := settlement.Compute(st, od, model.Result(result)).Payout
	if p == nil {
		return ""
	}
	return formatNumber(*p)
}

// parseExtracted converte as linhas limpas em Row. Não há validação de odds/stake
// aqui: valores ilegíveis viram 1.0 e 0, e a camada de persistência decide.
func parseExtracted(lines []line, opts Options) ([]Row, []*RowError, error) {
	ext, errs, err := convertExtracted(lines, opts)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]Row, 0, len(ext))
	for i, e := range ext {
		placed, _ := time.ParseInLocation("2006-01-02", e.Date, time.UTC)
		row := Row{
			Line:      e.Line,
			PlacedAt:  placed.Add(12 * time.Hour),
			Event:     e.Match,
			Market:    e.MarketSelection,
			Result:    model.Result(e.Result),
			Bookmaker: opts.Bookmaker,
			Currency:  opts.DefaultCurrency,
		}
		if row.Event == "" {
			row.Event = fmt.Sprintf("Unknown Event %d", i+1)
		}
		if row.Market == "" {
			row.Market = "Unknown Market"
		}
		if row.Result == "" {
			row.Result = model.ResultPending
		}
		if v, ok := leadingFloat(e.Odds); ok && v != 0 {
			row.Odds = v
		} else {
			row.Odds = 1.0
		}
		row.Stake, _ = leadingFloat(e.Stake)
		if e.Payout != "" {
			if v, ok := leadingFloat(e.Payout); ok {
				row.Payout = model.Float(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, errs, nil
}
