// Package importer converte exportações CSV de casas de apostas em linhas
// normalizadas prontas para virar apostas.
//
// Dois dialetos são suportados:
//
//   - standard: cabeçalho Date,Event,Market,Odds,Stake,Result,Payout e uma aposta por linha;
//   - extracted-table: tabela de 9 colunas gerada por extração de PDF do histórico
//     da Bet365, com textos em sueco e IDs de confirmação como "PL3109675301I".
//
// O dialeto é detectado pelo conteúdo. A política de erro por linha é configurável.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/model"
)

type Dialect string

const (
	DialectStandard  Dialect = "standard"
	DialectExtracted Dialect = "extracted-table"
)

// ErrorPolicy decide o que acontece quando uma linha não pode ser convertida.
type ErrorPolicy string

const (
	// PolicyDialectDefault: standard aborta na primeira linha ruim, extracted-table pula e registra.
	PolicyDialectDefault ErrorPolicy = "default"
	PolicyCollect        ErrorPolicy = "collect"
	PolicyFailFast       ErrorPolicy = "fail-fast"
)

func ParsePolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyDialectDefault:
		return PolicyDialectDefault, nil
	case PolicyCollect, PolicyFailFast:
		return p, nil
	}
	return "", fmt.Errorf("invalid import error policy %q", s)
}

const (
	DefaultBookmaker = "Bet365"
	DefaultCurrency  = "SEK"
)

var (
	ErrEmptyInput    = errors.New("csv is empty or malformed")
	ErrNoRows        = errors.New("no importable rows found")
	ErrTooFewColumns = errors.New("too few columns")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingOdds   = errors.New("no odds found")
	ErrInvalidAmount = errors.New("invalid odds or stake")
	ErrUnclosedQuote = errors.New("unclosed quote")
)

// RowError descreve uma linha rejeitada. Line é 1-based no texto de entrada.
type RowError struct {
	Line int    `json:"line"`
	Raw  string `json:"raw"`
	Err  error  `json:"-"`
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

type Options struct {
	Policy          ErrorPolicy
	Bookmaker       string
	DefaultCurrency string
	Now             func() time.Time
	Logger          *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Policy == "" {
		o.Policy = PolicyDialectDefault
	}
	if o.Bookmaker == "" {
		o.Bookmaker = DefaultBookmaker
	}
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = DefaultCurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// failFast resolve a política efetiva para o dialeto.
func (o Options) failFast(d Dialect) bool {
	switch o.Policy {
	case PolicyFailFast:
		return true
	case PolicyCollect:
		return false
	}
	return d == DialectStandard
}

// Row é uma aposta normalizada, ainda sem id/usuário.
// Result pode trazer texto fora do enum vindo do dialeto extracted-table; use Result.Valid().
type Row struct {
	Line      int          `json:"line"`
	PlacedAt  time.Time    `json:"placedAt"`
	Event     string       `json:"event"`
	Market    string       `json:"market"`
	Odds      float64      `json:"odds"`
	Stake     float64      `json:"stake"`
	Result    model.Result `json:"result"`
	Payout    *float64     `json:"payout,omitempty"`
	Bookmaker string       `json:"bookmaker"`
	Currency  string       `json:"currency"`
}

type Batch struct {
	Dialect Dialect     `json:"dialect"`
	Rows    []Row       `json:"rows"`
	Errors  []*RowError `json:"errors"`
}

// Parse detecta o dialeto e converte o texto.
// Erros de lote: ErrEmptyInput, ErrNoRows, ou um *RowError quando a política é fail-fast.
func Parse(text string, opts Options) (Batch, error) {
	opts = opts.withDefaults()

	lines := splitLines(text)
	if nonBlank(lines) < 2 {
		return Batch{}, ErrEmptyInput
	}

	d := detect(lines)
	b := Batch{Dialect: d}

	var err error
	switch d {
	case DialectExtracted:
		b.Rows, b.Errors, err = parseExtracted(lines, opts)
	default:
		b.Rows, b.Errors, err = parseStandard(lines, opts)
	}
	if err != nil {
		return Batch{Dialect: d}, err
	}
	if len(b.Rows) == 0 {
		return b, ErrNoRows
	}
	return b, nil
}

// collect registra o erro da linha ou, em fail-fast, o devolve para abortar o lote.
func collect(errs []*RowError, re *RowError, d Dialect, opts Options) ([]*RowError, error) {
	if opts.failFast(d) {
		return errs, fmt.Errorf("import aborted: %w", re)
	}
	opts.Logger.Warn("skipping csv row",
		zap.String("dialect", string(d)),
		zap.Int("line", re.Line),
		zap.Error(re.Err),
	)
	return append(errs, re), nil
}
