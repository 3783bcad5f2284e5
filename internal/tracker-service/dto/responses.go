package dto

import (
	"github.com/radieske/betting-tracker/internal/betting/importer"
	"github.com/radieske/betting-tracker/internal/betting/model"
)

type RowIssue struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw,omitempty"`
	Reason string `json:"reason"`
}

func NewRowIssue(e *importer.RowError) RowIssue {
	return RowIssue{Line: e.Line, Raw: e.Raw, Reason: e.Err.Error()}
}

type ImportResponse struct {
	Dialect  importer.Dialect `json:"dialect"`
	Imported int              `json:"imported"`
	Errors   []RowIssue       `json:"errors"`   // linhas que o parser pulou
	Rejected []RowIssue       `json:"rejected"` // linhas convertidas mas recusadas (stake/odds <= 0)
	Bets     []model.Bet      `json:"bets"`
}

type RestoreResponse struct {
	Bets         int `json:"bets"`
	Transactions int `json:"transactions"`
}

type ErrorResponse struct {
	Error string     `json:"error"`
	Rows  []RowIssue `json:"rows,omitempty"`
}
