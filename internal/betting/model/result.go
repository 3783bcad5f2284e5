package model

import (
	"fmt"
	"strings"
)

// Result é o estado de liquidação de uma aposta.
type Result string

const (
	ResultPending Result = "pending"
	ResultWon     Result = "won"
	ResultLost    Result = "lost"
	ResultVoid    Result = "void"
)

// ParseResult aceita o nome canônico, sem diferenciar maiúsculas.
func ParseResult(s string) (Result, error) {
	r := Result(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid result %q", s)
	}
	return r, nil
}

func (r Result) Valid() bool {
	switch r {
	case ResultPending, ResultWon, ResultLost, ResultVoid:
		return true
	}
	return false
}

// Settled indica won, lost ou void.
func (r Result) Settled() bool {
	switch r {
	case ResultWon, ResultLost, ResultVoid:
		return true
	}
	return false
}

func (r Result) String() string { return string(r) }
