// Package settlement calcula payout e lucro de uma aposta a partir do resultado.
// Todas as fórmulas são multiplicativas; nenhuma função aqui falha ou entra em pânico.
package settlement

import (
	"time"

	"github.com/radieske/betting-tracker/internal/betting/model"
)

// Settlement é o par payout/lucro de uma aposta. Payout nil = pending.
type Settlement struct {
	Payout *float64 `json:"payout,omitempty"`
	Profit float64  `json:"profit"`
}

// Compute aplica a tabela canônica:
//
//	pending -> sem payout, lucro 0
//	won     -> stake*odds, stake*(odds-1)
//	lost    -> 0, -stake
//	void    -> stake, 0
//
// Valores fora do enum são tratados como pending.
func Compute(stake, odds float64, result model.Result) Settlement {
	switch result {
	case model.ResultWon:
		return Settlement{Payout: model.Float(stake * odds), Profit: stake * (odds - 1)}
	case model.ResultLost:
		return Settlement{Payout: model.Float(0), Profit: -stake}
	case model.ResultVoid:
		return Settlement{Payout: model.Float(stake), Profit: 0}
	case model.ResultPending:
		return Settlement{}
	default:
		return Settlement{}
	}
}

// Resolve devolve o payout/lucro efetivo de uma aposta persistida.
// Um payout gravado em aposta liquidada vence o cálculo (edição manual).
func Resolve(b model.Bet) Settlement {
	if !b.Result.Settled() {
		return Settlement{}
	}
	if b.Payout != nil {
		p := *b.Payout
		return Settlement{Payout: model.Float(p), Profit: p - b.Stake}
	}
	return Compute(b.Stake, b.Odds, b.Result)
}

// Transition executa o setResult de uma aposta.
// Retorna false quando nada muda (mesmo resultado e sem override).
// Voltar para pending limpa o payout; nos demais casos o override é gravado como veio.
func Transition(b model.Bet, to model.Result, override *float64, now time.Time) (model.Bet, bool) {
	if to == b.Result && override == nil {
		return b, false
	}

	b.Result = to
	switch {
	case !to.Settled():
		b.Payout = nil
	case override != nil:
		b.Payout = model.Float(*override)
	default:
		b.Payout = Compute(b.Stake, b.Odds, to).Payout
	}
	b.UpdatedAt = now
	return b, true
}
