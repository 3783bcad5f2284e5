// Package money concentra a aritmética decimal usada nos agregados.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Dec converte para decimal. NaN e ±Inf viram zero, já que decimal entra em pânico com eles.
func Dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Pct devolve num/den*100, ou 0 quando den é zero.
func Pct(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Div(den).Mul(hundred).InexactFloat64()
}

// Ratio devolve n/total*100, ou 0 quando total é zero.
func Ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Fixed formata v com casas decimais fixas (arredondamento half-up).
func Fixed(v float64, places int32) string {
	return Dec(v).StringFixed(places)
}
