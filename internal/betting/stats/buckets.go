package stats

import (
	"github.com/radieske/betting-tracker/internal/betting/model"
	"github.com/radieske/betting-tracker/internal/betting/money"
)

// OddsBucket é a taxa de acerto de uma faixa de odds [Min, Max).
// Max nil indica a faixa aberta (5.0+).
type OddsBucket struct {
	Label   string   `json:"label"`
	Min     float64  `json:"min"`
	Max     *float64 `json:"max"`
	Count   int      `json:"count"`
	Won     int      `json:"won"`
	WinRate float64  `json:"winRate"`
}

type oddsRange struct {
	label    string
	min, max float64 // max 0 = sem limite
}

var oddsRanges = []oddsRange{
	{"1.0-1.5", 1.0, 1.5},
	{"1.5-2.0", 1.5, 2.0},
	{"2.0-3.0", 2.0, 3.0},
	{"3.0-5.0", 3.0, 5.0},
	{"5.0+", 5.0, 0},
}

func (r oddsRange) contains(odds float64) bool {
	if odds < r.min {
		return false
	}
	return r.max == 0 || odds < r.max
}

type bucketSet struct {
	count []int
	won   []int
}

func newBucketSet() *bucketSet {
	return &bucketSet{count: make([]int, len(oddsRanges)), won: make([]int, len(oddsRanges))}
}

// add coloca a aposta na primeira faixa que a contém; odds < 1.0 ficam de fora.
func (s *bucketSet) add(b model.Bet) {
	for i, r := range oddsRanges {
		if !r.contains(b.Odds) {
			continue
		}
		s.count[i]++
		if b.Result == model.ResultWon {
			s.won[i]++
		}
		return
	}
}

func (s *bucketSet) result() []OddsBucket {
	out := make([]OddsBucket, len(oddsRanges))
	for i, r := range oddsRanges {
		out[i] = OddsBucket{
			Label:   r.label,
			Min:     r.min,
			Count:   s.count[i],
			Won:     s.won[i],
			WinRate: money.Ratio(s.won[i], s.count[i]),
		}
		if r.max != 0 {
			out[i].Max = model.Float(r.max)
		}
	}
	return out
}
