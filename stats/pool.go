package stats

import (
	"math"
	"sort"
)

// PercentilePoints is the size of a finalized percentile table: 0.00
// through 1.00 in steps of 0.01.
const PercentilePoints = 101

// Percentile is one (probability, quantile) point.
type Percentile struct {
	P     float64
	Value float64
}

// Pool collects raw scalars for an exact quantile table. It holds one
// entry per contributing partition, so its footprint is bounded by the
// partition count, not the row count.
type Pool struct {
	Values []float64
}

func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) Update(value float64) {
	p.Values = append(p.Values, value)
}

// Merge concatenates the pools. Ownership of both operands passes to the
// result.
func (p *Pool) Merge(o *Pool) *Pool {
	if o == nil || len(o.Values) == 0 {
		return p
	}
	if len(p.Values) == 0 {
		return o
	}
	return &Pool{Values: append(p.Values, o.Values...)}
}

// Table computes the percentile table over the full pool, interpolating
// linearly between order statistics at rank h = p*(n-1). The table is
// exact, never sampled, and nil for an empty pool.
func (p *Pool) Table() []Percentile {
	n := len(p.Values)
	if n == 0 {
		return nil
	}
	sorted := append([]float64(nil), p.Values...)
	sort.Float64s(sorted)

	out := make([]Percentile, PercentilePoints)
	for i := 0; i < PercentilePoints; i += 1 {
		prob := float64(i) / 100
		h := prob * float64(n-1)
		lo := int(math.Floor(h))
		hi := lo + 1
		if hi >= n {
			out[i] = Percentile{P: prob, Value: sorted[n-1]}
			continue
		}
		out[i] = Percentile{P: prob, Value: sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])}
	}
	return out
}
