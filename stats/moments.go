package stats

import "math"

// Moments tracks the count, mean, and second through fourth central
// moment sums of a stream of values. Updates use the one-pass recurrence
// rather than raw power sums, so the derived statistics stay stable when
// the mean is large relative to the spread.
type Moments struct {
	n    int64
	mean float64
	m2   float64
	m3   float64
	m4   float64
}

func NewMoments() *Moments {
	return &Moments{}
}

// Update folds one value into the accumulator.
func (m *Moments) Update(value float64) {
	n1 := float64(m.n)
	m.n += 1
	n := float64(m.n)
	delta := value - m.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1
	m.mean += deltaN
	// m4 and m3 must be updated before m2, they read the old lower moments
	m.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*m.m2 - 4*deltaN*m.m3
	m.m3 += term1*deltaN*(n-2) - 3*deltaN*m.m2
	m.m2 += term1
}

// Merge combines two accumulators using only their summaries, never the
// underlying values. It is associative and commutative, an empty operand
// is an identity, and it takes ownership of both operands.
func (m *Moments) Merge(o *Moments) *Moments {
	if o == nil || o.n == 0 {
		return m
	}
	if m.n == 0 {
		return o
	}
	na := float64(m.n)
	nb := float64(o.n)
	n := na + nb
	delta := o.mean - m.mean

	out := NewMoments()
	out.n = m.n + o.n
	out.mean = m.mean + delta*nb/n
	out.m2 = m.m2 + o.m2 + delta*delta*na*nb/n
	out.m3 = m.m3 + o.m3 +
		delta*delta*delta*na*nb*(na-nb)/(n*n) +
		3*delta*(na*o.m2-nb*m.m2)/n
	out.m4 = m.m4 + o.m4 +
		delta*delta*delta*delta*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*delta*delta*(na*na*o.m2+nb*nb*m.m2)/(n*n) +
		4*delta*(na*o.m3-nb*m.m3)/n
	return out
}

func (m *Moments) Count() int64 {
	return m.n
}

// Mean is NaN until the first value arrives.
func (m *Moments) Mean() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.mean
}

// Variance is the sample variance, NaN with fewer than two values.
func (m *Moments) Variance() float64 {
	if m.n < 2 {
		return math.NaN()
	}
	return m.m2 / float64(m.n-1)
}

// Skewness is sqrt(n)*m3/m2^1.5, NaN when the spread is zero.
func (m *Moments) Skewness() float64 {
	if m.n == 0 || m.m2 == 0 {
		return math.NaN()
	}
	return math.Sqrt(float64(m.n)) * m.m3 / math.Pow(m.m2, 1.5)
}

// Kurtosis is the excess kurtosis n*m4/m2^2 - 3, NaN when the spread is
// zero.
func (m *Moments) Kurtosis() float64 {
	if m.n == 0 || m.m2 == 0 {
		return math.NaN()
	}
	return float64(m.n)*m.m4/(m.m2*m.m2) - 3
}
