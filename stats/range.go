package stats

import "time"

// Range tracks the minimum and maximum of the values seen so far. Valid
// stays false until the first value arrives, so an all-missing input
// merges as an identity and reports no bounds. Callers filter missing
// values before updating.
type Range struct {
	Min   float64
	Max   float64
	Valid bool
}

func NewRange() *Range {
	return &Range{}
}

func (r *Range) Update(value float64) {
	if !r.Valid {
		r.Min = value
		r.Max = value
		r.Valid = true
		return
	}
	if value < r.Min {
		r.Min = value
	}
	if value > r.Max {
		r.Max = value
	}
}

// Merge widens the bounds to cover both operands. Invalid operands are
// identities; ownership of both operands passes to the result.
func (r *Range) Merge(o *Range) *Range {
	if o == nil || !o.Valid {
		return r
	}
	if !r.Valid {
		return o
	}
	out := &Range{Min: r.Min, Max: r.Max, Valid: true}
	if o.Min < out.Min {
		out.Min = o.Min
	}
	if o.Max > out.Max {
		out.Max = o.Max
	}
	return out
}

// TimeRange is Range over timestamps.
type TimeRange struct {
	Min   time.Time
	Max   time.Time
	Valid bool
}

func NewTimeRange() *TimeRange {
	return &TimeRange{}
}

func (r *TimeRange) Update(value time.Time) {
	if !r.Valid {
		r.Min = value
		r.Max = value
		r.Valid = true
		return
	}
	if value.Before(r.Min) {
		r.Min = value
	}
	if value.After(r.Max) {
		r.Max = value
	}
}

func (r *TimeRange) Merge(o *TimeRange) *TimeRange {
	if o == nil || !o.Valid {
		return r
	}
	if !r.Valid {
		return o
	}
	out := &TimeRange{Min: r.Min, Max: r.Max, Valid: true}
	if o.Min.Before(out.Min) {
		out.Min = o.Min
	}
	if o.Max.After(out.Max) {
		out.Max = o.Max
	}
	return out
}
