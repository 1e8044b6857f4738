package core

import (
	"fmt"

	"divstats/dataset"
	"divstats/executor"
	"divstats/stats"
)

// numAcc is the partial summary of one numeric column over one or more
// partitions.
type numAcc struct {
	na      int64
	moments *stats.Moments
	rng     *stats.Range
}

func (a *numAcc) merge(b *numAcc) *numAcc {
	return &numAcc{
		na:      a.na + b.na,
		moments: a.moments.Merge(b.moments),
		rng:     a.rng.Merge(b.rng),
	}
}

// timeAcc is the partial summary of one datetime column.
type timeAcc struct {
	na  int64
	rng *stats.TimeRange
}

func (a *timeAcc) merge(b *timeAcc) *timeAcc {
	return &timeAcc{na: a.na + b.na, rng: a.rng.Merge(b.rng)}
}

// buildContrib returns the map-stage function for one invocation. Shape
// attributes always see the physical partition value; the optional
// transform is applied before row counts and column summaries. The
// returned function never mutates partition data.
func buildContrib(nd need, transform dataset.TransformFunc, sizeOf dataset.SizeFunc, freqCap int) func(dataset.Partition) ([]executor.Contribution, error) {
	return func(p dataset.Partition) ([]executor.Contribution, error) {
		out := make([]executor.Contribution, 0, 8)
		emit := func(tag dataset.Tag, v any) {
			out = append(out, executor.Contribution{Tag: tag, Value: v})
		}

		if nd[dataset.AttrTotObjectSize] {
			emit(dataset.ShapeTag(dataset.AttrTotObjectSize), sizeOf(p.Value))
		}
		if nd[dataset.AttrNDiv] {
			emit(dataset.ShapeTag(dataset.AttrNDiv), int64(1))
		}
		if nd[dataset.AttrKeys] {
			emit(dataset.ShapeTag(dataset.AttrKeys), []dataset.Key{p.Key})
		}
		if nd[dataset.AttrSplitSizeDistn] {
			pool := stats.NewPool()
			pool.Update(sizeOf(p.Value))
			emit(dataset.ShapeTag(dataset.AttrSplitSizeDistn), pool)
		}

		if !nd[dataset.AttrNRow] && !nd[dataset.AttrSplitRowDistn] && !nd[dataset.AttrSummary] {
			return out, nil
		}

		logical := p
		if transform != nil {
			tp, err := transform(p)
			if err != nil {
				return nil, fmt.Errorf("transform: %w", err)
			}
			logical = tp
		}
		frame, ok := logical.Value.(*dataset.Frame)
		if !ok {
			return nil, fmt.Errorf("tabular attributes need a *dataset.Frame value, got %T", logical.Value)
		}

		if nd[dataset.AttrNRow] {
			emit(dataset.ShapeTag(dataset.AttrNRow), int64(frame.NumRows()))
		}
		if nd[dataset.AttrSplitRowDistn] {
			pool := stats.NewPool()
			pool.Update(float64(frame.NumRows()))
			emit(dataset.ShapeTag(dataset.AttrSplitRowDistn), pool)
		}
		if nd[dataset.AttrSummary] {
			for _, col := range frame.Columns() {
				switch c := col.(type) {
				case *dataset.NumCol:
					emit(dataset.SummaryTag(dataset.FamilyNumeric, c.Name()), numContrib(c))
				case *dataset.CatCol:
					emit(dataset.SummaryTag(dataset.FamilyCategorical, c.Name()), catContrib(c, freqCap))
				case *dataset.TimeCol:
					emit(dataset.SummaryTag(dataset.FamilyDatetime, c.Name()), timeContrib(c))
				default:
					// outside the summarizable families, skipped
				}
			}
		}
		return out, nil
	}
}

func numContrib(col *dataset.NumCol) *numAcc {
	acc := &numAcc{moments: stats.NewMoments(), rng: stats.NewRange()}
	for i := 0; i < col.Len(); i += 1 {
		v, ok := col.Value(i)
		if !ok {
			acc.na += 1
			continue
		}
		acc.moments.Update(v)
		acc.rng.Update(v)
	}
	return acc
}

func catContrib(col *dataset.CatCol, freqCap int) *stats.Freq {
	freq := stats.NewFreq(freqCap)
	for i := 0; i < col.Len(); i += 1 {
		v, ok := col.Value(i)
		if !ok {
			freq.ObserveNA()
			continue
		}
		freq.Observe(v)
	}
	return freq
}

func timeContrib(col *dataset.TimeCol) *timeAcc {
	acc := &timeAcc{rng: stats.NewTimeRange()}
	for i := 0; i < col.Len(); i += 1 {
		v, ok := col.Value(i)
		if !ok {
			acc.na += 1
			continue
		}
		acc.rng.Update(v)
	}
	return acc
}
