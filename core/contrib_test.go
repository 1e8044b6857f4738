package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"divstats/dataset"
	"divstats/executor"
	"divstats/stats"
)

func numFrame(name string, vals ...float64) *dataset.Frame {
	return dataset.NewFrame(dataset.NewNumCol(name, vals, nil))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// mixedFrame has one column of every family plus an unsupported one.
func mixedFrame() *dataset.Frame {
	return dataset.NewFrame(
		dataset.NewNumCol("x", []float64{1, 2, 3, 4}, []bool{false, false, false, true}),
		dataset.NewCatCol("c", []string{"a", "a", "b", ""}, []bool{false, false, false, true}),
		dataset.NewTimeCol("ts", []time.Time{day(3), day(1), day(2), {}}, []bool{false, false, false, true}),
		dataset.NewRawCol("blob", []any{nil, nil, nil, nil}),
	)
}

func contribByTag(contribs []executor.Contribution) map[dataset.Tag]any {
	out := make(map[dataset.Tag]any, len(contribs))
	for _, c := range contribs {
		out[c.Tag] = c.Value
	}
	return out
}

func TestBuildContrib_ShapeOnly(t *testing.T) {
	nd := need{
		dataset.AttrTotObjectSize:  true,
		dataset.AttrNDiv:           true,
		dataset.AttrKeys:           true,
		dataset.AttrSplitSizeDistn: true,
	}
	fn := buildContrib(nd, nil, func(v any) float64 { return 42 }, 0)

	// shape attributes never look inside the payload
	contribs, err := fn(dataset.Partition{Key: "p7", Value: "opaque"})
	assert.NoError(t, err)
	assert.Len(t, contribs, 4)

	byTag := contribByTag(contribs)
	assert.Equal(t, 42.0, byTag[dataset.ShapeTag(dataset.AttrTotObjectSize)])
	assert.Equal(t, int64(1), byTag[dataset.ShapeTag(dataset.AttrNDiv)])
	assert.Equal(t, []dataset.Key{"p7"}, byTag[dataset.ShapeTag(dataset.AttrKeys)])
	pool := byTag[dataset.ShapeTag(dataset.AttrSplitSizeDistn)].(*stats.Pool)
	assert.Equal(t, []float64{42}, pool.Values)
}

func TestBuildContrib_Tabular(t *testing.T) {
	nd := need{
		dataset.AttrNRow:          true,
		dataset.AttrSplitRowDistn: true,
		dataset.AttrSummary:       true,
	}
	fn := buildContrib(nd, nil, dataset.EstimateSize, 0)

	contribs, err := fn(dataset.Partition{Key: "p0", Value: mixedFrame()})
	assert.NoError(t, err)

	byTag := contribByTag(contribs)
	assert.Equal(t, int64(4), byTag[dataset.ShapeTag(dataset.AttrNRow)])

	pool := byTag[dataset.ShapeTag(dataset.AttrSplitRowDistn)].(*stats.Pool)
	assert.Equal(t, []float64{4}, pool.Values)

	num := byTag[dataset.SummaryTag(dataset.FamilyNumeric, "x")].(*numAcc)
	assert.Equal(t, int64(1), num.na)
	assert.Equal(t, int64(3), num.moments.Count())
	assert.InDelta(t, 2.0, num.moments.Mean(), 1e-12)
	assert.Equal(t, 1.0, num.rng.Min)
	assert.Equal(t, 3.0, num.rng.Max)

	freq := byTag[dataset.SummaryTag(dataset.FamilyCategorical, "c")].(*stats.Freq)
	assert.Equal(t, int64(2), freq.Counts["a"])
	assert.Equal(t, int64(1), freq.Counts["b"])
	assert.Equal(t, int64(1), freq.NA)

	tm := byTag[dataset.SummaryTag(dataset.FamilyDatetime, "ts")].(*timeAcc)
	assert.Equal(t, int64(1), tm.na)
	assert.Equal(t, day(1), tm.rng.Min)
	assert.Equal(t, day(3), tm.rng.Max)

	// the unsupported column contributes nothing
	_, ok := byTag[dataset.SummaryTag(dataset.FamilyUnsupported, "blob")]
	assert.False(t, ok)
}

func TestBuildContrib_AllMissingColumn(t *testing.T) {
	nd := need{dataset.AttrSummary: true}
	fn := buildContrib(nd, nil, dataset.EstimateSize, 0)

	frame := dataset.NewFrame(dataset.NewNumCol("x", []float64{0, 0}, []bool{true, true}))
	contribs, err := fn(dataset.Partition{Key: "p0", Value: frame})
	assert.NoError(t, err)

	num := contribByTag(contribs)[dataset.SummaryTag(dataset.FamilyNumeric, "x")].(*numAcc)
	assert.Equal(t, int64(2), num.na)
	assert.Equal(t, int64(0), num.moments.Count())
	assert.False(t, num.rng.Valid)
}

func TestBuildContrib_TransformSeesTabularOnly(t *testing.T) {
	nd := need{dataset.AttrTotObjectSize: true, dataset.AttrNRow: true}

	var sized []any
	sizeOf := func(v any) float64 {
		sized = append(sized, v)
		return 1
	}
	physical := numFrame("x", 1, 2, 3)
	transform := func(p dataset.Partition) (dataset.Partition, error) {
		// keep the first row only
		return dataset.Partition{Key: p.Key, Value: numFrame("x", 1)}, nil
	}

	fn := buildContrib(nd, transform, sizeOf, 0)
	contribs, err := fn(dataset.Partition{Key: "p0", Value: physical})
	assert.NoError(t, err)

	byTag := contribByTag(contribs)
	assert.Equal(t, int64(1), byTag[dataset.ShapeTag(dataset.AttrNRow)])
	// the size estimate saw the stored frame, not the transformed one
	assert.Len(t, sized, 1)
	assert.Same(t, physical, sized[0])
}

func TestBuildContrib_TransformError(t *testing.T) {
	nd := need{dataset.AttrNRow: true}
	fn := buildContrib(nd, func(p dataset.Partition) (dataset.Partition, error) {
		return dataset.Partition{}, errors.New("bad row filter")
	}, dataset.EstimateSize, 0)

	_, err := fn(dataset.Partition{Key: "p0", Value: numFrame("x", 1)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad row filter")
}

func TestBuildContrib_NonFrame(t *testing.T) {
	nd := need{dataset.AttrNRow: true}
	fn := buildContrib(nd, nil, dataset.EstimateSize, 0)

	_, err := fn(dataset.Partition{Key: "p0", Value: []int{1, 2}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "*dataset.Frame")
}

func TestBuildContrib_FreqCap(t *testing.T) {
	nd := need{dataset.AttrSummary: true}
	fn := buildContrib(nd, nil, dataset.EstimateSize, 2)

	frame := dataset.NewFrame(dataset.NewCatCol("c", []string{"a", "a", "b", "c"}, nil))
	contribs, err := fn(dataset.Partition{Key: "p0", Value: frame})
	assert.NoError(t, err)

	freq := contribByTag(contribs)[dataset.SummaryTag(dataset.FamilyCategorical, "c")].(*stats.Freq)
	assert.Len(t, freq.Counts, 2)
	assert.Equal(t, int64(2), freq.Counts["a"])
	assert.Equal(t, int64(1), freq.Counts["b"])
	assert.False(t, freq.Complete())
}
