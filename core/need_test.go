package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"divstats/dataset"
)

func TestPlan_TableWantsEverything(t *testing.T) {
	d := dataset.NewTable(dataset.Partition{Key: "p0", Value: numFrame("x", 1)})

	nd, err := plan(d, DefaultCapabilities())
	assert.NoError(t, err)

	for _, attr := range []dataset.Attr{
		dataset.AttrTotObjectSize,
		dataset.AttrNDiv,
		dataset.AttrNRow,
		dataset.AttrKeys,
		dataset.AttrSplitSizeDistn,
		dataset.AttrSplitRowDistn,
		dataset.AttrSummary,
	} {
		assert.True(t, nd[attr], "expected %s to be planned", attr)
	}
	// keyHashes rides on keys, it is never planned directly
	assert.False(t, nd[dataset.AttrKeyHashes])
}

func TestPlan_CollectionSkipsTabular(t *testing.T) {
	d := dataset.NewCollection(dataset.Partition{Key: "a", Value: 1})

	nd, err := plan(d, DefaultCapabilities())
	assert.NoError(t, err)

	assert.True(t, nd[dataset.AttrTotObjectSize])
	assert.True(t, nd[dataset.AttrNDiv])
	assert.True(t, nd[dataset.AttrKeys])
	assert.False(t, nd[dataset.AttrNRow])
	assert.False(t, nd[dataset.AttrSplitRowDistn])
	assert.False(t, nd[dataset.AttrSummary])
}

func TestPlan_SkipsPresent(t *testing.T) {
	d := dataset.NewCollection(dataset.Partition{Key: "a", Value: 1})
	d.SetAttrs(map[dataset.Attr]any{
		dataset.AttrNDiv:          int64(1),
		dataset.AttrTotObjectSize: 10.0,
	})

	nd, err := plan(d, DefaultCapabilities())
	assert.NoError(t, err)

	assert.False(t, nd[dataset.AttrNDiv])
	assert.False(t, nd[dataset.AttrTotObjectSize])
	assert.True(t, nd[dataset.AttrKeys])
}

func TestPlan_KeyHashesScheduleKeys(t *testing.T) {
	d := dataset.NewCollection(dataset.Partition{Key: "a", Value: 1})
	// keys present but hashes missing still schedules the keys pass
	d.SetAttrs(map[dataset.Attr]any{dataset.AttrKeys: []dataset.Key{"a"}})

	nd, err := plan(d, DefaultCapabilities())
	assert.NoError(t, err)
	assert.True(t, nd[dataset.AttrKeys])

	// with both present, nothing key-related is planned
	d.SetAttrs(map[dataset.Attr]any{dataset.AttrKeyHashes: []string{dataset.KeyHash("a")}})
	nd, err = plan(d, DefaultCapabilities())
	assert.NoError(t, err)
	assert.False(t, nd[dataset.AttrKeys])
}

func TestPlan_UnimplementedIgnored(t *testing.T) {
	caps := NewCapabilities().
		Require(dataset.KindCollection, dataset.AttrNDiv, "checksum").
		Implement(dataset.AttrNDiv)
	d := dataset.NewCollection(dataset.Partition{Key: "a", Value: 1})

	nd, err := plan(d, caps)
	assert.NoError(t, err)
	assert.Equal(t, need{dataset.AttrNDiv: true}, nd)
}

func TestPlan_DeferredFailsFast(t *testing.T) {
	view := dataset.NewCollection(dataset.Partition{Key: "a", Value: 1}).
		WithDeferred(func(p dataset.Partition) (dataset.Partition, error) { return p, nil })

	_, err := plan(view, DefaultCapabilities())
	assert.Error(t, err)

	var pre *PreconditionError
	assert.ErrorAs(t, err, &pre)
	assert.Contains(t, pre.Reason, "deferred transform")
}

func TestPlan_NothingNeeded(t *testing.T) {
	d := dataset.NewCollection(dataset.Partition{Key: "a", Value: 1})
	d.SetAttrs(map[dataset.Attr]any{
		dataset.AttrTotObjectSize:  1.0,
		dataset.AttrNDiv:           int64(1),
		dataset.AttrKeys:           []dataset.Key{"a"},
		dataset.AttrKeyHashes:      []string{dataset.KeyHash("a")},
		dataset.AttrSplitSizeDistn: []any{},
	})

	nd, err := plan(d, DefaultCapabilities())
	assert.NoError(t, err)
	assert.Empty(t, nd)
}
