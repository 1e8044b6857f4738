package core

import (
	"divstats/dataset"
	"divstats/stats"
)

// Capabilities is the configuration the need planner consults: which
// attributes each dataset kind wants, and which ones this engine knows
// how to compute. Attributes required but not implemented are silently
// left alone, so descriptors can declare attributes maintained by other
// tooling.
type Capabilities struct {
	required    map[dataset.Kind][]dataset.Attr
	implemented map[dataset.Attr]bool
}

func NewCapabilities() *Capabilities {
	return &Capabilities{
		required:    make(map[dataset.Kind][]dataset.Attr),
		implemented: make(map[dataset.Attr]bool),
	}
}

// DefaultCapabilities requires every attribute this engine implements:
// the five shape attributes for collections, plus row count, row
// distribution, and the column summary for tables.
func DefaultCapabilities() *Capabilities {
	collection := []dataset.Attr{
		dataset.AttrTotObjectSize,
		dataset.AttrNDiv,
		dataset.AttrKeys,
		dataset.AttrKeyHashes,
		dataset.AttrSplitSizeDistn,
	}
	table := append(append([]dataset.Attr{}, collection...),
		dataset.AttrNRow,
		dataset.AttrSplitRowDistn,
		dataset.AttrSummary,
	)

	caps := NewCapabilities()
	caps.Require(dataset.KindCollection, collection...)
	caps.Require(dataset.KindTable, table...)
	caps.Implement(table...)
	return caps
}

func (c *Capabilities) Require(kind dataset.Kind, attrs ...dataset.Attr) *Capabilities {
	c.required[kind] = append(c.required[kind], attrs...)
	return c
}

func (c *Capabilities) Implement(attrs ...dataset.Attr) *Capabilities {
	for _, attr := range attrs {
		c.implemented[attr] = true
	}
	return c
}

func (c *Capabilities) Required(kind dataset.Kind) []dataset.Attr {
	return c.required[kind]
}

func (c *Capabilities) Implemented(attr dataset.Attr) bool {
	return c.implemented[attr]
}

// NumStats are the reportable moment statistics of a numeric column.
// Undefined values (fewer than two observations, zero spread) are NaN.
type NumStats struct {
	Mean     float64
	Variance float64
	Skewness float64
	Kurtosis float64
}

// SummaryEntry describes one column of a tabular dataset. NA counts the
// missing values; the remaining fields depend on the column family.
type SummaryEntry struct {
	Column string
	Family dataset.Family
	NA     int64

	// numeric
	Stats *NumStats    `cbor:",omitempty"`
	Range *stats.Range `cbor:",omitempty"`

	// categorical
	Freq           map[string]int64 `cbor:",omitempty"`
	Complete       bool             `cbor:",omitempty"`
	ApproxDistinct uint64           `cbor:",omitempty"`

	// datetime
	TimeRange *stats.TimeRange `cbor:",omitempty"`
}

// GlobalAttributes is the assembled record of one attribute pass.
// Attributes the pass did not compute hold zero values.
type GlobalAttributes struct {
	TotObjectSize  float64
	NDiv           int64
	NRow           int64
	Keys           []dataset.Key
	KeyHashes      []string
	SplitSizeDistn []stats.Percentile
	SplitRowDistn  []stats.Percentile
	Summary        []SummaryEntry
}

// SummaryFor returns the summary entry of the named column.
func (g *GlobalAttributes) SummaryFor(column string) (SummaryEntry, bool) {
	for _, entry := range g.Summary {
		if entry.Column == column {
			return entry, true
		}
	}
	return SummaryEntry{}, false
}
