package dataset

import (
	"fmt"
	"math"
	"time"
)

// Family classifies a column into the closed set of summarizable kinds.
// Anything else reports FamilyUnsupported and is skipped by summary
// computation, never an error.
type Family uint8

const (
	FamilyUnsupported Family = iota
	FamilyNumeric
	FamilyCategorical
	FamilyDatetime
)

func (f Family) String() string {
	switch f {
	case FamilyNumeric:
		return "numeric"
	case FamilyCategorical:
		return "categorical"
	case FamilyDatetime:
		return "datetime"
	default:
		return "unsupported"
	}
}

// ColumnSpec is the declared name and family of one column.
type ColumnSpec struct {
	Name   string
	Family Family
}

// Column is one named column of a Frame.
type Column interface {
	Name() string
	Family() Family
	Len() int
}

// NumCol is a float64 column. A value is missing when its mask bit is
// set or the stored value is NaN.
type NumCol struct {
	name string
	vals []float64
	na   []bool
}

// NewNumCol builds a numeric column. The mask may be nil when no value
// is missing.
func NewNumCol(name string, vals []float64, na []bool) *NumCol {
	checkMask(name, len(vals), na)
	return &NumCol{name: name, vals: vals, na: na}
}

func (c *NumCol) Name() string   { return c.name }
func (c *NumCol) Family() Family { return FamilyNumeric }
func (c *NumCol) Len() int       { return len(c.vals) }

// Value returns the i'th value and whether it is present.
func (c *NumCol) Value(i int) (float64, bool) {
	if c.na != nil && c.na[i] {
		return 0, false
	}
	v := c.vals[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// CatCol is a category-label column. Missing values are mask-only; the
// empty string is an ordinary category.
type CatCol struct {
	name string
	vals []string
	na   []bool
}

func NewCatCol(name string, vals []string, na []bool) *CatCol {
	checkMask(name, len(vals), na)
	return &CatCol{name: name, vals: vals, na: na}
}

func (c *CatCol) Name() string   { return c.name }
func (c *CatCol) Family() Family { return FamilyCategorical }
func (c *CatCol) Len() int       { return len(c.vals) }

func (c *CatCol) Value(i int) (string, bool) {
	if c.na != nil && c.na[i] {
		return "", false
	}
	return c.vals[i], true
}

// TimeCol is a timestamp column. Missing values are mask-only.
type TimeCol struct {
	name string
	vals []time.Time
	na   []bool
}

func NewTimeCol(name string, vals []time.Time, na []bool) *TimeCol {
	checkMask(name, len(vals), na)
	return &TimeCol{name: name, vals: vals, na: na}
}

func (c *TimeCol) Name() string   { return c.name }
func (c *TimeCol) Family() Family { return FamilyDatetime }
func (c *TimeCol) Len() int       { return len(c.vals) }

func (c *TimeCol) Value(i int) (time.Time, bool) {
	if c.na != nil && c.na[i] {
		return time.Time{}, false
	}
	return c.vals[i], true
}

// RawCol holds values outside the summarizable families. It keeps its
// payload opaque; the engine only ever asks for its length.
type RawCol struct {
	name string
	vals []any
}

func NewRawCol(name string, vals []any) *RawCol {
	return &RawCol{name: name, vals: vals}
}

func (c *RawCol) Name() string   { return c.name }
func (c *RawCol) Family() Family { return FamilyUnsupported }
func (c *RawCol) Len() int       { return len(c.vals) }

func (c *RawCol) Value(i int) any { return c.vals[i] }

func checkMask(name string, n int, na []bool) {
	if na != nil && len(na) != n {
		panic(fmt.Sprintf("column %q: mask length %d does not match %d values", name, len(na), n))
	}
}

// Frame is a column-major table chunk, the physical payload of one
// partition of a tabular dataset. All columns have the same length.
type Frame struct {
	cols []Column
}

func NewFrame(cols ...Column) *Frame {
	for i := 1; i < len(cols); i++ {
		if cols[i].Len() != cols[0].Len() {
			panic(fmt.Sprintf("column %q: length %d does not match %q", cols[i].Name(), cols[i].Len(), cols[0].Name()))
		}
	}
	return &Frame{cols: cols}
}

func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

func (f *Frame) NumCols() int {
	return len(f.cols)
}

func (f *Frame) Columns() []Column {
	return f.cols
}

// Column returns the named column, nil when absent.
func (f *Frame) Column(name string) Column {
	for _, c := range f.cols {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Specs lists the columns in declaration order.
func (f *Frame) Specs() []ColumnSpec {
	specs := make([]ColumnSpec, len(f.cols))
	for i, c := range f.cols {
		specs[i] = ColumnSpec{Name: c.Name(), Family: c.Family()}
	}
	return specs
}
