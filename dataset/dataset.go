package dataset

import (
	"fmt"
	"io"
	"sync"
)

// Key identifies one partition within a dataset.
type Key string

// Partition pairs a key with its physical payload. Tabular datasets
// carry a *Frame payload; plain collections carry anything.
type Partition struct {
	Key   Key
	Value any
}

// Cursor streams partitions in no guaranteed order. Next returns io.EOF
// when the stream is exhausted.
type Cursor interface {
	Next() (Partition, error)
}

type sliceCursor struct {
	parts []Partition
	i     int
}

func (c *sliceCursor) Next() (Partition, error) {
	if c.i >= len(c.parts) {
		return Partition{}, io.EOF
	}
	p := c.parts[c.i]
	c.i += 1
	return p, nil
}

// NewSliceCursor streams the given partitions in order.
func NewSliceCursor(parts []Partition) Cursor {
	return &sliceCursor{parts: parts}
}

// Kind distinguishes plain divided collections from tabular datasets.
type Kind uint8

const (
	KindCollection Kind = iota
	KindTable
)

func (k Kind) String() string {
	if k == KindTable {
		return "table"
	}
	return "collection"
}

// TransformFunc reshapes one partition. It must not mutate its input.
type TransformFunc func(p Partition) (Partition, error)

// Dataset is the in-memory dataset descriptor: a kind, the partitions,
// the declared column schema for tables, and the named attributes
// computed over it. A Dataset built with WithDeferred wraps a pending
// transform that must be resolved before attributes are computed.
type Dataset struct {
	kind    Kind
	parts   []Partition
	columns []ColumnSpec

	mu       sync.RWMutex
	attrs    map[Attr]any
	deferred TransformFunc
}

// NewCollection builds a divided collection over arbitrary payloads.
func NewCollection(parts ...Partition) *Dataset {
	return &Dataset{
		kind:  KindCollection,
		parts: parts,
		attrs: make(map[Attr]any),
	}
}

// NewTable builds a tabular dataset. The column schema is taken from the
// first partition's frame; SetColumns overrides it.
func NewTable(parts ...Partition) *Dataset {
	d := &Dataset{
		kind:  KindTable,
		parts: parts,
		attrs: make(map[Attr]any),
	}
	for _, p := range parts {
		if frame, ok := p.Value.(*Frame); ok {
			d.columns = frame.Specs()
			break
		}
	}
	return d
}

func (d *Dataset) Kind() Kind {
	return d.kind
}

func (d *Dataset) NumPartitions() int {
	return len(d.parts)
}

func (d *Dataset) Columns() []ColumnSpec {
	return d.columns
}

func (d *Dataset) SetColumns(specs []ColumnSpec) {
	d.columns = specs
}

func (d *Dataset) Cursor() Cursor {
	return NewSliceCursor(d.parts)
}

// Attr returns a computed attribute by name.
func (d *Dataset) Attr(name Attr) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.attrs[name]
	return v, ok
}

// SetAttrs records computed attributes, overwriting existing entries of
// the same name.
func (d *Dataset) SetAttrs(attrs map[Attr]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, v := range attrs {
		d.attrs[name] = v
	}
}

// ClearAttrs drops every computed attribute. Callers that mutate
// partition payloads in place use this to force recomputation.
func (d *Dataset) ClearAttrs() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attrs = make(map[Attr]any)
}

// Deferred reports whether a pending transform is attached.
func (d *Dataset) Deferred() bool {
	return d.deferred != nil
}

// WithDeferred returns a view of d whose partitions are reshaped by fn
// at resolution time. The view starts with no attributes; the base
// dataset is untouched.
func (d *Dataset) WithDeferred(fn TransformFunc) *Dataset {
	return &Dataset{
		kind:     d.kind,
		parts:    d.parts,
		columns:  d.columns,
		attrs:    make(map[Attr]any),
		deferred: fn,
	}
}

// Resolve applies the pending transform to every partition and returns a
// plain dataset holding the results. The resolved dataset carries no
// attributes; its schema is re-derived from the transformed frames. A
// dataset with no pending transform resolves to itself.
func (d *Dataset) Resolve() (*Dataset, error) {
	if d.deferred == nil {
		return d, nil
	}
	parts := make([]Partition, 0, len(d.parts))
	for _, p := range d.parts {
		tp, err := d.deferred(p)
		if err != nil {
			return nil, fmt.Errorf("resolve partition %q: %w", p.Key, err)
		}
		parts = append(parts, tp)
	}
	if d.kind == KindTable {
		return NewTable(parts...), nil
	}
	return NewCollection(parts...), nil
}
