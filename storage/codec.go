package storage

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	"divstats/core"
	"divstats/dataset"
	"divstats/stats"
)

// Codec translates partition payloads and attribute documents to and
// from CBOR. Encoding is deterministic, so equal values always produce
// equal bytes. Timestamps are stored as epoch instants and come back in
// UTC.
type Codec struct {
	em cbor.EncMode
	dm cbor.DecMode
}

func NewCodec() (*Codec, error) {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeUnixMicro
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, err
	}
	return &Codec{em: em, dm: dm}, nil
}

type colDoc struct {
	Name   string            `cbor:"name"`
	Family uint8             `cbor:"family"`
	Nums   []float64         `cbor:"nums,omitempty"`
	Cats   []string          `cbor:"cats,omitempty"`
	Times  []int64           `cbor:"times,omitempty"`
	Raws   []cbor.RawMessage `cbor:"raws,omitempty"`
	NA     []bool            `cbor:"na,omitempty"`
}

type partDoc struct {
	IsFrame bool            `cbor:"isframe"`
	Cols    []colDoc        `cbor:"cols,omitempty"`
	Value   cbor.RawMessage `cbor:"value,omitempty"`
}

// EncodePartition encodes a partition payload. Frames get a columnar
// document; any other payload is stored as opaque CBOR and decodes into
// generic Go values.
func (c *Codec) EncodePartition(v any) ([]byte, error) {
	frame, ok := v.(*dataset.Frame)
	if !ok {
		raw, err := c.em.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode partition value: %w", err)
		}
		return c.em.Marshal(partDoc{Value: raw})
	}
	doc := partDoc{IsFrame: true, Cols: make([]colDoc, 0, frame.NumCols())}
	for _, col := range frame.Columns() {
		cd, err := c.encodeColumn(col)
		if err != nil {
			return nil, err
		}
		doc.Cols = append(doc.Cols, cd)
	}
	return c.em.Marshal(doc)
}

func (c *Codec) DecodePartition(buf []byte) (any, error) {
	var doc partDoc
	if err := c.dm.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("decode partition: %w", err)
	}
	if !doc.IsFrame {
		var v any
		if err := c.dm.Unmarshal(doc.Value, &v); err != nil {
			return nil, fmt.Errorf("decode partition value: %w", err)
		}
		return v, nil
	}
	cols := make([]dataset.Column, 0, len(doc.Cols))
	for _, cd := range doc.Cols {
		col, err := c.decodeColumn(cd)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return dataset.NewFrame(cols...), nil
}

func (c *Codec) encodeColumn(col dataset.Column) (colDoc, error) {
	doc := colDoc{Name: col.Name(), Family: uint8(col.Family())}
	n := col.Len()
	switch typed := col.(type) {
	case *dataset.NumCol:
		// NaN is the missing marker, no mask needed
		doc.Nums = make([]float64, n)
		for i := 0; i < n; i += 1 {
			v, ok := typed.Value(i)
			if !ok {
				doc.Nums[i] = math.NaN()
				continue
			}
			doc.Nums[i] = v
		}
	case *dataset.CatCol:
		doc.Cats = make([]string, n)
		na := make([]bool, n)
		masked := false
		for i := 0; i < n; i += 1 {
			v, ok := typed.Value(i)
			if !ok {
				na[i] = true
				masked = true
				continue
			}
			doc.Cats[i] = v
		}
		if masked {
			doc.NA = na
		}
	case *dataset.TimeCol:
		doc.Times = make([]int64, n)
		na := make([]bool, n)
		masked := false
		for i := 0; i < n; i += 1 {
			v, ok := typed.Value(i)
			if !ok {
				na[i] = true
				masked = true
				continue
			}
			doc.Times[i] = v.UnixMicro()
		}
		if masked {
			doc.NA = na
		}
	case *dataset.RawCol:
		doc.Raws = make([]cbor.RawMessage, n)
		for i := 0; i < n; i += 1 {
			raw, err := c.em.Marshal(typed.Value(i))
			if err != nil {
				return colDoc{}, fmt.Errorf("encode column %q: %w", col.Name(), err)
			}
			doc.Raws[i] = raw
		}
	default:
		return colDoc{}, fmt.Errorf("encode column %q: unsupported column type %T", col.Name(), col)
	}
	return doc, nil
}

func (c *Codec) decodeColumn(doc colDoc) (dataset.Column, error) {
	switch dataset.Family(doc.Family) {
	case dataset.FamilyNumeric:
		return dataset.NewNumCol(doc.Name, doc.Nums, doc.NA), nil
	case dataset.FamilyCategorical:
		return dataset.NewCatCol(doc.Name, doc.Cats, doc.NA), nil
	case dataset.FamilyDatetime:
		vals := make([]time.Time, len(doc.Times))
		for i, micros := range doc.Times {
			vals[i] = time.UnixMicro(micros).UTC()
		}
		return dataset.NewTimeCol(doc.Name, vals, doc.NA), nil
	case dataset.FamilyUnsupported:
		vals := make([]any, len(doc.Raws))
		for i, raw := range doc.Raws {
			var v any
			if err := c.dm.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("decode column %q: %w", doc.Name, err)
			}
			vals[i] = v
		}
		return dataset.NewRawCol(doc.Name, vals), nil
	default:
		return nil, fmt.Errorf("decode column %q: unknown family %d", doc.Name, doc.Family)
	}
}

// EncodeAttr encodes one attribute value.
func (c *Codec) EncodeAttr(name dataset.Attr, v any) ([]byte, error) {
	buf, err := c.em.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode attribute %q: %w", name, err)
	}
	return buf, nil
}

// DecodeAttr decodes one attribute document into the concrete type the
// attribute carries.
func (c *Codec) DecodeAttr(name dataset.Attr, buf []byte) (any, error) {
	var v any
	var err error
	switch name {
	case dataset.AttrTotObjectSize:
		var size float64
		err = c.dm.Unmarshal(buf, &size)
		v = size
	case dataset.AttrNDiv, dataset.AttrNRow:
		var n int64
		err = c.dm.Unmarshal(buf, &n)
		v = n
	case dataset.AttrKeys:
		var keys []dataset.Key
		err = c.dm.Unmarshal(buf, &keys)
		v = keys
	case dataset.AttrKeyHashes:
		var hashes []string
		err = c.dm.Unmarshal(buf, &hashes)
		v = hashes
	case dataset.AttrSplitSizeDistn, dataset.AttrSplitRowDistn:
		var table []stats.Percentile
		err = c.dm.Unmarshal(buf, &table)
		v = table
	case dataset.AttrSummary:
		var summary []core.SummaryEntry
		err = c.dm.Unmarshal(buf, &summary)
		v = summary
	default:
		return nil, fmt.Errorf("decode attribute %q: unknown attribute", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode attribute %q: %w", name, err)
	}
	return v, nil
}

type metaDoc struct {
	Kind    uint8                `cbor:"kind"`
	Columns []dataset.ColumnSpec `cbor:"columns,omitempty"`
}

// EncodeMeta encodes the store's own descriptor document.
func (c *Codec) EncodeMeta(kind dataset.Kind, columns []dataset.ColumnSpec) ([]byte, error) {
	return c.em.Marshal(metaDoc{Kind: uint8(kind), Columns: columns})
}

func (c *Codec) DecodeMeta(buf []byte) (dataset.Kind, []dataset.ColumnSpec, error) {
	var doc metaDoc
	if err := c.dm.Unmarshal(buf, &doc); err != nil {
		return 0, nil, fmt.Errorf("decode store meta: %w", err)
	}
	return dataset.Kind(doc.Kind), doc.Columns, nil
}
