package core

import (
	"fmt"
	"sort"

	"divstats/dataset"
	"divstats/stats"
)

// assemble reshapes the finalized tag results of one pass into a
// GlobalAttributes record. Keys are sorted so output is deterministic
// regardless of fold order, key hashes follow the sorted keys, and the
// summary is reordered to the declared column order; entries for columns
// the schema no longer declares are dropped.
func assemble(obj Object, results map[dataset.Tag]any) (*GlobalAttributes, error) {
	g := &GlobalAttributes{}
	entries := make(map[string]SummaryEntry)

	for tag, v := range results {
		switch tag.Attr {
		case dataset.AttrTotObjectSize:
			size, ok := v.(float64)
			if !ok {
				return nil, badResult(tag, v)
			}
			g.TotObjectSize = size
		case dataset.AttrNDiv:
			n, ok := v.(int64)
			if !ok {
				return nil, badResult(tag, v)
			}
			g.NDiv = n
		case dataset.AttrNRow:
			n, ok := v.(int64)
			if !ok {
				return nil, badResult(tag, v)
			}
			g.NRow = n
		case dataset.AttrKeys:
			keys, ok := v.([]dataset.Key)
			if !ok {
				return nil, badResult(tag, v)
			}
			g.Keys = keys
		case dataset.AttrSplitSizeDistn:
			table, ok := v.([]stats.Percentile)
			if !ok {
				return nil, badResult(tag, v)
			}
			g.SplitSizeDistn = table
		case dataset.AttrSplitRowDistn:
			table, ok := v.([]stats.Percentile)
			if !ok {
				return nil, badResult(tag, v)
			}
			g.SplitRowDistn = table
		case dataset.AttrSummary:
			entry, ok := v.(SummaryEntry)
			if !ok {
				return nil, badResult(tag, v)
			}
			entries[tag.Column] = entry
		default:
			return nil, fmt.Errorf("assemble: unexpected result tag %s", tag)
		}
	}

	if g.Keys != nil {
		sort.Slice(g.Keys, func(i, j int) bool { return g.Keys[i] < g.Keys[j] })
		g.KeyHashes = dataset.KeyHashes(g.Keys)
	}

	if len(entries) > 0 {
		for _, spec := range obj.Columns() {
			if entry, ok := entries[spec.Name]; ok {
				g.Summary = append(g.Summary, entry)
			}
		}
	}
	return g, nil
}

func badResult(tag dataset.Tag, v any) error {
	return fmt.Errorf("assemble: unexpected %T value for %s", v, tag)
}

// attrMap expands the record into the attribute values to store, one per
// planned attribute. Scheduling keys always stores keyHashes with it.
func (g *GlobalAttributes) attrMap(nd need) map[dataset.Attr]any {
	attrs := make(map[dataset.Attr]any, len(nd)+1)
	for attr := range nd {
		switch attr {
		case dataset.AttrTotObjectSize:
			attrs[attr] = g.TotObjectSize
		case dataset.AttrNDiv:
			attrs[attr] = g.NDiv
		case dataset.AttrNRow:
			attrs[attr] = g.NRow
		case dataset.AttrKeys:
			attrs[dataset.AttrKeys] = g.Keys
			attrs[dataset.AttrKeyHashes] = g.KeyHashes
		case dataset.AttrSplitSizeDistn:
			attrs[attr] = g.SplitSizeDistn
		case dataset.AttrSplitRowDistn:
			attrs[attr] = g.SplitRowDistn
		case dataset.AttrSummary:
			attrs[attr] = g.Summary
		}
	}
	return attrs
}
