package dataset

// Attr names a dataset-level attribute.
type Attr string

const (
	// AttrTotObjectSize is the estimated total in-memory footprint of
	// every partition value, in bytes.
	AttrTotObjectSize Attr = "totObjectSize"
	// AttrNDiv is the partition count.
	AttrNDiv Attr = "nDiv"
	// AttrNRow is the total row count of a tabular dataset.
	AttrNRow Attr = "nRow"
	// AttrKeys is the sorted list of partition keys.
	AttrKeys Attr = "keys"
	// AttrKeyHashes holds the fingerprint of each entry of AttrKeys, in
	// the same order.
	AttrKeyHashes Attr = "keyHashes"
	// AttrSplitSizeDistn is the percentile table of per-partition sizes.
	AttrSplitSizeDistn Attr = "splitSizeDistn"
	// AttrSplitRowDistn is the percentile table of per-partition row
	// counts.
	AttrSplitRowDistn Attr = "splitRowDistn"
	// AttrSummary is the per-column summary table of a tabular dataset.
	AttrSummary Attr = "summary"
)

// Tag routes one local contribution to its combine group. Summary
// contributions carry the column and its family so every column folds
// independently; shape attributes leave those fields zero.
type Tag struct {
	Attr   Attr
	Family Family
	Column string
}

// ShapeTag tags a whole-dataset contribution.
func ShapeTag(attr Attr) Tag {
	return Tag{Attr: attr}
}

// SummaryTag tags a per-column summary contribution.
func SummaryTag(family Family, column string) Tag {
	return Tag{Attr: AttrSummary, Family: family, Column: column}
}

func (t Tag) String() string {
	if t.Attr != AttrSummary {
		return string(t.Attr)
	}
	return string(t.Attr) + "/" + t.Family.String() + "/" + t.Column
}
