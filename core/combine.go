package core

import (
	"fmt"

	"divstats/dataset"
	"divstats/stats"
)

// combineTag folds two partial accumulators for one tag. It dispatches
// on the attribute and, for summary tags, the column family. Associative
// and commutative; takes ownership of both operands.
func combineTag(tag dataset.Tag, a, b any) (any, error) {
	switch tag.Attr {
	case dataset.AttrTotObjectSize:
		av, aok := a.(float64)
		bv, bok := b.(float64)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return av + bv, nil
	case dataset.AttrNDiv, dataset.AttrNRow:
		av, aok := a.(int64)
		bv, bok := b.(int64)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return av + bv, nil
	case dataset.AttrKeys:
		av, aok := a.([]dataset.Key)
		bv, bok := b.([]dataset.Key)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return append(av, bv...), nil
	case dataset.AttrSplitSizeDistn, dataset.AttrSplitRowDistn:
		av, aok := a.(*stats.Pool)
		bv, bok := b.(*stats.Pool)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return av.Merge(bv), nil
	case dataset.AttrSummary:
		return combineSummary(tag, a, b)
	default:
		return nil, fmt.Errorf("no combiner for attribute %q", tag.Attr)
	}
}

func combineSummary(tag dataset.Tag, a, b any) (any, error) {
	switch tag.Family {
	case dataset.FamilyNumeric:
		av, aok := a.(*numAcc)
		bv, bok := b.(*numAcc)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return av.merge(bv), nil
	case dataset.FamilyCategorical:
		av, aok := a.(*stats.Freq)
		bv, bok := b.(*stats.Freq)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return av.Merge(bv), nil
	case dataset.FamilyDatetime:
		av, aok := a.(*timeAcc)
		bv, bok := b.(*timeAcc)
		if !aok || !bok {
			return nil, typeMismatch(a, b)
		}
		return av.merge(bv), nil
	default:
		return nil, fmt.Errorf("no combiner for family %q", tag.Family)
	}
}

// finalizeTag converts a fully folded accumulator into its reportable
// form: percentile tables for the pools, summary entries for the
// per-column accumulators, pass-throughs for the plain sums.
func finalizeTag(tag dataset.Tag, acc any) (any, error) {
	switch tag.Attr {
	case dataset.AttrTotObjectSize, dataset.AttrNDiv, dataset.AttrNRow, dataset.AttrKeys:
		return acc, nil
	case dataset.AttrSplitSizeDistn, dataset.AttrSplitRowDistn:
		pool, ok := acc.(*stats.Pool)
		if !ok {
			return nil, typeMismatch(acc, nil)
		}
		return pool.Table(), nil
	case dataset.AttrSummary:
		return finalizeSummary(tag, acc)
	default:
		return nil, fmt.Errorf("no finalizer for attribute %q", tag.Attr)
	}
}

func finalizeSummary(tag dataset.Tag, acc any) (any, error) {
	entry := SummaryEntry{Column: tag.Column, Family: tag.Family}
	switch v := acc.(type) {
	case *numAcc:
		entry.NA = v.na
		entry.Stats = &NumStats{
			Mean:     v.moments.Mean(),
			Variance: v.moments.Variance(),
			Skewness: v.moments.Skewness(),
			Kurtosis: v.moments.Kurtosis(),
		}
		entry.Range = v.rng
	case *stats.Freq:
		entry.NA = v.NA
		entry.Freq = v.Counts
		entry.Complete = v.Complete()
		entry.ApproxDistinct = v.Distinct()
	case *timeAcc:
		entry.NA = v.na
		entry.TimeRange = v.rng
	default:
		return nil, typeMismatch(acc, nil)
	}
	return entry, nil
}

func typeMismatch(a, b any) error {
	if b == nil {
		return fmt.Errorf("unexpected accumulator type %T", a)
	}
	return fmt.Errorf("mismatched accumulator types %T and %T", a, b)
}
