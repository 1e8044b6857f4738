package stats

import "github.com/axiomhq/hyperloglog"

// DefaultFreqCap bounds the number of distinct categories a frequency
// table retains.
const DefaultFreqCap = 10000

// Freq is a capped frequency table over category labels. Once Cap
// distinct categories are retained, values outside the retained set are
// dropped rather than evicting an existing entry, so a truncated table
// depends on observation order. Total still counts every observed value
// and the sketch still sees every category, which keeps completeness
// detection and the distinct estimate honest under truncation.
type Freq struct {
	Counts map[string]int64
	NA     int64
	Total  int64
	Cap    int

	sketch *hyperloglog.Sketch
}

func NewFreq(cap int) *Freq {
	if cap <= 0 {
		cap = DefaultFreqCap
	}
	return &Freq{
		Counts: make(map[string]int64),
		Cap:    cap,
		sketch: hyperloglog.New14(),
	}
}

// Observe counts one present value.
func (f *Freq) Observe(category string) {
	f.Total += 1
	f.sketch.Insert([]byte(category))
	if _, ok := f.Counts[category]; !ok && len(f.Counts) >= f.Cap {
		return
	}
	f.Counts[category] += 1
}

// ObserveNA counts one missing value.
func (f *Freq) ObserveNA() {
	f.Total += 1
	f.NA += 1
}

// Merge folds o into a combined table. Counts for categories retained on
// both sides always sum; categories only o retains are admitted while the
// combined table is under cap. Empty operands are identities; ownership
// of both operands passes to the result.
func (f *Freq) Merge(o *Freq) *Freq {
	if o == nil || o.Total == 0 {
		return f
	}
	if f.Total == 0 {
		return o
	}
	out := &Freq{
		Counts: f.Counts,
		NA:     f.NA + o.NA,
		Total:  f.Total + o.Total,
		Cap:    f.Cap,
		sketch: f.sketch,
	}
	for category, count := range o.Counts {
		if _, ok := out.Counts[category]; !ok && len(out.Counts) >= out.Cap {
			continue
		}
		out.Counts[category] += count
	}
	_ = out.sketch.Merge(o.sketch)
	return out
}

// Retained is the number of values the table accounts for by category.
func (f *Freq) Retained() int64 {
	var total int64
	for _, count := range f.Counts {
		total += count
	}
	return total
}

// Complete reports whether every observed value is either missing or
// counted under a retained category, i.e. the table was never truncated.
func (f *Freq) Complete() bool {
	return f.Total == f.NA+f.Retained()
}

// Distinct estimates the distinct category count, including categories
// the cap dropped.
func (f *Freq) Distinct() uint64 {
	return f.sketch.Estimate()
}
