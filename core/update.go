package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"divstats/dataset"
	"divstats/executor"
	"divstats/stats"
)

// Engine computes the missing attributes of a dataset in one
// map/combine pass. The zero configuration runs in-process over all
// CPUs with the default capabilities; setters override individual
// pieces and chain.
type Engine struct {
	caps      *Capabilities
	runner    executor.Runner
	transform dataset.TransformFunc
	sizeOf    dataset.SizeFunc
	freqCap   int
	log       *slog.Logger
}

func NewEngine() *Engine {
	return &Engine{
		caps:    DefaultCapabilities(),
		runner:  executor.NewLocal(0),
		sizeOf:  dataset.EstimateSize,
		freqCap: stats.DefaultFreqCap,
		log:     slog.Default(),
	}
}

func (e *Engine) SetCapabilities(caps *Capabilities) *Engine {
	e.caps = caps
	return e
}

// SetRunner replaces the in-process executor, e.g. with a runner that
// ships the pass to remote workers.
func (e *Engine) SetRunner(r executor.Runner) *Engine {
	e.runner = r
	return e
}

// SetTransform reshapes each partition before row counts and column
// summaries are taken. Shape attributes still see the stored value.
func (e *Engine) SetTransform(fn dataset.TransformFunc) *Engine {
	e.transform = fn
	return e
}

func (e *Engine) SetSizeFunc(fn dataset.SizeFunc) *Engine {
	e.sizeOf = fn
	return e
}

// SetFreqCap bounds the retained categories per categorical column.
func (e *Engine) SetFreqCap(n int) *Engine {
	e.freqCap = n
	return e
}

func (e *Engine) SetLogger(log *slog.Logger) *Engine {
	e.log = log
	return e
}

// Result reports what one Update call did. When nothing was missing,
// Updated is false and Global is nil.
type Result struct {
	Updated  bool
	Computed []dataset.Attr
	Global   *GlobalAttributes
}

// Update fills in the object's missing attributes and stores them on the
// object. It computes only what the capability table requires for the
// object's kind and what is not already present, so a second call is a
// no-op. The pass either completes fully or leaves the object untouched.
func (e *Engine) Update(ctx context.Context, obj Object) (*Result, error) {
	nd, err := plan(obj, e.caps)
	if err != nil {
		return nil, err
	}
	if len(nd) == 0 {
		e.log.Debug("attributes already present", "kind", obj.Kind().String())
		return &Result{}, nil
	}

	job := executor.Job{
		Map:      buildContrib(nd, e.transform, e.sizeOf, e.freqCap),
		Combine:  combineTag,
		Finalize: finalizeTag,
	}
	results, err := e.runner.Run(ctx, obj.Cursor(), job)
	if err != nil {
		return nil, fmt.Errorf("attribute pass: %w", err)
	}

	global, err := assemble(obj, results)
	if err != nil {
		return nil, err
	}
	attrs := global.attrMap(nd)
	obj.SetAttrs(attrs)

	computed := make([]dataset.Attr, 0, len(attrs))
	for name := range attrs {
		computed = append(computed, name)
	}
	sort.Slice(computed, func(i, j int) bool { return computed[i] < computed[j] })

	e.log.Info("computed dataset attributes",
		"kind", obj.Kind().String(),
		"attrs", len(computed),
		"partitions", global.NDiv)
	return &Result{Updated: true, Computed: computed, Global: global}, nil
}

// Update computes missing attributes with a default engine.
func Update(ctx context.Context, obj Object) (*Result, error) {
	return NewEngine().Update(ctx, obj)
}
