// Package executor runs map/combine passes over dataset partitions.
//
// A Job is expressed as plain function values so that a runner can ship
// or wrap them however it likes. Local is the in-process runner; remote
// runners satisfy the same calling convention: map every partition,
// fold contributions per tag with an associative commutative combine,
// finalize each folded accumulator once.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"divstats/dataset"
)

// QueueSize is the partition channel buffer between the feeder and the
// map workers.
const QueueSize = 100

// Contribution is one keyed partial statistic emitted by the map stage.
type Contribution struct {
	Tag   dataset.Tag
	Value any
}

// Job is one pass over a dataset's partitions.
//
// Setup runs once per worker before it maps anything. Map must be pure
// per partition. Combine folds two partial accumulators for one tag; it
// must be associative and commutative, treat empty accumulators as
// identities, and takes ownership of both operands. Finalize converts a
// fully folded accumulator into its reportable form and runs exactly
// once per tag.
type Job struct {
	Setup    func(ctx context.Context) error
	Map      func(p dataset.Partition) ([]Contribution, error)
	Combine  func(tag dataset.Tag, a, b any) (any, error)
	Finalize func(tag dataset.Tag, acc any) (any, error)
}

// Runner is the execution backend contract.
type Runner interface {
	Run(ctx context.Context, cur dataset.Cursor, job Job) (map[dataset.Tag]any, error)
}

// Local runs jobs in-process with a pool of map workers. Each worker
// folds its own per-tag partials as it goes, the partials fold into one
// global accumulator set, and Finalize runs per tag. Partition order and
// fold order are both unspecified, which is exactly the freedom the
// combine contract grants.
type Local struct {
	Workers int
}

// NewLocal builds a local runner. workers <= 0 means GOMAXPROCS.
func NewLocal(workers int) *Local {
	return &Local{Workers: workers}
}

func (l *Local) Run(ctx context.Context, cur dataset.Cursor, job Job) (map[dataset.Tag]any, error) {
	workers := l.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	parts := make(chan dataset.Partition, QueueSize)
	partials := make(chan map[dataset.Tag]any, workers)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(parts)
		for {
			p, err := cur.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read partition: %w", err)
			}
			select {
			case parts <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for w := 0; w < workers; w += 1 {
		g.Go(func() error {
			if job.Setup != nil {
				if err := job.Setup(ctx); err != nil {
					return fmt.Errorf("worker setup: %w", err)
				}
			}
			local := make(map[dataset.Tag]any)
			for p := range parts {
				contribs, err := job.Map(p)
				if err != nil {
					return fmt.Errorf("map partition %q: %w", p.Key, err)
				}
				for _, c := range contribs {
					if err := foldInto(local, job, c.Tag, c.Value); err != nil {
						return err
					}
				}
			}
			partials <- local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(partials)

	global := make(map[dataset.Tag]any)
	for local := range partials {
		for tag, v := range local {
			if err := foldInto(global, job, tag, v); err != nil {
				return nil, err
			}
		}
	}

	out := make(map[dataset.Tag]any, len(global))
	for tag, acc := range global {
		v := acc
		if job.Finalize != nil {
			fv, err := job.Finalize(tag, acc)
			if err != nil {
				return nil, fmt.Errorf("finalize %s: %w", tag, err)
			}
			v = fv
		}
		out[tag] = v
	}
	return out, nil
}

func foldInto(acc map[dataset.Tag]any, job Job, tag dataset.Tag, v any) error {
	prev, ok := acc[tag]
	if !ok {
		acc[tag] = v
		return nil
	}
	merged, err := job.Combine(tag, prev, v)
	if err != nil {
		return fmt.Errorf("combine %s: %w", tag, err)
	}
	acc[tag] = merged
	return nil
}
