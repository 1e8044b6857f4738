package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"divstats/dataset"
)

func intParts(n int) []dataset.Partition {
	parts := make([]dataset.Partition, n)
	for i := range parts {
		parts[i] = dataset.Partition{
			Key:   dataset.Key(fmt.Sprintf("p%03d", i)),
			Value: int64(i),
		}
	}
	return parts
}

func sumJob() Job {
	return Job{
		Map: func(p dataset.Partition) ([]Contribution, error) {
			tag := dataset.ShapeTag("odd")
			if p.Value.(int64)%2 == 0 {
				tag = dataset.ShapeTag("even")
			}
			return []Contribution{
				{Tag: dataset.ShapeTag("sum"), Value: p.Value},
				{Tag: tag, Value: int64(1)},
			}, nil
		},
		Combine: func(tag dataset.Tag, a, b any) (any, error) {
			return a.(int64) + b.(int64), nil
		},
	}
}

func TestLocal_Run(t *testing.T) {
	cur := dataset.NewSliceCursor(intParts(100))

	results, err := NewLocal(4).Run(context.Background(), cur, sumJob())
	assert.NoError(t, err)

	assert.Equal(t, int64(4950), results[dataset.ShapeTag("sum")])
	assert.Equal(t, int64(50), results[dataset.ShapeTag("even")])
	assert.Equal(t, int64(50), results[dataset.ShapeTag("odd")])
}

func TestLocal_RunWorkerCounts(t *testing.T) {
	for _, workers := range []int{0, 1, 4, 16} {
		cur := dataset.NewSliceCursor(intParts(250))
		results, err := NewLocal(workers).Run(context.Background(), cur, sumJob())
		assert.NoError(t, err)
		assert.Equal(t, int64(31125), results[dataset.ShapeTag("sum")], "workers=%d", workers)
	}
}

func TestLocal_RunOrderInsensitive(t *testing.T) {
	parts := intParts(50)
	reversed := make([]dataset.Partition, len(parts))
	for i, p := range parts {
		reversed[len(parts)-1-i] = p
	}

	a, err := NewLocal(3).Run(context.Background(), dataset.NewSliceCursor(parts), sumJob())
	assert.NoError(t, err)
	b, err := NewLocal(3).Run(context.Background(), dataset.NewSliceCursor(reversed), sumJob())
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocal_RunFinalize(t *testing.T) {
	job := sumJob()
	var finalized atomic.Int64
	job.Finalize = func(tag dataset.Tag, acc any) (any, error) {
		finalized.Add(1)
		return fmt.Sprintf("%s=%d", tag.Attr, acc.(int64)), nil
	}

	results, err := NewLocal(8).Run(context.Background(), dataset.NewSliceCursor(intParts(10)), job)
	assert.NoError(t, err)
	assert.Equal(t, "sum=45", results[dataset.ShapeTag("sum")])
	// finalize runs exactly once per tag
	assert.Equal(t, int64(3), finalized.Load())
}

func TestLocal_RunEmpty(t *testing.T) {
	job := sumJob()
	job.Finalize = func(tag dataset.Tag, acc any) (any, error) {
		t.Fatal("finalize must not run without contributions")
		return nil, nil
	}

	results, err := NewLocal(2).Run(context.Background(), dataset.NewSliceCursor(nil), job)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestLocal_RunSetupPerWorker(t *testing.T) {
	job := sumJob()
	var setups atomic.Int64
	job.Setup = func(ctx context.Context) error {
		setups.Add(1)
		return nil
	}

	_, err := NewLocal(5).Run(context.Background(), dataset.NewSliceCursor(intParts(20)), job)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), setups.Load())
}

func TestLocal_RunMapError(t *testing.T) {
	job := sumJob()
	job.Map = func(p dataset.Partition) ([]Contribution, error) {
		if p.Key == "p007" {
			return nil, errors.New("bad frame")
		}
		return nil, nil
	}

	_, err := NewLocal(4).Run(context.Background(), dataset.NewSliceCursor(intParts(20)), job)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "p007")
	assert.Contains(t, err.Error(), "bad frame")
}

func TestLocal_RunCombineError(t *testing.T) {
	job := sumJob()
	job.Combine = func(tag dataset.Tag, a, b any) (any, error) {
		return nil, errors.New("mismatched accumulators")
	}

	_, err := NewLocal(1).Run(context.Background(), dataset.NewSliceCursor(intParts(20)), job)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched accumulators")
}

func TestLocal_RunSetupError(t *testing.T) {
	job := sumJob()
	job.Setup = func(ctx context.Context) error {
		return errors.New("no scratch dir")
	}

	_, err := NewLocal(2).Run(context.Background(), dataset.NewSliceCursor(intParts(5)), job)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "worker setup")
}

type failingCursor struct {
	after int
}

func (c *failingCursor) Next() (dataset.Partition, error) {
	if c.after <= 0 {
		return dataset.Partition{}, errors.New("disk gone")
	}
	c.after -= 1
	return dataset.Partition{Key: "k", Value: int64(1)}, nil
}

func TestLocal_RunCursorError(t *testing.T) {
	_, err := NewLocal(2).Run(context.Background(), &failingCursor{after: 3}, sumJob())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read partition")
}

type endlessCursor struct{}

func (endlessCursor) Next() (dataset.Partition, error) {
	return dataset.Partition{Key: "k", Value: int64(1)}, nil
}

func TestLocal_RunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal(2).Run(ctx, endlessCursor{}, sumJob())
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkLocal_Run(b *testing.B) {
	parts := intParts(1000)
	job := sumJob()
	for i := 0; i < b.N; i++ {
		_, err := NewLocal(4).Run(context.Background(), dataset.NewSliceCursor(parts), job)
		if err != nil {
			b.Fatal(err)
		}
	}
}
