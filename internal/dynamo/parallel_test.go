package dynamo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestParallelFor_CoversRange(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, n := range []int{0, 1, 7, 64, 1000} {
		out := make([]int, n)
		err := ParallelFor(context.Background(), n, 8, func(start, end int) error {
			for i := start; i < end; i++ {
				out[i] = i * i
			}
			return nil
		})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}

		want := make([]int, n)
		for i := range want {
			want[i] = i * i
		}
		if diff := cmp.Diff(want, out); diff != "" {
			t.Errorf("n=%d: mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestParallelFor_VisitsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	var visits atomic.Int64
	err := ParallelFor(context.Background(), 500, 3, func(start, end int) error {
		visits.Add(int64(end - start))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visits.Load() != 500 {
		t.Errorf("expected 500 visits, got %d", visits.Load())
	}
}

func TestParallelFor_PropagatesError(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	err := ParallelFor(context.Background(), 100, 1, func(start, end int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
