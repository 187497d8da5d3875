package rechunk

import (
	"testing"
)

func TestPartitionSlices(t *testing.T) {
	tests := []struct {
		n, workers int
	}{
		{100, 16},
		{7, 3},
		{5, 8},
		{1, 4},
		{64, 64},
		{13, 1},
		{30, 4},
	}
	for _, test := range tests {
		ranges := partitionSlices(test.n, test.workers)

		// The ranges must tile [0, n) contiguously with no overlap.
		next := 0
		for _, r := range ranges {
			if r[0] != next {
				t.Fatalf("n=%d workers=%d: range starts at %d, want %d", test.n, test.workers, r[0], next)
			}
			if r[1] <= r[0] {
				t.Fatalf("n=%d workers=%d: empty range [%d, %d)", test.n, test.workers, r[0], r[1])
			}
			next = r[1]
		}
		if next != test.n {
			t.Errorf("n=%d workers=%d: ranges cover [0, %d), want [0, %d)", test.n, test.workers, next, test.n)
		}

		want := test.workers
		if want > test.n {
			want = test.n
		}
		if len(ranges) != want {
			t.Errorf("n=%d workers=%d: got %d ranges, want %d", test.n, test.workers, len(ranges), want)
		}

		// Lengths are near-equal with any remainder on the leading ranges.
		for i := 1; i < len(ranges); i++ {
			prev := ranges[i-1][1] - ranges[i-1][0]
			cur := ranges[i][1] - ranges[i][0]
			if prev < cur || prev-cur > 1 {
				t.Errorf("n=%d workers=%d: range lengths %d then %d", test.n, test.workers, prev, cur)
			}
		}
	}

	if ranges := partitionSlices(0, 4); ranges != nil {
		t.Errorf("Expected no ranges for an empty slab, got %v", ranges)
	}
}
