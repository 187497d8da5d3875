package rechunk

import (
	"errors"
	"fmt"
)

// ErrGeometry is returned when alignment bookkeeping produces a copy
// region outside the fetched input chunks. It indicates a defect in the
// geometry tracking, not bad input, and aborts the whole conversion.
var ErrGeometry = errors.New("chunk geometry failure")

// AxisAlignment tracks, along one axis, how the output chunk currently
// being produced overlaps the input chunk grid. An output chunk draws
// rows [Start,End) from input chunk Chunk and, when Stitch is set, the
// first Next rows of input chunk Chunk+1.
type AxisAlignment struct {
	Chunk  int  // input chunk index along the axis
	Start  int  // first input row consumed from Chunk
	End    int  // one past the last input row consumed from Chunk
	Stitch bool // output chunk continues into input chunk Chunk+1
	Next   int  // rows consumed from input chunk Chunk+1 when stitching
	Extent int  // output chunk extent along the axis
	Remain int  // axis rows still to emit after this output chunk
}

// NewAxisAlignment returns the alignment state preceding the first
// output chunk of an axis of the given volume extent. The first Step
// call yields the first output chunk's alignment.
func NewAxisAlignment(dim int) AxisAlignment {
	return AxisAlignment{Remain: dim}
}

// Step advances the alignment by one output chunk along an axis with
// input chunk extent cin and output chunk extent cout. The receiver is
// not modified, so single steps can be replayed and tested in
// isolation.
func (a AxisAlignment) Step(cin, cout int) AxisAlignment {
	next := AxisAlignment{Chunk: a.Chunk}
	start := a.End
	if a.Stitch {
		next.Chunk++
		start = a.Next
	}
	if start == cin {
		next.Chunk++
		start = 0
	}
	needed := cout
	if a.Remain < needed {
		needed = a.Remain
	}
	take := cin - start
	if needed < take {
		take = needed
	}
	next.Start = start
	next.End = start + take
	next.Stitch = take < needed
	next.Next = needed - take
	next.Extent = needed
	next.Remain = a.Remain - needed
	return next
}

// check rejects alignment states that cannot be satisfied by the
// current input chunk plus a single stitch neighbor of extent cin.
func (a AxisAlignment) check(axis string, cin int) error {
	if a.Start < 0 || a.End <= a.Start || a.End > cin || a.Next > cin {
		return fmt.Errorf("%w: %s alignment %+v incompatible with input chunk extent %d",
			ErrGeometry, axis, a, cin)
	}
	return nil
}
