package rechunk

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/rechunk/voxel"
)

// partitionSlices splits n slices into at most workers contiguous
// [lo,hi) ranges of near-equal length, with any remainder adding one
// slice to each of the first ranges.
func partitionSlices(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	base, extra := n/workers, n%workers
	ranges := make([][2]int, workers)
	lo := 0
	for w := range ranges {
		count := base
		if w < extra {
			count++
		}
		ranges[w] = [2]int{lo, lo + count}
		lo += count
	}
	return ranges
}

// A bandPass assembles part of one output chunk from the input chunks
// of a single input Z layer. The pass fills output Z slices
// [outZ, outZ+slices) from input Z slices [inZ, inZ+slices) of the
// fetched planes.
type bandPass struct {
	out     *voxel.Buffer // output chunk buffer, ZYX
	planes  planeSet
	chunkIn voxel.Size3 // nominal input chunk extents
	xa, ya  AxisAlignment
	outZ    int
	inZ     int
	slices  int
}

// compose runs the pass, partitioning its slices across worker
// goroutines. Workers write disjoint Z ranges of the output buffer, so
// no locking is needed; file I/O never happens here.
func (p *bandPass) compose(threads int) error {
	if err := p.xa.check("x", p.chunkIn[voxel.X]); err != nil {
		return err
	}
	if err := p.ya.check("y", p.chunkIn[voxel.Y]); err != nil {
		return err
	}
	var g errgroup.Group
	for _, r := range partitionSlices(p.slices, threads) {
		lo, hi := r[0], r[1]
		g.Go(func() error {
			for dz := lo; dz < hi; dz++ {
				if err := p.composeSlice(dz); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// composeSlice fills one XY slice of the output buffer by copying row
// spans from the 1, 2, or 4 fetched planes. A row is split into a left
// span from the current X chunk and, when X-stitching, a right span
// from the +X neighbor; rows past the current Y chunk extent come from
// the +Y neighbors.
func (p *bandPass) composeSlice(dz int) error {
	outZ := p.outZ + dz
	inZ := p.inZ + dz
	dsize := p.out.DType.Size()
	left := p.xa.End - p.xa.Start
	for y := 0; y < p.ya.Extent; y++ {
		srcY := p.ya.Start + y
		pl, pr := planeCur, planeX
		if srcY >= p.chunkIn[voxel.Y] {
			srcY -= p.chunkIn[voxel.Y]
			pl, pr = planeY, planeXY
		}
		outOff := (outZ*p.out.Size[voxel.Y] + y) * p.out.Size[voxel.X] * dsize
		if err := p.copySpan(p.planes[pl], p.xa.Start, srcY, inZ, left, outOff); err != nil {
			return err
		}
		if p.xa.Next > 0 {
			if err := p.copySpan(p.planes[pr], 0, srcY, inZ, p.xa.Next, outOff+left*dsize); err != nil {
				return err
			}
		}
	}
	return nil
}

// copySpan copies width voxels of one X row from src into the output
// buffer at byte offset outOff, checking the source region against the
// actual extents of the fetched chunk.
func (p *bandPass) copySpan(src *voxel.Buffer, srcX, srcY, srcZ, width, outOff int) error {
	if src == nil {
		return fmt.Errorf("%w: x alignment %+v, y alignment %+v requires a neighbor chunk that was not fetched",
			ErrGeometry, p.xa, p.ya)
	}
	if srcX+width > src.Size[voxel.X] || srcY >= src.Size[voxel.Y] || srcZ >= src.Size[voxel.Z] {
		return fmt.Errorf("%w: %d-voxel span at (x %d, y %d, z %d) outside input chunk extents %s, x alignment %+v, y alignment %+v",
			ErrGeometry, width, srcX, srcY, srcZ, src.Size, p.xa, p.ya)
	}
	dsize := src.DType.Size()
	srcOff := ((srcZ*src.Size[voxel.Y]+srcY)*src.Size[voxel.X] + srcX) * dsize
	copy(p.out.Data[outOff:outOff+width*dsize], src.Data[srcOff:srcOff+width*dsize])
	return nil
}
