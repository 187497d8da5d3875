package rechunk

import (
	"github.com/janelia-flyem/rechunk/voxel"
)

// chunkReader loads the input chunk at XYZ grid index (xc, yc, zc).
// The coordinator supplies one that resolves the chunk filename and
// casts the buffer to the output voxel type.
type chunkReader func(xc, yc, zc int) (*voxel.Buffer, error)

// A planeSet holds the input chunks covering one output chunk's XY
// footprint at a fixed input Z index. Unneeded neighbors stay nil.
type planeSet [4]*voxel.Buffer

const (
	planeCur = iota // chunk at (xa.Chunk, ya.Chunk)
	planeX          // +1 in X, needed when xa.Stitch
	planeY          // +1 in Y, needed when ya.Stitch
	planeXY         // +1 in both, needed when both stitch
)

// fetchPlanes loads the 1, 2, or 4 input chunks the X/Y alignment flags
// require at input Z index zc.
func fetchPlanes(read chunkReader, zc int, xa, ya AxisAlignment) (planeSet, error) {
	var planes planeSet
	var err error
	if planes[planeCur], err = read(xa.Chunk, ya.Chunk, zc); err != nil {
		return planes, err
	}
	if xa.Stitch {
		if planes[planeX], err = read(xa.Chunk+1, ya.Chunk, zc); err != nil {
			return planes, err
		}
	}
	if ya.Stitch {
		if planes[planeY], err = read(xa.Chunk, ya.Chunk+1, zc); err != nil {
			return planes, err
		}
	}
	if xa.Stitch && ya.Stitch {
		if planes[planeXY], err = read(xa.Chunk+1, ya.Chunk+1, zc); err != nil {
			return planes, err
		}
	}
	return planes, nil
}
