package rechunk

import (
	"errors"
	"fmt"

	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/voxel"
)

// ErrInvalidConversion is returned for chunk geometries the engine
// cannot rechunk. Assembly draws from at most two input chunks per
// axis, so every output chunk extent must satisfy Cout <= 2*Cin, and
// the volume must hold at least one full output chunk per axis.
var ErrInvalidConversion = errors.New("invalid chunk size conversion")

var axisNames = [3]string{"z", "y", "x"}

// GridConfig describes the input and output chunk grids over one
// volume. All extents are ZYX ordered.
type GridConfig struct {
	ChunkIn   voxel.Size3
	ChunkOut  voxel.Size3
	VolumeDim voxel.Size3
}

// ValidateChunkSizes checks the chunk size ratio rule. It needs no
// volume extents, so callers reject bad configurations before reading
// any chunk file.
func ValidateChunkSizes(chunkIn, chunkOut voxel.Size3) error {
	if !chunkIn.Valid() {
		return fmt.Errorf("%w: input chunk size %s must be positive", ErrInvalidConversion, chunkIn)
	}
	if !chunkOut.Valid() {
		return fmt.Errorf("%w: output chunk size %s must be positive", ErrInvalidConversion, chunkOut)
	}
	for axis, name := range axisNames {
		if chunkOut[axis] > 2*chunkIn[axis] {
			return fmt.Errorf("%w: output chunk extent %d along %s is more than twice the input extent %d",
				ErrInvalidConversion, chunkOut[axis], name, chunkIn[axis])
		}
	}
	return nil
}

// Validate checks the full grid configuration.
func (g GridConfig) Validate() error {
	if err := ValidateChunkSizes(g.ChunkIn, g.ChunkOut); err != nil {
		return err
	}
	for axis, name := range axisNames {
		if g.VolumeDim[axis] < g.ChunkOut[axis] {
			return fmt.Errorf("%w: volume extent %d along %s is smaller than the output chunk extent %d",
				ErrInvalidConversion, g.VolumeDim[axis], name, g.ChunkOut[axis])
		}
	}
	return nil
}

// OutChunks returns the number of output chunks per axis.
func (g GridConfig) OutChunks() voxel.Size3 {
	return gridCells(g.VolumeDim, g.ChunkOut)
}

// gridCells returns the per-axis cell count of a chunk grid,
// ceil(dim/chunk), counting any clipped trailing cell.
func gridCells(dim, chunk voxel.Size3) voxel.Size3 {
	var n voxel.Size3
	for axis := range n {
		n[axis] = (dim[axis] + chunk[axis] - 1) / chunk[axis]
	}
	return n
}

// ResolveVolumeDim computes the full volume extents from the input
// chunk size and the highest-index input chunk. The chunk's filename
// encodes its XYZ grid index, and its stored shape supplies the
// trailing extents since the last chunk per axis may be clipped at the
// volume border. Also returns the voxel type of the stored chunks.
func ResolveVolumeDim(lastChunk string, chunkIn voxel.Size3) (voxel.Size3, voxel.DType, error) {
	idx, err := chunkio.ParseChunkIndex(lastChunk)
	if err != nil {
		return voxel.Size3{}, voxel.DTypeUnknown, fmt.Errorf("%w: %v", ErrInvalidConversion, err)
	}
	buf, err := chunkio.ReadVolume(lastChunk)
	if err != nil {
		return voxel.Size3{}, voxel.DTypeUnknown, fmt.Errorf("reading last input chunk: %w", err)
	}
	var dim voxel.Size3
	for axis := range dim {
		dim[axis] = chunkIn[axis]*idx[axis] + buf.Size[axis]
	}
	return dim, buf.DType, nil
}
