package rechunk

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/voxel"
)

// WriteChunked splits one in-memory volume into a grid of chunk files,
// clipping chunks at the volume border. The path spec holds three %d
// slots filled with XYZ chunk indices, and the chunk size is an XYZ
// triple.
func WriteChunked(buf *voxel.Buffer, outSpec string, chunkSizeXYZ [3]int) error {
	timeLog := voxel.NewTimeLog()

	out := chunkio.PathSpec(outSpec)
	if err := out.Validate(3); err != nil {
		return err
	}
	chunkSize := voxel.SizeFromXYZ(chunkSizeXYZ[0], chunkSizeXYZ[1], chunkSizeXYZ[2])
	if !chunkSize.Valid() {
		return fmt.Errorf("%w: chunk size %s must be positive", ErrInvalidConversion, chunkSize)
	}
	if err := buf.CheckSize(); err != nil {
		return err
	}

	chunks := gridCells(buf.Size, chunkSize)
	dsize := buf.DType.Size()
	written := 0
	for zc := 0; zc < chunks[voxel.Z]; zc++ {
		for yc := 0; yc < chunks[voxel.Y]; yc++ {
			for xc := 0; xc < chunks[voxel.X]; xc++ {
				idx := voxel.Index3{zc, yc, xc}
				var off, ext voxel.Size3
				for axis := range off {
					off[axis] = idx[axis] * chunkSize[axis]
					ext[axis] = chunkSize[axis]
					if off[axis]+ext[axis] > buf.Size[axis] {
						ext[axis] = buf.Size[axis] - off[axis]
					}
				}
				chunk := voxel.NewBuffer(buf.DType, ext)
				for z := 0; z < ext[voxel.Z]; z++ {
					for y := 0; y < ext[voxel.Y]; y++ {
						srcOff := (((off[voxel.Z]+z)*buf.Size[voxel.Y]+off[voxel.Y]+y)*buf.Size[voxel.X] + off[voxel.X]) * dsize
						dstOff := (z*ext[voxel.Y] + y) * ext[voxel.X] * dsize
						copy(chunk.Data[dstOff:dstOff+ext[voxel.X]*dsize], buf.Data[srcOff:srcOff+ext[voxel.X]*dsize])
					}
				}
				if err := chunkio.WriteVolume(chunk, out.Chunk(xc, yc, zc), nil); err != nil {
					return err
				}
				written++
			}
		}
	}
	timeLog.Infof("Split %s volume %s into %d chunks (%s)",
		buf.DType, buf.Size, written, humanize.Bytes(uint64(len(buf.Data))))
	return nil
}
