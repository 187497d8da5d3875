package rechunk

import (
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/voxel"
)

// DefaultThreads is the worker count used when Options.Threads is zero.
const DefaultThreads = 16

// Options modify a Rechunk run. The zero value keeps the stored voxel
// type and composites with DefaultThreads workers.
type Options struct {
	// Threads is the number of worker goroutines compositing each
	// Z-band pass.
	Threads int

	// DType converts input chunks to the given voxel type as they are
	// loaded, truncating values that overflow the target type.
	DType voxel.DType
}

// Rechunk converts a chunked volume from one chunk grid to another.
// Both path specs hold three %d slots filled with XYZ chunk indices,
// and the chunk sizes are XYZ triples. lastChunk names the
// highest-index input chunk, from which the volume extents and stored
// voxel type are resolved. Output chunks are written in the format
// implied by outSpec's extension.
func Rechunk(inSpec string, chunkSizeIn [3]int, lastChunk string, outSpec string, chunkSizeOut [3]int, opts *Options) error {
	timeLog := voxel.NewTimeLog()

	in := chunkio.PathSpec(inSpec)
	if err := in.Validate(3); err != nil {
		return err
	}
	out := chunkio.PathSpec(outSpec)
	if err := out.Validate(3); err != nil {
		return err
	}
	chunkIn := voxel.SizeFromXYZ(chunkSizeIn[0], chunkSizeIn[1], chunkSizeIn[2])
	chunkOut := voxel.SizeFromXYZ(chunkSizeOut[0], chunkSizeOut[1], chunkSizeOut[2])
	if err := ValidateChunkSizes(chunkIn, chunkOut); err != nil {
		return err
	}

	threads := DefaultThreads
	var dtype voxel.DType
	if opts != nil {
		if opts.Threads > 0 {
			threads = opts.Threads
		}
		dtype = opts.DType
	}

	dim, srcType, err := ResolveVolumeDim(lastChunk, chunkIn)
	if err != nil {
		return err
	}
	if dtype == voxel.DTypeUnknown {
		dtype = srcType
	}
	grid := GridConfig{ChunkIn: chunkIn, ChunkOut: chunkOut, VolumeDim: dim}
	if err := grid.Validate(); err != nil {
		return err
	}

	read := func(xc, yc, zc int) (*voxel.Buffer, error) {
		buf, err := chunkio.ReadVolume(in.Chunk(xc, yc, zc))
		if err != nil {
			return nil, err
		}
		return buf.Cast(dtype), nil
	}

	outChunks := grid.OutChunks()
	voxel.Infof("Rechunking %s volume %s from %s to %s chunks (%s output grid, %d threads).\n",
		dtype, dim, chunkIn, chunkOut, outChunks, threads)

	written := 0
	var outBytes uint64
	za := NewAxisAlignment(dim[voxel.Z])
	for ozc := 0; ozc < outChunks[voxel.Z]; ozc++ {
		za = za.Step(chunkIn[voxel.Z], chunkOut[voxel.Z])
		if err := za.check("z", chunkIn[voxel.Z]); err != nil {
			return err
		}
		ya := NewAxisAlignment(dim[voxel.Y])
		for oyc := 0; oyc < outChunks[voxel.Y]; oyc++ {
			ya = ya.Step(chunkIn[voxel.Y], chunkOut[voxel.Y])
			xa := NewAxisAlignment(dim[voxel.X])
			for oxc := 0; oxc < outChunks[voxel.X]; oxc++ {
				xa = xa.Step(chunkIn[voxel.X], chunkOut[voxel.X])

				buf := voxel.NewBuffer(dtype, voxel.Size3{za.Extent, ya.Extent, xa.Extent})
				firstZ := za.End - za.Start
				planes, err := fetchPlanes(read, za.Chunk, xa, ya)
				if err != nil {
					return err
				}
				pass := bandPass{
					out: buf, planes: planes, chunkIn: chunkIn, xa: xa, ya: ya,
					outZ: 0, inZ: za.Start, slices: firstZ,
				}
				if err := pass.compose(threads); err != nil {
					return err
				}
				if za.Stitch {
					if planes, err = fetchPlanes(read, za.Chunk+1, xa, ya); err != nil {
						return err
					}
					pass = bandPass{
						out: buf, planes: planes, chunkIn: chunkIn, xa: xa, ya: ya,
						outZ: firstZ, inZ: 0, slices: za.Next,
					}
					if err := pass.compose(threads); err != nil {
						return err
					}
				}

				path := out.Chunk(oxc, oyc, ozc)
				if err := chunkio.WriteVolume(buf, path, nil); err != nil {
					return err
				}
				written++
				outBytes += uint64(len(buf.Data))
				voxel.Debugf("Wrote chunk %s (%s)\n", path, humanize.Bytes(uint64(len(buf.Data))))
			}
		}
	}
	timeLog.Infof("Rechunked %s volume %s into %d chunks (%s)", dtype, dim, written, humanize.Bytes(outBytes))
	return nil
}
