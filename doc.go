/*
Package rechunk converts very large chunked segmentation volumes from one
chunk grid to another without ever materializing the full volume in
memory.

A volume is stored as a grid of chunk files named with zero-based XYZ
grid indices, e.g. "chunks/x3y12z0.vraw". Rechunking sweeps the output
grid in Z-major, Y, X order, and for each output chunk tracks how its
extent aligns with the input grid along every axis. An output chunk
extent may straddle one input chunk boundary per axis, so each output
chunk is assembled from up to two input chunks per axis: up to four
chunks per XY plane, and up to two Z layers handled as two assembly
passes into disjoint Z ranges of the same output buffer. This bounds the
conversion to chunk geometries with Cout <= 2*Cin per axis, which is
validated before any chunk is read or written.

Within one Z-band pass, the XY slices of the output buffer are
partitioned across worker goroutines that copy rectangular regions from
the fetched input chunks into disjoint slices of the output buffer. All
file I/O stays on the coordinating goroutine; workers only copy memory.

In-memory buffers are always ZYX ordered (Z slowest-varying, X fastest).
Chunk filenames, file headers, and CLI arguments use the opposite XYZ
convention. The exported entry points accept XYZ triples and convert
exactly once at this boundary; see the voxel package.

Besides the rechunking engine, the package provides whole-volume
utilities: splitting a single volume file into a chunk grid and
converting one volume file between formats.
*/
package rechunk
