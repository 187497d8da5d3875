package rechunk

import (
	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/voxel"
)

// Convert reads a single volume file and writes it to another format,
// optionally converting the voxel type or compressing (see
// chunkio.WriteOptions). A non-empty axisOrder names the axis
// convention the stored volume actually uses, e.g. "xyz" for a volume
// written X-slowest; the buffer extents are relabeled to ZYX without
// moving voxel data.
func Convert(inPath, outPath, axisOrder string, opts *chunkio.WriteOptions) error {
	timeLog := voxel.NewTimeLog()

	buf, err := chunkio.ReadVolume(inPath)
	if err != nil {
		return err
	}
	if axisOrder != "" {
		if err := buf.ReshapeAxes(axisOrder, "zyx"); err != nil {
			return err
		}
	}
	if err := chunkio.WriteVolume(buf, outPath, opts); err != nil {
		return err
	}
	timeLog.Infof("Converted %s %s volume %s to %s", buf.DType, buf.Size, inPath, outPath)
	return nil
}
