package chunkio

import (
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/rechunk/voxel"
)

func TestHDF5RoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, dtype := range []voxel.DType{voxel.Uint8, voxel.Uint32} {
		buf := makeVolume(dtype, voxel.SizeFromXYZ(5, 4, 3))
		path := filepath.Join(dir, "vol_"+dtype.String()+".h5")
		if err := WriteVolume(buf, path, nil); err != nil {
			t.Fatalf("Unable to write %s hdf5 volume: %v", dtype, err)
		}
		got, err := ReadVolume(path)
		if err != nil {
			t.Fatalf("Unable to read %s hdf5 volume: %v", dtype, err)
		}
		if !got.Equal(buf) {
			t.Errorf("Read %s hdf5 volume differs from what was written", dtype)
		}
	}
}
