package chunkio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/rechunk/voxel"
)

func TestNRRDHeader(t *testing.T) {
	dir := t.TempDir()
	buf := makeVolume(voxel.Uint32, voxel.SizeFromXYZ(3, 2, 2))
	path := filepath.Join(dir, "vol.nrrd")
	if err := WriteVolume(buf, path, nil); err != nil {
		t.Fatalf("Unable to write nrrd volume: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Unable to read %q: %v", path, err)
	}
	header := "NRRD0004\n" +
		"type: uint32\n" +
		"dimension: 3\n" +
		"space: left-posterior-superior\n" +
		"kinds: domain domain domain\n" +
		"sizes: 3 2 2\n" +
		"endian: little\n" +
		"encoding: raw\n" +
		"\n"
	if len(data) < len(header) || string(data[:len(header)]) != header {
		t.Fatalf("Bad nrrd header:\n%s", data[:min(len(data), len(header))])
	}
	if !bytes.Equal(data[len(header):], buf.Data) {
		t.Errorf("nrrd payload differs from buffer data")
	}
}
