package chunkio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janelia-flyem/rechunk/voxel"
)

func TestVRawRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, dtype := range []voxel.DType{voxel.Uint8, voxel.Uint32, voxel.Uint64} {
		buf := makeVolume(dtype, voxel.SizeFromXYZ(7, 5, 3))
		path := filepath.Join(dir, "vol_"+dtype.String()+".vraw")
		if err := WriteVolume(buf, path, nil); err != nil {
			t.Fatalf("Unable to write %s vraw volume: %v", dtype, err)
		}
		got, err := ReadVolume(path)
		if err != nil {
			t.Fatalf("Unable to read %s vraw volume: %v", dtype, err)
		}
		if !got.Equal(buf) {
			t.Errorf("Read %s vraw volume differs from what was written", dtype)
		}
	}
}

func TestVRawHeader(t *testing.T) {
	dir := t.TempDir()
	buf := makeVolume(voxel.Uint16, voxel.SizeFromXYZ(4, 3, 2))
	path := filepath.Join(dir, "vol.vraw")
	if err := WriteVolume(buf, path, nil); err != nil {
		t.Fatalf("Unable to write vraw volume: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Unable to read %q: %v", path, err)
	}
	want := "4 3 2\nuint16\n"
	if !strings.HasPrefix(string(data), want) {
		t.Fatalf("Bad vraw header in %q", data[:min(len(data), len(want))])
	}
	if len(data) != len(want)+buf.Size.Voxels()*2 {
		t.Errorf("Bad vraw file length %d", len(data))
	}
}

func TestVRawRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	buf := makeVolume(voxel.Uint8, voxel.SizeFromXYZ(2, 2, 2))
	path := filepath.Join(dir, "vol.vraw")
	if err := WriteVolume(buf, path, nil); err != nil {
		t.Fatalf("Unable to write vraw volume: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("Unable to append to %q: %v", path, err)
	}
	if _, err := f.Write([]byte{0xFF}); err != nil {
		t.Fatalf("Unable to append to %q: %v", path, err)
	}
	f.Close()
	if _, err := ReadVolume(path); err == nil {
		t.Errorf("Expected error reading vraw volume with trailing bytes")
	}

	bad := filepath.Join(dir, "bad.vraw")
	if err := os.WriteFile(bad, []byte("4 3\nuint8\n"), 0o644); err != nil {
		t.Fatalf("Unable to write %q: %v", bad, err)
	}
	if _, err := ReadVolume(bad); err == nil {
		t.Errorf("Expected error for vraw header with 2 extents")
	}

	if _, err := ReadVolume(filepath.Join(dir, "missing.vraw")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist for missing volume, got %v", err)
	}
}
