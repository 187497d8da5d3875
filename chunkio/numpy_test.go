package chunkio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/rechunk/voxel"
)

func npyBytes(dict string, payload []byte, major byte) []byte {
	var b bytes.Buffer
	b.WriteString(npyMagic)
	b.WriteByte(major)
	b.WriteByte(0)
	if major == 1 {
		var lenBytes [2]byte
		binary.LittleEndian.PutUint16(lenBytes[:], uint16(len(dict)))
		b.Write(lenBytes[:])
	} else {
		var lenBytes [4]byte
		binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(dict)))
		b.Write(lenBytes[:])
	}
	b.WriteString(dict)
	b.Write(payload)
	return b.Bytes()
}

func TestNPYRoundTrip(t *testing.T) {
	dir := t.TempDir()
	buf := makeVolume(voxel.Uint64, voxel.SizeFromXYZ(6, 4, 2))
	path := filepath.Join(dir, "vol.npy")
	if err := WriteVolume(buf, path, nil); err != nil {
		t.Fatalf("Unable to write npy volume: %v", err)
	}
	got, err := ReadVolume(path)
	if err != nil {
		t.Fatalf("Unable to read npy volume: %v", err)
	}
	if !got.Equal(buf) {
		t.Errorf("Read npy volume differs from what was written")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Unable to read %q: %v", path, err)
	}
	if (len(data)-buf.Size.Voxels()*8)%64 != 0 {
		t.Errorf("npy payload does not start on a 64-byte boundary")
	}
}

func TestNPYReaderEdgeCases(t *testing.T) {
	payload := make([]byte, 8)
	for i := range payload {
		payload[i] = byte(i)
	}

	v2 := "{'descr': '|u1', 'fortran_order': False, 'shape': (2, 2, 2), }\n"
	buf, err := readNPYFrom(bytes.NewReader(npyBytes(v2, payload, 2)))
	if err != nil {
		t.Fatalf("Unable to read version 2.0 npy: %v", err)
	}
	if buf.DType != voxel.Uint8 || buf.Size != (voxel.Size3{2, 2, 2}) {
		t.Errorf("Bad version 2.0 npy volume: %s %s", buf.DType, buf.Size)
	}
	if !bytes.Equal(buf.Data, payload) {
		t.Errorf("npy payload corrupted on read")
	}

	fortran := "{'descr': '|u1', 'fortran_order': True, 'shape': (2, 2, 2), }\n"
	if _, err := readNPYFrom(bytes.NewReader(npyBytes(fortran, payload, 1))); err == nil {
		t.Errorf("Expected error for fortran-order npy")
	}

	flat := "{'descr': '|u1', 'fortran_order': False, 'shape': (4, 2), }\n"
	if _, err := readNPYFrom(bytes.NewReader(npyBytes(flat, payload, 1))); err == nil {
		t.Errorf("Expected error for rank-2 npy")
	}

	signed := "{'descr': '<i4', 'fortran_order': False, 'shape': (2, 2, 2), }\n"
	if _, err := readNPYFrom(bytes.NewReader(npyBytes(signed, payload, 1))); err == nil {
		t.Errorf("Expected error for signed npy dtype")
	}
}

func TestNPZRoundTrip(t *testing.T) {
	dir := t.TempDir()
	buf := makeVolume(voxel.Uint32, voxel.SizeFromXYZ(5, 3, 4))
	path := filepath.Join(dir, "vol.npz")
	if err := WriteVolume(buf, path, nil); err != nil {
		t.Fatalf("Unable to write npz volume: %v", err)
	}
	got, err := ReadVolume(path)
	if err != nil {
		t.Fatalf("Unable to read npz volume: %v", err)
	}
	if !got.Equal(buf) {
		t.Errorf("Read npz volume differs from what was written")
	}
}
