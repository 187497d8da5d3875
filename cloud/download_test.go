package cloud

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/voxel"
)

// writeChunk writes a small chunk volume into dir and returns the exact
// file bytes for later comparison.
func writeChunk(t *testing.T, dir, name string, seed uint64) []byte {
	t.Helper()
	buf := voxel.NewBuffer(voxel.Uint8, voxel.SizeFromXYZ(2, 2, 2))
	for i := range buf.Data {
		buf.Data[i] = uint8(seed + uint64(i))
	}
	path := filepath.Join(dir, name)
	if err := chunkio.WriteVolume(buf, path, nil); err != nil {
		t.Fatalf("Unable to write chunk %s: %v", name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Unable to read back chunk %s: %v", name, err)
	}
	return data
}

func TestDownloadFresh(t *testing.T) {
	src := t.TempDir()
	wantA := writeChunk(t, src, "x0y0z0.vraw", 1)
	wantB := writeChunk(t, src, "x1y0z0.vraw", 100)
	writeChunk(t, src, "volume.vraw", 7) // no chunk index, must be ignored
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("scratch"), 0o644); err != nil {
		t.Fatalf("Unable to write decoy file: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "out")
	ds := Dataset{URL: "file://" + src}
	if err := Download(ds, dst, nil); err != nil {
		t.Fatalf("Unable to download: %v", err)
	}

	gotA, err := os.ReadFile(filepath.Join(dst, "x0y0z0.vraw"))
	if err != nil {
		t.Fatalf("Unable to read downloaded chunk: %v", err)
	}
	if !bytes.Equal(gotA, wantA) {
		t.Errorf("Downloaded chunk x0y0z0 differs from the bucket object")
	}
	gotB, err := os.ReadFile(filepath.Join(dst, "x1y0z0.vraw"))
	if err != nil {
		t.Fatalf("Unable to read downloaded chunk: %v", err)
	}
	if !bytes.Equal(gotB, wantB) {
		t.Errorf("Downloaded chunk x1y0z0 differs from the bucket object")
	}

	info, err := os.ReadFile(filepath.Join(dst, "x1y0z0.txt"))
	if err != nil {
		t.Fatalf("Unable to read info file: %v", err)
	}
	for _, want := range []string{"downloaded from file://", "chunk grid: 2 x 1 x 1 [xyz]", "chunk format: vraw", "axis order: xyz"} {
		if !strings.Contains(string(info), want) {
			t.Errorf("Info file is missing %q:\n%s", want, info)
		}
	}

	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Errorf("Non-chunk bucket object was downloaded")
	}
	if _, err := os.Stat(filepath.Join(dst, "volume.vraw")); !os.IsNotExist(err) {
		t.Errorf("Unindexed volume file was downloaded")
	}
	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatalf("Unable to read output directory: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 2 chunks + info file in output directory, found %d entries", len(entries))
	}
}

func TestDownloadRequiresEmptyDir(t *testing.T) {
	src := t.TempDir()
	writeChunk(t, src, "x0y0z0.vraw", 1)
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "stray.bin"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Unable to write stray file: %v", err)
	}

	err := Download(Dataset{URL: "file://" + src}, dst, nil)
	if err == nil || !strings.Contains(err.Error(), "must be empty") {
		t.Errorf("Expected empty-directory error for a fresh download, got %v", err)
	}
}

func TestDownloadResume(t *testing.T) {
	src := t.TempDir()
	writeChunk(t, src, "x0y0z0.vraw", 1)
	wantB := writeChunk(t, src, "x1y0z0.vraw", 100)
	dst := filepath.Join(t.TempDir(), "out")
	ds := Dataset{URL: "file://" + src}
	if err := Download(ds, dst, nil); err != nil {
		t.Fatalf("Unable to download: %v", err)
	}

	// Simulate an interrupted run: one chunk missing, one already local.
	corrupt := []byte("local bytes that must not be refetched")
	if err := os.WriteFile(filepath.Join(dst, "x0y0z0.vraw"), corrupt, 0o644); err != nil {
		t.Fatalf("Unable to overwrite local chunk: %v", err)
	}
	if err := os.Remove(filepath.Join(dst, "x1y0z0.vraw")); err != nil {
		t.Fatalf("Unable to remove local chunk: %v", err)
	}

	if err := Download(ds, dst, &DownloadOptions{Resume: true}); err != nil {
		t.Fatalf("Unable to resume download: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "x0y0z0.vraw"))
	if err != nil {
		t.Fatalf("Unable to read local chunk: %v", err)
	}
	if !bytes.Equal(got, corrupt) {
		t.Errorf("Resume refetched a chunk that was already present")
	}
	gotB, err := os.ReadFile(filepath.Join(dst, "x1y0z0.vraw"))
	if err != nil {
		t.Fatalf("Unable to read refetched chunk: %v", err)
	}
	if !bytes.Equal(gotB, wantB) {
		t.Errorf("Resumed chunk differs from the bucket object")
	}
}

func TestDownloadResumeNeedsInfoFile(t *testing.T) {
	src := t.TempDir()
	writeChunk(t, src, "x0y0z0.vraw", 1)
	writeChunk(t, src, "x1y0z0.vraw", 100)
	dst := filepath.Join(t.TempDir(), "out")
	ds := Dataset{URL: "file://" + src}
	if err := Download(ds, dst, nil); err != nil {
		t.Fatalf("Unable to download: %v", err)
	}
	if err := os.Remove(filepath.Join(dst, "x1y0z0.txt")); err != nil {
		t.Fatalf("Unable to remove info file: %v", err)
	}

	err := Download(ds, dst, &DownloadOptions{Resume: true})
	if err == nil || !strings.Contains(err.Error(), "must be empty") {
		t.Errorf("Expected resume without an info file to fall back to the empty-directory check, got %v", err)
	}
}

func TestDownloadFormatFilter(t *testing.T) {
	src := t.TempDir()
	writeChunk(t, src, "x0y0z0.vraw", 1)
	wantA := writeChunk(t, src, "x0y0z0.npy", 10)
	wantB := writeChunk(t, src, "x1y0z0.npy", 100)
	ds := Dataset{URL: "file://" + src}

	err := Download(ds, filepath.Join(t.TempDir(), "out"), nil)
	if err == nil || !strings.Contains(err.Error(), "multiple formats") {
		t.Fatalf("Expected mixed-format error without a format filter, got %v", err)
	}

	ds.Format = "bogus"
	err = Download(ds, filepath.Join(t.TempDir(), "out"), nil)
	if err == nil || !strings.Contains(err.Error(), "not a known volume format") {
		t.Fatalf("Expected unknown-format error, got %v", err)
	}

	ds.Format = "npy"
	dst := filepath.Join(t.TempDir(), "out")
	if err := Download(ds, dst, nil); err != nil {
		t.Fatalf("Unable to download with format filter: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "x0y0z0.vraw")); !os.IsNotExist(err) {
		t.Errorf("Filtered-out format was downloaded")
	}
	gotA, err := os.ReadFile(filepath.Join(dst, "x0y0z0.npy"))
	if err != nil {
		t.Fatalf("Unable to read downloaded chunk: %v", err)
	}
	gotB, err := os.ReadFile(filepath.Join(dst, "x1y0z0.npy"))
	if err != nil {
		t.Fatalf("Unable to read downloaded chunk: %v", err)
	}
	if !bytes.Equal(gotA, wantA) || !bytes.Equal(gotB, wantB) {
		t.Errorf("Downloaded npy chunks differ from the bucket objects")
	}
	info, err := os.ReadFile(filepath.Join(dst, "x1y0z0.txt"))
	if err != nil {
		t.Fatalf("Unable to read info file: %v", err)
	}
	if !strings.Contains(string(info), "chunk format: npy") {
		t.Errorf("Info file does not record the filtered format:\n%s", info)
	}
}

func TestDownloadEmptyBucket(t *testing.T) {
	src := t.TempDir()
	err := Download(Dataset{URL: "file://" + src}, filepath.Join(t.TempDir(), "out"), nil)
	if err == nil || !strings.Contains(err.Error(), "no chunk files") {
		t.Errorf("Expected no-chunks error for an empty bucket, got %v", err)
	}
}
