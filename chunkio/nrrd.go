package chunkio

import (
	"bufio"
	"fmt"
	"os"

	"github.com/janelia-flyem/rechunk/voxel"
)

// writeNRRD writes an NRRD0004 file with a raw little-endian payload.
// The sizes field is XYZ while the payload stays in ZYX C-order, the
// same convention the vraw header uses.
func writeNRRD(buf *voxel.Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating nrrd volume: %w", err)
	}
	w := bufio.NewWriter(f)
	x, y, z := buf.Size.ToXYZ()
	fmt.Fprintf(w, "NRRD0004\n")
	fmt.Fprintf(w, "type: %s\n", buf.DType)
	fmt.Fprintf(w, "dimension: 3\n")
	fmt.Fprintf(w, "space: left-posterior-superior\n")
	fmt.Fprintf(w, "kinds: domain domain domain\n")
	fmt.Fprintf(w, "sizes: %d %d %d\n", x, y, z)
	fmt.Fprintf(w, "endian: little\n")
	fmt.Fprintf(w, "encoding: raw\n")
	fmt.Fprintf(w, "\n")
	if _, err := w.Write(buf.Data); err != nil {
		f.Close()
		return fmt.Errorf("writing nrrd payload to %q: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing nrrd payload to %q: %w", path, err)
	}
	return f.Close()
}
