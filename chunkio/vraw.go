package chunkio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/janelia-flyem/rechunk/voxel"
)

// vraw is a simplified raw volume format: a two-line text header with
// the XYZ extents and the voxel type name, followed by the little-endian
// C-order (ZYX) payload.
//
//	[DimX] [DimY] [DimZ]
//	[data type]
//	<binary payload>

func readVRaw(path string) (*voxel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vraw volume: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	shapeLine, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading vraw header of %q: %w", path, err)
	}
	typeLine, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading vraw header of %q: %w", path, err)
	}
	fields := strings.Fields(shapeLine)
	if len(fields) != 3 {
		return nil, fmt.Errorf("vraw header of %q must have 3 extents, got %q", path, strings.TrimSpace(shapeLine))
	}
	var xyz [3]int
	for i, field := range fields {
		if xyz[i], err = strconv.Atoi(field); err != nil || xyz[i] <= 0 {
			return nil, fmt.Errorf("bad vraw extent %q in %q", field, path)
		}
	}
	dtype, err := voxel.ParseDType(strings.TrimSpace(typeLine))
	if err != nil {
		return nil, fmt.Errorf("vraw header of %q: %w", path, err)
	}

	buf := voxel.NewBuffer(dtype, voxel.SizeFromXYZ(xyz[0], xyz[1], xyz[2]))
	if _, err := io.ReadFull(r, buf.Data); err != nil {
		return nil, fmt.Errorf("vraw payload of %q truncated: %w", path, err)
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("vraw payload of %q larger than header extents %s", path, buf.Size)
	}
	return buf, nil
}

func writeVRaw(buf *voxel.Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vraw volume: %w", err)
	}
	w := bufio.NewWriter(f)
	x, y, z := buf.Size.ToXYZ()
	fmt.Fprintf(w, "%d %d %d\n%s\n", x, y, z, buf.DType)
	if _, err := w.Write(buf.Data); err != nil {
		f.Close()
		return fmt.Errorf("writing vraw payload to %q: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing vraw payload to %q: %w", path, err)
	}
	return f.Close()
}
