package chunkio

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/janelia-flyem/rechunk/voxel"
)

// A PathSpec is a file path template with printf-style %d slots for
// chunk indexes. Chunked volumes use three slots, filled in x, y, z
// order. Sliced image formats use a single slot for the z coordinate.
type PathSpec string

// Validate checks that the path spec holds exactly want %d slots and
// no other format verbs. Literal %% pairs are allowed.
func (s PathSpec) Validate(want int) error {
	got := 0
	str := string(s)
	for i := 0; i+1 < len(str); i++ {
		if str[i] != '%' {
			continue
		}
		switch str[i+1] {
		case 'd':
			got++
		case '%':
		default:
			return fmt.Errorf("path spec %q holds unsupported format verb %%%c", str, str[i+1])
		}
		i++
	}
	if got != want {
		return fmt.Errorf("path spec %q must hold exactly %d %%d slots, found %d", str, want, got)
	}
	return nil
}

// Chunk returns the path of the chunk at index (x, y, z). The spec
// must hold three %d slots.
func (s PathSpec) Chunk(x, y, z int) string {
	return fmt.Sprintf(string(s), x, y, z)
}

// Slice returns the path of the 2d image slice at depth z. The spec
// must hold one %d slot.
func (s PathSpec) Slice(z int) string {
	return fmt.Sprintf(string(s), z)
}

var chunkIndexRe = regexp.MustCompile(`x(\d+)y(\d+)z(\d+)`)

// ParseChunkIndex recovers the chunk index from a file named with the
// x{i}y{j}z{k} convention, e.g. "x3y12z0.vraw". If the name holds
// several such runs the last one wins, so directory names in path do
// not confuse the parse.
func ParseChunkIndex(path string) (voxel.Index3, error) {
	base := filepath.Base(path)
	matches := chunkIndexRe.FindAllStringSubmatch(base, -1)
	if len(matches) == 0 {
		return voxel.Index3{}, fmt.Errorf("file name %q holds no x{i}y{j}z{k} chunk index", base)
	}
	m := matches[len(matches)-1]
	var xyz [3]int
	for i, digits := range m[1:] {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return voxel.Index3{}, fmt.Errorf("chunk index in %q: %w", base, err)
		}
		xyz[i] = n
	}
	return voxel.IndexFromXYZ(xyz[0], xyz[1], xyz[2]), nil
}
