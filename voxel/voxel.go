/*
Package voxel provides the core value types shared by all packages in this
repository: ZYX-ordered sizes and indices, voxel data types, and the
in-memory volume buffer.

All in-memory triples are ZYX ordered (Z slowest-varying, X fastest).
Chunk filenames, file headers, and CLI arguments use the opposite XYZ
convention; the FromXYZ/ToXYZ helpers are the only sanctioned way to cross
that boundary.
*/
package voxel

import "fmt"

// Indices into ZYX-ordered triples.
const (
	Z = 0
	Y = 1
	X = 2
)

// Size3 is a 3d extent in ZYX order.
type Size3 [3]int

// Index3 is a 3d chunk or voxel index in ZYX order.
type Index3 [3]int

// SizeFromXYZ converts an XYZ triple, the convention used by chunk
// filenames and CLI arguments, into the internal ZYX ordering.
func SizeFromXYZ(x, y, z int) Size3 {
	return Size3{z, y, x}
}

// ToXYZ returns the size in XYZ order for filenames and headers.
func (s Size3) ToXYZ() (x, y, z int) {
	return s[X], s[Y], s[Z]
}

// Voxels returns the number of voxels spanned by the size.
func (s Size3) Voxels() int {
	return s[Z] * s[Y] * s[X]
}

// Valid returns true if every extent is positive.
func (s Size3) Valid() bool {
	return s[Z] > 0 && s[Y] > 0 && s[X] > 0
}

func (s Size3) String() string {
	x, y, z := s.ToXYZ()
	return fmt.Sprintf("(%d,%d,%d)", x, y, z)
}

// IndexFromXYZ converts an XYZ chunk index triple into ZYX ordering.
func IndexFromXYZ(x, y, z int) Index3 {
	return Index3{z, y, x}
}

// ToXYZ returns the index in XYZ order for chunk filenames.
func (i Index3) ToXYZ() (x, y, z int) {
	return i[X], i[Y], i[Z]
}

func (i Index3) String() string {
	x, y, z := i.ToXYZ()
	return fmt.Sprintf("x%dy%dz%d", x, y, z)
}
