package voxel

import (
	"fmt"
	"math"
)

// DType is the voxel value type of a volume buffer. Label volumes are
// unsigned; signed and floating point inputs are rejected at the format
// boundary.
type DType uint8

const (
	DTypeUnknown DType = iota
	Uint8
	Uint16
	Uint32
	Uint64
)

// Size returns the number of bytes per voxel.
func (t DType) Size() int {
	switch t {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Uint32:
		return 4
	case Uint64:
		return 8
	default:
		return 0
	}
}

// String returns the numpy-compatible type name used by vraw and NRRD
// headers.
func (t DType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	default:
		return "unknown"
	}
}

// Descr returns the numpy array-interface type string stored in npy
// headers, e.g. "<u4" for little-endian uint32.
func (t DType) Descr() string {
	switch t {
	case Uint8:
		return "|u1"
	case Uint16:
		return "<u2"
	case Uint32:
		return "<u4"
	case Uint64:
		return "<u8"
	default:
		return ""
	}
}

// MaxValue returns the largest value representable by the type.
func (t DType) MaxValue() uint64 {
	switch t {
	case Uint8:
		return math.MaxUint8
	case Uint16:
		return math.MaxUint16
	case Uint32:
		return math.MaxUint32
	case Uint64:
		return math.MaxUint64
	default:
		return 0
	}
}

// ParseDType converts a numpy type name like "uint32" into a DType.
func ParseDType(name string) (DType, error) {
	switch name {
	case "uint8", "u1":
		return Uint8, nil
	case "uint16", "u2":
		return Uint16, nil
	case "uint32", "u4":
		return Uint32, nil
	case "uint64", "u8":
		return Uint64, nil
	}
	return DTypeUnknown, fmt.Errorf("unsupported voxel type %q", name)
}

// ParseDescr converts a numpy array-interface type string like "<u4"
// into a DType. Only little-endian (or byte-order-agnostic) unsigned
// integer types are accepted.
func ParseDescr(descr string) (DType, error) {
	if len(descr) != 3 {
		return DTypeUnknown, fmt.Errorf("unsupported dtype descr %q", descr)
	}
	if descr[0] != '<' && descr[0] != '|' {
		return DTypeUnknown, fmt.Errorf("unsupported byte order in dtype descr %q", descr)
	}
	if descr[1] != 'u' {
		return DTypeUnknown, fmt.Errorf("unsupported dtype descr %q: only unsigned integers are supported", descr)
	}
	switch descr[2] {
	case '1':
		return Uint8, nil
	case '2':
		return Uint16, nil
	case '4':
		return Uint32, nil
	case '8':
		return Uint64, nil
	}
	return DTypeUnknown, fmt.Errorf("unsupported dtype descr %q", descr)
}
