package voxel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Buffer is an in-memory volume: little-endian voxel values of a single
// DType, packed in ZYX order (Z slowest, X fastest).
type Buffer struct {
	DType DType
	Size  Size3
	Data  []byte
}

// NewBuffer allocates a zeroed buffer of the given type and size.
func NewBuffer(t DType, size Size3) *Buffer {
	return &Buffer{
		DType: t,
		Size:  size,
		Data:  make([]byte, size.Voxels()*t.Size()),
	}
}

// CheckSize returns an error if the data length does not match the
// declared size and type.
func (b *Buffer) CheckSize() error {
	if want := b.Size.Voxels() * b.DType.Size(); len(b.Data) != want {
		return fmt.Errorf("volume buffer has %d bytes, expected %d for %s %s",
			len(b.Data), want, b.Size, b.DType)
	}
	return nil
}

func (b *Buffer) offset(p Index3) int {
	return ((p[Z]*b.Size[Y]+p[Y])*b.Size[X] + p[X]) * b.DType.Size()
}

// Value returns the voxel at p widened to uint64.
func (b *Buffer) Value(p Index3) uint64 {
	i := b.offset(p)
	switch b.DType {
	case Uint8:
		return uint64(b.Data[i])
	case Uint16:
		return uint64(binary.LittleEndian.Uint16(b.Data[i:]))
	case Uint32:
		return uint64(binary.LittleEndian.Uint32(b.Data[i:]))
	case Uint64:
		return binary.LittleEndian.Uint64(b.Data[i:])
	}
	return 0
}

// SetValue stores v truncated to the buffer's type at p.
func (b *Buffer) SetValue(p Index3, v uint64) {
	i := b.offset(p)
	switch b.DType {
	case Uint8:
		b.Data[i] = uint8(v)
	case Uint16:
		binary.LittleEndian.PutUint16(b.Data[i:], uint16(v))
	case Uint32:
		binary.LittleEndian.PutUint32(b.Data[i:], uint32(v))
	case Uint64:
		binary.LittleEndian.PutUint64(b.Data[i:], v)
	}
}

// MinMax scans the buffer and returns the smallest and largest voxel
// value. An empty buffer returns (0, 0).
func (b *Buffer) MinMax() (minVal, maxVal uint64) {
	n := b.Size.Voxels()
	if n == 0 {
		return 0, 0
	}
	sz := b.DType.Size()
	minVal = b.valueAt(0)
	maxVal = minVal
	for i := sz; i < n*sz; i += sz {
		v := b.valueAt(i)
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return
}

func (b *Buffer) valueAt(byteOff int) uint64 {
	switch b.DType {
	case Uint8:
		return uint64(b.Data[byteOff])
	case Uint16:
		return uint64(binary.LittleEndian.Uint16(b.Data[byteOff:]))
	case Uint32:
		return uint64(binary.LittleEndian.Uint32(b.Data[byteOff:]))
	case Uint64:
		return binary.LittleEndian.Uint64(b.Data[byteOff:])
	}
	return 0
}

func (b *Buffer) setValueAt(byteOff int, v uint64) {
	switch b.DType {
	case Uint8:
		b.Data[byteOff] = uint8(v)
	case Uint16:
		binary.LittleEndian.PutUint16(b.Data[byteOff:], uint16(v))
	case Uint32:
		binary.LittleEndian.PutUint32(b.Data[byteOff:], uint32(v))
	case Uint64:
		binary.LittleEndian.PutUint64(b.Data[byteOff:], v)
	}
}

// Cast returns a copy of the buffer converted to type t, truncating each
// value to the target width. If t matches the buffer's type, the receiver
// is returned unchanged.
func (b *Buffer) Cast(t DType) *Buffer {
	if t == b.DType {
		return b
	}
	out := NewBuffer(t, b.Size)
	n := b.Size.Voxels()
	src, dst := b.DType.Size(), t.Size()
	for i := 0; i < n; i++ {
		out.setValueAt(i*dst, b.valueAt(i*src))
	}
	return out
}

// Guard returns the buffer converted to type t, remapping values that
// cannot be represented: if the buffer's value range exceeds the target
// range, values are normalized onto [0, max(t)]; if only the maximum
// overflows, all values are offset down so the maximum fits. Matches the
// behavior callers rely on when narrowing label volumes for export.
func (b *Buffer) Guard(t DType) *Buffer {
	if t == DTypeUnknown || t == b.DType {
		return b
	}
	volMin, volMax := b.MinMax()
	supMax := t.MaxValue()
	switch {
	case volMax-volMin > supMax:
		Infof("Converting volume with range [%d,%d] to type %s by normalization to range [0,%d].\n",
			volMin, volMax, t, supMax)
		out := NewBuffer(t, b.Size)
		n := b.Size.Voxels()
		src, dst := b.DType.Size(), t.Size()
		scale := float64(supMax) / float64(volMax-volMin)
		for i := 0; i < n; i++ {
			v := uint64(float64(b.valueAt(i*src)-volMin) * scale)
			out.setValueAt(i*dst, v)
		}
		return out
	case volMax > supMax:
		Infof("Converting volume with range [%d,%d] to type %s by offsetting values to [%d,%d].\n",
			volMin, volMax, t, volMin-(volMax-supMax), supMax)
		out := NewBuffer(t, b.Size)
		n := b.Size.Voxels()
		src, dst := b.DType.Size(), t.Size()
		shift := volMax - supMax
		for i := 0; i < n; i++ {
			out.setValueAt(i*dst, b.valueAt(i*src)-shift)
		}
		return out
	default:
		return b.Cast(t)
	}
}

// Equal reports whether two buffers have identical type, size and voxel
// data.
func (b *Buffer) Equal(other *Buffer) bool {
	return b.DType == other.DType && b.Size == other.Size && bytes.Equal(b.Data, other.Data)
}

// CheckAxisOrder validates an axis-order string, returning its lowercase
// form. The string must be a permutation of "zyx".
func CheckAxisOrder(order string) (string, error) {
	order = strings.ToLower(order)
	if len(order) != 3 || !strings.ContainsRune(order, 'x') ||
		!strings.ContainsRune(order, 'y') || !strings.ContainsRune(order, 'z') {
		return "", fmt.Errorf("axis order must be a permutation of 'xyz' but is %q", order)
	}
	return order, nil
}

// ReshapeAxes reinterprets the buffer's extents from one axis order to
// another without touching the voxel data. A buffer read from a source
// that indexes dimensions in, say, "xyz" order can be relabeled to the
// canonical "zyx" this way. Both orders must be permutations of "zyx".
func (b *Buffer) ReshapeAxes(from, to string) error {
	from, err := CheckAxisOrder(from)
	if err != nil {
		return err
	}
	to, err = CheckAxisOrder(to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	var reshaped Size3
	for i := 0; i < 3; i++ {
		reshaped[i] = b.Size[strings.IndexByte(from, to[i])]
	}
	b.Size = reshaped
	return nil
}
