/*
Package chunkio reads and writes single volume files in the formats used
for chunked segmentation volumes. Buffers cross this boundary in ZYX
order; file headers and chunk filenames speak XYZ.
*/
package chunkio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/janelia-flyem/rechunk/voxel"
)

var (
	// ErrUnknownFormat is returned for file extensions outside the
	// format table.
	ErrUnknownFormat = errors.New("unknown segmentation volume file extension")

	// ErrNotImplemented is returned when a known format has no reader or
	// writer for the requested direction.
	ErrNotImplemented = errors.New("not yet implemented")
)

// Format identifies a supported volume file format.
type Format uint8

const (
	UnknownFormat Format = iota
	VRaw
	NRRD
	HDF5
	TIFF
	PNG
	NPY
	NPZ
	NIfTI
	VTI
)

func (f Format) String() string {
	switch f {
	case VRaw:
		return "vraw"
	case NRRD:
		return "nrrd"
	case HDF5:
		return "hdf5"
	case TIFF:
		return "tiff"
	case PNG:
		return "png"
	case NPY:
		return "npy"
	case NPZ:
		return "npz"
	case NIfTI:
		return "nifti"
	case VTI:
		return "vti"
	default:
		return "unknown"
	}
}

// readFunc parses one volume file into a ZYX buffer.
type readFunc func(path string) (*voxel.Buffer, error)

// writeFunc writes a ZYX buffer to one volume file.
type writeFunc func(buf *voxel.Buffer, path string) error

// formatOps binds a format tag to its implemented directions. A nil
// direction means ErrNotImplemented for that direction.
type formatOps struct {
	read  readFunc
	write writeFunc
}

var formatTable = map[Format]formatOps{
	VRaw:  {read: readVRaw, write: writeVRaw},
	NRRD:  {write: writeNRRD},
	HDF5:  {read: readHDF5, write: writeHDF5},
	TIFF:  {read: readSlicedTIFF},
	PNG:   {write: writeSlicedPNG},
	NPY:   {read: readNPY, write: writeNPY},
	NPZ:   {read: readNPZ, write: writeNPZ},
	NIfTI: {},
	VTI:   {},
}

var formatByExt = map[string]Format{
	".vraw": VRaw,
	".raw":  VRaw,
	".nrrd": NRRD,
	".hdf5": HDF5,
	".h5":   HDF5,
	".tif":  TIFF,
	".tiff": TIFF,
	".png":  PNG,
	".npy":  NPY,
	".npz":  NPZ,
	".nii":  NIfTI,
	".vti":  VTI,
}

// SupportedFormats lists the recognized file extensions without the
// leading dot.
func SupportedFormats() []string {
	return []string{"vraw", "raw", "nrrd", "hdf5", "h5", "tif", "tiff", "png", "npy", "npz", "nii", "nii.gz", "vti"}
}

// FormatChart returns a text table of the supported volume formats and
// their implemented I/O directions.
func FormatChart() string {
	rows := []struct {
		format Format
		exts   string
	}{
		{VRaw, ".vraw .raw"},
		{NRRD, ".nrrd"},
		{HDF5, ".hdf5 .h5"},
		{TIFF, ".tif .tiff"},
		{PNG, ".png"},
		{NPY, ".npy"},
		{NPZ, ".npz"},
		{NIfTI, ".nii .nii.gz"},
		{VTI, ".vti"},
	}
	var b strings.Builder
	b.WriteString("Format  Extensions   Read  Write\n")
	b.WriteString("------  ----------   ----  -----\n")
	for _, row := range rows {
		ops := formatTable[row.format]
		b.WriteString(fmt.Sprintf("%-7s %-12s %-5s %s\n",
			row.format, row.exts, yesNo(ops.read != nil), yesNo(ops.write != nil)))
	}
	b.WriteString("\nAny volume file may carry an additional .gz suffix.\n")
	return b.String()
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// FormatByPath maps a file path to its format tag by extension. The
// second return is true when the path carries a .gz sidecar suffix.
// ".nii.gz" names the NIfTI format itself, not a sidecar.
func FormatByPath(path string) (Format, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return UnknownFormat, false, fmt.Errorf("volume file path %q has no file type", path)
	}
	gzipped := false
	if ext == ".gz" {
		inner := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ext)))
		if inner == ".nii" {
			return NIfTI, false, nil
		}
		gzipped = true
		ext = inner
	}
	f, found := formatByExt[ext]
	if !found {
		return UnknownFormat, false, fmt.Errorf("%w %q in path %q", ErrUnknownFormat, ext, path)
	}
	return f, gzipped, nil
}

// WriteOptions modify WriteVolume. The zero value writes the buffer
// unchanged and uncompressed.
type WriteOptions struct {
	// DType converts the buffer to the given voxel type before writing,
	// remapping out-of-range values (see voxel.Buffer.Guard).
	DType voxel.DType

	// Gzip compresses the written file into a .gz sidecar and removes
	// the uncompressed original.
	Gzip bool
}

// ReadVolume reads the volume file at path, selecting the reader by file
// extension, and returns a ZYX-ordered buffer. A trailing .gz is
// decompressed to a sibling temp file first and cleaned up after. For
// slice-per-file formats (TIFF), path is a one-slot pattern like
// "vol_%d.tif" instead of a plain file path.
func ReadVolume(path string) (*voxel.Buffer, error) {
	format, gzipped, err := FormatByPath(path)
	if err != nil {
		return nil, err
	}
	if gzipped {
		plain, err := uncompressFile(path)
		if err != nil {
			return nil, err
		}
		defer os.Remove(plain)
		path = plain
	}
	ops := formatTable[format]
	if ops.read == nil {
		return nil, fmt.Errorf("reading %s volumes is %w", format, ErrNotImplemented)
	}
	buf, err := ops.read(path)
	if err != nil {
		return nil, err
	}
	if err := buf.CheckSize(); err != nil {
		return nil, fmt.Errorf("reading %s volume %q: %w", format, path, err)
	}
	return buf, nil
}

// WriteVolume writes the ZYX buffer to path, selecting the writer by file
// extension. A trailing .gz on path (or opts.Gzip) writes the file and
// replaces it with a gzip-compressed sidecar. For slice-per-file formats
// (PNG), path is a one-slot pattern like "vol_%d.png".
func WriteVolume(buf *voxel.Buffer, path string, opts *WriteOptions) error {
	format, gzipped, err := FormatByPath(path)
	if err != nil {
		return err
	}
	if gzipped {
		path = strings.TrimSuffix(path, ".gz")
	}
	ops := formatTable[format]
	if ops.write == nil {
		return fmt.Errorf("writing %s volumes is %w", format, ErrNotImplemented)
	}
	if opts != nil && opts.DType != voxel.DTypeUnknown {
		buf = buf.Guard(opts.DType)
	}
	if err := buf.CheckSize(); err != nil {
		return err
	}
	if err := ops.write(buf, path); err != nil {
		return err
	}
	if gzipped || (opts != nil && opts.Gzip) {
		if _, err := compressFile(path); err != nil {
			return err
		}
		return os.Remove(path)
	}
	return nil
}
