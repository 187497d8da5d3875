package chunkio

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/janelia-flyem/rechunk/voxel"
)

// npy codec for NumPy v1.0/v2.0 array files. The header dict records the
// dtype descr, C/Fortran order, and the shape tuple; the shape is stored
// in ZYX order, matching what numpy.save does for a ZYX array. npz files
// are zip archives holding one npy member.

const npyMagic = "\x93NUMPY"

var (
	npyDescrRe   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	npyFortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	npyShapeRe   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

func readNPY(path string) (*voxel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening npy volume: %w", err)
	}
	defer f.Close()
	buf, err := readNPYFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading npy volume %q: %w", path, err)
	}
	return buf, nil
}

func readNPYFrom(r io.Reader) (*voxel.Buffer, error) {
	var preamble [8]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, fmt.Errorf("truncated npy preamble: %w", err)
	}
	if string(preamble[:6]) != npyMagic {
		return nil, fmt.Errorf("bad npy magic %q", preamble[:6])
	}
	var headerLen int
	switch major := preamble[6]; major {
	case 1:
		var lenBytes [2]byte
		if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
			return nil, fmt.Errorf("truncated npy preamble: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(lenBytes[:]))
	case 2:
		var lenBytes [4]byte
		if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
			return nil, fmt.Errorf("truncated npy preamble: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(lenBytes[:]))
	default:
		return nil, fmt.Errorf("unsupported npy version %d.%d", major, preamble[7])
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("truncated npy header: %w", err)
	}

	m := npyDescrRe.FindSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("npy header missing descr: %q", header)
	}
	dtype, err := voxel.ParseDescr(string(m[1]))
	if err != nil {
		return nil, err
	}
	if m = npyFortranRe.FindSubmatch(header); m == nil {
		return nil, fmt.Errorf("npy header missing fortran_order: %q", header)
	} else if string(m[1]) == "True" {
		return nil, fmt.Errorf("fortran-order npy arrays are not supported")
	}
	if m = npyShapeRe.FindSubmatch(header); m == nil {
		return nil, fmt.Errorf("npy header missing shape: %q", header)
	}
	var shape []int
	for _, field := range strings.Split(string(m[1]), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, err := strconv.Atoi(field)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad npy shape entry %q", field)
		}
		shape = append(shape, d)
	}
	if len(shape) != 3 {
		return nil, fmt.Errorf("npy volume must be 3d, got shape of rank %d", len(shape))
	}

	buf := voxel.NewBuffer(dtype, voxel.Size3{shape[0], shape[1], shape[2]})
	if _, err := io.ReadFull(r, buf.Data); err != nil {
		return nil, fmt.Errorf("truncated npy payload: %w", err)
	}
	return buf, nil
}

func writeNPY(buf *voxel.Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating npy volume: %w", err)
	}
	if err := writeNPYTo(f, buf); err != nil {
		f.Close()
		return fmt.Errorf("writing npy volume %q: %w", path, err)
	}
	return f.Close()
}

func writeNPYTo(w io.Writer, buf *voxel.Buffer) error {
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d, %d), }",
		buf.DType.Descr(), buf.Size[voxel.Z], buf.Size[voxel.Y], buf.Size[voxel.X])
	// Pad so the payload starts at a multiple of 64 bytes, per the npy
	// format; the header must end with a newline.
	base := len(npyMagic) + 2 + 2
	pad := (64 - (base+len(header)+1)%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	preamble := make([]byte, base)
	copy(preamble, npyMagic)
	preamble[6] = 1
	preamble[7] = 0
	binary.LittleEndian.PutUint16(preamble[base-2:], uint16(len(header)))
	if _, err := w.Write(preamble); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err := w.Write(buf.Data)
	return err
}

func readNPZ(path string) (*voxel.Buffer, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening npz volume %q: %w", path, err)
	}
	defer zr.Close()
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	for _, zf := range zr.File {
		if !strings.HasSuffix(zf.Name, ".npy") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opening npz member %q: %w", zf.Name, err)
		}
		buf, err := readNPYFrom(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading npz member %q: %w", zf.Name, err)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("npz archive %q holds no npy array", path)
}

func writeNPZ(buf *voxel.Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating npz volume: %w", err)
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})
	w, err := zw.Create("arr_0.npy")
	if err != nil {
		f.Close()
		return fmt.Errorf("writing npz volume %q: %w", path, err)
	}
	if err := writeNPYTo(w, buf); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("writing npz volume %q: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("writing npz volume %q: %w", path, err)
	}
	return f.Close()
}
