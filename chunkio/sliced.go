package chunkio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/tiff"

	"github.com/janelia-flyem/rechunk/voxel"
)

// Slice-per-file formats take a one-slot path pattern instead of a
// plain path. Slices are numbered from z = 0 with no gaps.

func readTIFFSlice(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tiff slice %q: %w", path, err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding tiff slice %q: %w", path, err)
	}
	return img, nil
}

func readSlicedTIFF(pattern string) (*voxel.Buffer, error) {
	spec := PathSpec(pattern)
	if err := spec.Validate(1); err != nil {
		return nil, err
	}
	var paths []string
	for z := 0; ; z++ {
		p := spec.Slice(z)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("probing tiff slice %q: %w", p, err)
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("tiff slice pattern %q does not yield any files", pattern)
	}

	var buf *voxel.Buffer
	var nx, ny int
	for z, p := range paths {
		img, err := readTIFFSlice(p)
		if err != nil {
			return nil, err
		}
		rect := img.Bounds()
		if z == 0 {
			nx, ny = rect.Dx(), rect.Dy()
			buf = voxel.NewBuffer(voxel.Uint32, voxel.SizeFromXYZ(nx, ny, len(paths)))
		} else if rect.Dx() != nx || rect.Dy() != ny {
			return nil, fmt.Errorf("tiff slice %q is %d x %d, expected %d x %d", p, rect.Dx(), rect.Dy(), nx, ny)
		}
		off := z * ny * nx * 4
		switch im := img.(type) {
		case *image.Gray:
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					v := uint32(im.GrayAt(rect.Min.X+x, rect.Min.Y+y).Y)
					binary.LittleEndian.PutUint32(buf.Data[off:], v)
					off += 4
				}
			}
		case *image.Gray16:
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					v := uint32(im.Gray16At(rect.Min.X+x, rect.Min.Y+y).Y)
					binary.LittleEndian.PutUint32(buf.Data[off:], v)
					off += 4
				}
			}
		default:
			return nil, fmt.Errorf("tiff slice %q uses an unsupported color model for segmentation", p)
		}
	}
	return buf, nil
}

// writeSlicedPNG packs each uint32 label into RGBA bytes with the low
// byte in R, so pixel bytes equal the little-endian voxel encoding.
func writeSlicedPNG(buf *voxel.Buffer, pattern string) error {
	spec := PathSpec(pattern)
	if err := spec.Validate(1); err != nil {
		return err
	}
	b := buf.Cast(voxel.Uint32)
	nx, ny, nz := b.Size.ToXYZ()
	slab := nx * ny * 4
	for z := 0; z < nz; z++ {
		img := image.NewNRGBA(image.Rect(0, 0, nx, ny))
		copy(img.Pix, b.Data[z*slab:(z+1)*slab])
		path := spec.Slice(z)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("writing png slice %q: %w", path, err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return fmt.Errorf("encoding png slice %q: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing png slice %q: %w", path, err)
		}
	}
	return nil
}
