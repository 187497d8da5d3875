package chunkio

import (
	"encoding/binary"
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/janelia-flyem/rechunk/voxel"
)

// HDF5 volume files declare dataset extents in XYZ order while the
// payload stays in ZYX C order, so reads flip the extents back without
// touching the data.

func hdf5NativeType(t voxel.DType) *hdf5.Datatype {
	switch t {
	case voxel.Uint8:
		return hdf5.T_NATIVE_UINT8
	case voxel.Uint16:
		return hdf5.T_NATIVE_UINT16
	case voxel.Uint32:
		return hdf5.T_NATIVE_UINT32
	case voxel.Uint64:
		return hdf5.T_NATIVE_UINT64
	default:
		return nil
	}
}

func readHDF5(path string) (*voxel.Buffer, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("opening hdf5 volume %q: %w", path, err)
	}
	defer f.Close()

	nobj, err := f.NumObjects()
	if err != nil {
		return nil, fmt.Errorf("listing hdf5 volume %q: %w", path, err)
	}
	if nobj == 0 {
		return nil, fmt.Errorf("hdf5 volume %q holds no dataset", path)
	}
	name := f.ObjectNameByIndex(0)
	dset, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %q in %q: %w", name, path, err)
	}
	defer dset.Close()

	dims, _, err := dset.Space().SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("reading extents of dataset %q in %q: %w", name, path, err)
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("dataset %q in %q has rank %d, expected a 3d volume", name, path, len(dims))
	}
	size := voxel.SizeFromXYZ(int(dims[0]), int(dims[1]), int(dims[2]))
	if !size.Valid() {
		return nil, fmt.Errorf("dataset %q in %q has invalid extents %s", name, path, size)
	}

	dt, err := dset.Datatype()
	if err != nil {
		return nil, fmt.Errorf("reading datatype of dataset %q in %q: %w", name, path, err)
	}
	defer dt.Close()
	if dt.Class() != hdf5.T_INTEGER {
		return nil, fmt.Errorf("dataset %q in %q holds non-integer voxels", name, path)
	}
	var dtype voxel.DType
	switch dt.Size() {
	case 1:
		dtype = voxel.Uint8
	case 2:
		dtype = voxel.Uint16
	case 4:
		dtype = voxel.Uint32
	case 8:
		dtype = voxel.Uint64
	default:
		return nil, fmt.Errorf("dataset %q in %q has unsupported %d-byte voxels", name, path, dt.Size())
	}

	buf := voxel.NewBuffer(dtype, size)
	n := size.Voxels()
	switch dtype {
	case voxel.Uint8:
		err = dset.Read(&buf.Data)
	case voxel.Uint16:
		data := make([]uint16, n)
		if err = dset.Read(&data); err == nil {
			for i, v := range data {
				binary.LittleEndian.PutUint16(buf.Data[i*2:], v)
			}
		}
	case voxel.Uint32:
		data := make([]uint32, n)
		if err = dset.Read(&data); err == nil {
			for i, v := range data {
				binary.LittleEndian.PutUint32(buf.Data[i*4:], v)
			}
		}
	case voxel.Uint64:
		data := make([]uint64, n)
		if err = dset.Read(&data); err == nil {
			for i, v := range data {
				binary.LittleEndian.PutUint64(buf.Data[i*8:], v)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset %q in %q: %w", name, path, err)
	}
	return buf, nil
}

func writeHDF5(buf *voxel.Buffer, path string) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("creating hdf5 volume %q: %w", path, err)
	}
	defer f.Close()

	x, y, z := buf.Size.ToXYZ()
	dims := []uint{uint(x), uint(y), uint(z)}
	dspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("creating hdf5 volume %q: %w", path, err)
	}
	defer dspace.Close()

	dtype := hdf5NativeType(buf.DType)
	if dtype == nil {
		return fmt.Errorf("writing hdf5 volume %q: unsupported voxel type %s", path, buf.DType)
	}
	dset, err := f.CreateDataset("data", dtype, dspace)
	if err != nil {
		return fmt.Errorf("creating dataset in hdf5 volume %q: %w", path, err)
	}
	defer dset.Close()

	n := buf.Size.Voxels()
	switch buf.DType {
	case voxel.Uint8:
		err = dset.Write(&buf.Data)
	case voxel.Uint16:
		data := make([]uint16, n)
		for i := range data {
			data[i] = binary.LittleEndian.Uint16(buf.Data[i*2:])
		}
		err = dset.Write(&data)
	case voxel.Uint32:
		data := make([]uint32, n)
		for i := range data {
			data[i] = binary.LittleEndian.Uint32(buf.Data[i*4:])
		}
		err = dset.Write(&data)
	case voxel.Uint64:
		data := make([]uint64, n)
		for i := range data {
			data[i] = binary.LittleEndian.Uint64(buf.Data[i*8:])
		}
		err = dset.Write(&data)
	}
	if err != nil {
		return fmt.Errorf("writing dataset in hdf5 volume %q: %w", path, err)
	}
	return nil
}
