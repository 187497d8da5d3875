/*
Package cloud downloads pre-chunked segmentation volumes from blob
stores into local chunk files. Datasets are addressed either by raw
storage URL or by short names resolved through a TOML registry.
*/
package cloud

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Dataset describes one cloud volume: where its chunk objects live and
// how to interpret them.
type Dataset struct {
	// URL locates the volume, e.g. "gs://bucket/path", "s3://bucket/path",
	// "vast://endpoint/bucket" or "file:///dir" for local testing.
	URL string `toml:"url"`

	// Prefix restricts the download to objects under this key prefix.
	Prefix string `toml:"prefix"`

	// Format restricts the download to chunk files of one format, named
	// by extension ("hdf5", "vraw", "npy", ...). Required when the
	// bucket holds the volume in more than one format.
	Format string `toml:"format"`

	// AxisOrder is the axis convention of the stored chunks, a
	// permutation of "xyz". Chunks are copied verbatim; the order is
	// recorded so later conversion can relabel extents.
	AxisOrder string `toml:"axis_order"`
}

// Registry maps short dataset names to cloud volumes. The TOML form is
//
//	[dataset.h01]
//	url = "gs://h01-release/data/20210601/c3"
//	axis_order = "xyz"
type Registry struct {
	Datasets map[string]Dataset `toml:"dataset"`
}

// DefaultRegistry returns the built-in dataset names available without
// a registry file.
func DefaultRegistry() *Registry {
	return &Registry{
		Datasets: map[string]Dataset{
			"h01": {
				URL:       "gs://h01-release/data/20210601/c3",
				AxisOrder: "xyz",
			},
		},
	}
}

// LoadRegistry reads a TOML registry file and merges it over the
// built-in datasets. An empty path returns just the built-ins.
func LoadRegistry(path string) (*Registry, error) {
	reg := DefaultRegistry()
	if path == "" {
		return reg, nil
	}
	var fromFile Registry
	if _, err := toml.DecodeFile(path, &fromFile); err != nil {
		return nil, fmt.Errorf("could not decode dataset registry %q: %v", path, err)
	}
	for name, ds := range fromFile.Datasets {
		reg.Datasets[name] = ds
	}
	return reg, nil
}

// Names returns the registered dataset names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Datasets))
	for name := range r.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the dataset registered under name. A name holding a
// URL scheme is taken as a raw storage URL instead.
func (r *Registry) Resolve(name string) (Dataset, error) {
	if ds, found := r.Datasets[name]; found {
		if ds.AxisOrder == "" {
			ds.AxisOrder = "xyz"
		}
		return ds, nil
	}
	if strings.Contains(name, "://") {
		return Dataset{URL: name, AxisOrder: "xyz"}, nil
	}
	return Dataset{}, fmt.Errorf("dataset %q is not in the registry; known names: %s",
		name, strings.Join(r.Names(), ", "))
}
