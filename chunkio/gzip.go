package chunkio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// compressFile writes a gzip-compressed sibling of path named path.gz
// and returns its path. The original file is left in place.
func compressFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("gzip compressing %q: %w", path, err)
	}
	defer in.Close()

	gzPath := path + ".gz"
	out, err := os.Create(gzPath)
	if err != nil {
		return "", fmt.Errorf("gzip compressing %q: %w", path, err)
	}
	gzw := gzip.NewWriter(out)
	if _, err := io.Copy(gzw, in); err != nil {
		out.Close()
		return "", fmt.Errorf("gzip compressing %q: %w", path, err)
	}
	if err := gzw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("gzip compressing %q: %w", path, err)
	}
	return gzPath, out.Close()
}

// uncompressFile writes a decompressed sibling of a .gz file, named by
// stripping the .gz suffix, and returns its path.
func uncompressFile(gzPath string) (string, error) {
	if !strings.HasSuffix(gzPath, ".gz") {
		return "", fmt.Errorf("gzip decompression input %q must end with .gz", gzPath)
	}
	in, err := os.Open(gzPath)
	if err != nil {
		return "", fmt.Errorf("gzip decompressing %q: %w", gzPath, err)
	}
	defer in.Close()

	gzr, err := gzip.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("gzip decompressing %q: %w", gzPath, err)
	}
	defer gzr.Close()

	path := strings.TrimSuffix(gzPath, ".gz")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("gzip decompressing %q: %w", gzPath, err)
	}
	if _, err := io.Copy(out, gzr); err != nil {
		out.Close()
		return "", fmt.Errorf("gzip decompressing %q: %w", gzPath, err)
	}
	return path, out.Close()
}
