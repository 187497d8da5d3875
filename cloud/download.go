package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcp"

	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/voxel"
)

// openBucket returns a blob.Bucket for a storage URL of one of the
// forms:
//
//	gs://<bucketname>/<path>
//	s3://<bucketname>/<path>
//	vast://<endpoint>/<bucketname>
//	file:///<dir>
func openBucket(ref string) (bucket *blob.Bucket, err error) {
	ctx := context.Background()

	switch {
	case strings.HasPrefix(ref, "s3://"):
		// Requires AWS credentials where gocloud can find them (see the
		// "aws config" command) and the AWS_REGION environment variable.
		bucket, err = blob.OpenBucket(ctx, ref)
		if err != nil {
			return nil, err
		}
		pathpart := strings.TrimPrefix(ref, "s3://")
		if parts := strings.SplitN(pathpart, "/", 2); len(parts) == 2 && parts[1] != "" {
			bucket = blob.PrefixedBucket(bucket, keyPrefix(parts[1]))
		}

	case strings.HasPrefix(ref, "vast://"):
		// VAST S3-compatible storage. AWS_REGION must be set (the value
		// is ignored) and AWS_SHARED_CREDENTIALS_FILE must point at a
		// credentials file holding the access keys.
		trimmed := strings.TrimPrefix(ref, "vast://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("vast ref must be of form 'vast://<endpoint>/<bucket>'")
		}
		url := fmt.Sprintf("s3://%s?endpoint=%s&s3ForcePathStyle=true", parts[1], parts[0])
		bucket, err = blob.OpenBucket(ctx, url)
		if err != nil {
			return nil, err
		}

	case strings.HasPrefix(ref, "gs://"):
		// Google Cloud Storage with application default credentials.
		// See https://cloud.google.com/docs/authentication/production
		// for more info on alternatives.
		creds, err := gcp.DefaultCredentials(ctx)
		if err != nil {
			return nil, err
		}
		client, err := gcp.NewHTTPClient(
			gcp.DefaultTransport(),
			gcp.CredentialsTokenSource(creds))
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimPrefix(ref, "gs://")
		parts := strings.SplitN(trimmed, "/", 2)
		bucket, err = gcsblob.OpenBucket(ctx, client, parts[0], nil)
		if err != nil {
			return nil, err
		}
		if len(parts) == 2 && parts[1] != "" {
			bucket = blob.PrefixedBucket(bucket, keyPrefix(parts[1]))
		}

	default:
		// Any other scheme gocloud has an opener for, e.g. file:// for
		// local directories.
		bucket, err = blob.OpenBucket(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

// keyPrefix normalizes a bucket path to the trailing-slash form
// blob.PrefixedBucket expects.
func keyPrefix(p string) string {
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// DownloadOptions modify a Download run. The zero value starts a fresh
// download into an empty directory.
type DownloadOptions struct {
	// Resume continues an interrupted download: the output directory
	// must hold the info file of a previous run, and chunk files
	// already present are not fetched again.
	Resume bool
}

// chunkObject is one bucket object recognized as a chunk file.
type chunkObject struct {
	key  string
	size int64
	idx  voxel.Index3
}

// Download copies the chunk files of a pre-chunked cloud volume into
// outDir. Objects are recognized by the x{i}y{j}z{k} index in their
// name plus a known volume format extension; everything else in the
// bucket is ignored. An info file named after the highest chunk index
// with a .txt extension records the source and grid shape, so resumed
// runs can verify they continue the same download.
func Download(ds Dataset, outDir string, opts *DownloadOptions) error {
	timeLog := voxel.NewTimeLog()
	ctx := context.Background()

	axisOrder := ds.AxisOrder
	if axisOrder == "" {
		axisOrder = "xyz"
	}
	axisOrder, err := voxel.CheckAxisOrder(axisOrder)
	if err != nil {
		return err
	}
	wantFormat := chunkio.UnknownFormat
	if ds.Format != "" {
		if wantFormat, _, err = chunkio.FormatByPath("chunk." + ds.Format); err != nil {
			return fmt.Errorf("dataset format %q is not a known volume format", ds.Format)
		}
	}

	bucket, err := openBucket(ds.URL)
	if err != nil {
		return fmt.Errorf("opening bucket %q: %v", ds.URL, err)
	}
	defer bucket.Close()

	objects, totalBytes, err := listChunkObjects(ctx, bucket, ds.Prefix, wantFormat)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("no chunk files found in %q", ds.URL)
	}

	var maxIdx voxel.Index3
	for _, obj := range objects {
		for axis := range maxIdx {
			if obj.idx[axis] > maxIdx[axis] {
				maxIdx[axis] = obj.idx[axis]
			}
		}
	}
	var grid voxel.Size3
	for axis := range grid {
		grid[axis] = maxIdx[axis] + 1
	}
	infoPath := filepath.Join(outDir, maxIdx.String()+".txt")

	resume := opts != nil && opts.Resume
	if resume {
		if _, err := os.Stat(infoPath); err != nil {
			resume = false
		}
	}
	if !resume {
		entries, err := os.ReadDir(outDir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if len(entries) > 0 {
			return fmt.Errorf("output directory %q must be empty when starting a new download", outDir)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	format := wantFormat
	if format == chunkio.UnknownFormat {
		format, _, _ = chunkio.FormatByPath(objects[0].key)
	}

	voxel.Infof("Downloading %d chunks (%s) from %s into %s (%s grid).\n",
		len(objects), humanize.Bytes(uint64(totalBytes)), ds.URL, outDir, grid)
	if err := writeInfoFile(infoPath, ds.URL, grid, format, axisOrder, len(objects), totalBytes); err != nil {
		return err
	}

	fetched, skipped := 0, 0
	for i, obj := range objects {
		name := path.Base(obj.key)
		local := filepath.Join(outDir, name)
		if _, err := os.Stat(local); err == nil {
			voxel.Debugf("Chunk %s already exists, skipping download.\n", name)
			skipped++
			continue
		}
		data, err := bucket.ReadAll(ctx, obj.key)
		if err != nil {
			return fmt.Errorf("downloading chunk %q: %v", obj.key, err)
		}
		if err := os.WriteFile(local, data, 0o644); err != nil {
			return err
		}
		fetched++
		voxel.Infof("%3d%% downloaded chunk %s (%s)\n",
			(i+1)*100/len(objects), name, humanize.Bytes(uint64(len(data))))
	}

	timeLog.Infof("Downloaded %d chunks from %s (%d skipped, %s on disk)",
		fetched, ds.URL, skipped, humanize.Bytes(uint64(totalBytes)))
	return nil
}

// listChunkObjects lists the bucket under prefix and keeps objects that
// name a chunk index and carry a known volume format extension. When
// want selects a format, other formats are filtered out; otherwise the
// chunks must all share one format.
func listChunkObjects(ctx context.Context, bucket *blob.Bucket, prefix string, want chunkio.Format) ([]chunkObject, int64, error) {
	var (
		objects    []chunkObject
		totalBytes int64
		seen       = make(map[chunkio.Format]bool)
	)
	iter := bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("listing bucket: %v", err)
		}
		if obj.IsDir {
			continue
		}
		idx, err := chunkio.ParseChunkIndex(obj.Key)
		if err != nil {
			continue
		}
		format, _, err := chunkio.FormatByPath(obj.Key)
		if err != nil {
			continue
		}
		if want != chunkio.UnknownFormat && format != want {
			continue
		}
		seen[format] = true
		objects = append(objects, chunkObject{key: obj.Key, size: obj.Size, idx: idx})
		totalBytes += obj.Size
	}
	if len(seen) > 1 {
		names := make([]string, 0, len(seen))
		for f := range seen {
			names = append(names, f.String())
		}
		sort.Strings(names)
		return nil, 0, fmt.Errorf("bucket holds chunks in multiple formats (%s); set the dataset format to pick one",
			strings.Join(names, ", "))
	}
	sort.Slice(objects, func(i, j int) bool {
		a, b := objects[i].idx, objects[j].idx
		if a[voxel.Z] != b[voxel.Z] {
			return a[voxel.Z] < b[voxel.Z]
		}
		if a[voxel.Y] != b[voxel.Y] {
			return a[voxel.Y] < b[voxel.Y]
		}
		return a[voxel.X] < b[voxel.X]
	})
	return objects, totalBytes, nil
}

// writeInfoFile records the download source next to the chunks, named
// after the highest chunk index so resumed runs can find it.
func writeInfoFile(path, url string, grid voxel.Size3, format chunkio.Format, axisOrder string, count int, totalBytes int64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s downloaded from %s\n", time.Now().Format("2006.01.02 15:04:05"), url)
	fmt.Fprintf(&b, "chunk grid: %d x %d x %d [xyz]\n", grid[voxel.X], grid[voxel.Y], grid[voxel.Z])
	fmt.Fprintf(&b, "chunk format: %s\n", format)
	fmt.Fprintf(&b, "axis order: %s (as stored in the cloud dataset)\n", axisOrder)
	fmt.Fprintf(&b, "total: %d chunks, %s\n", count, humanize.Bytes(uint64(totalBytes)))
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
