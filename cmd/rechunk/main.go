// Command-line interface to the segmentation volume rechunker.
// Converts chunked volumes between chunk grids, file formats and voxel
// types, and downloads pre-chunked volumes from cloud storage.

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/rechunk"
	"github.com/janelia-flyem/rechunk/chunkio"
	"github.com/janelia-flyem/rechunk/cloud"
	"github.com/janelia-flyem/rechunk/voxel"
)

// Version is the release tag of this build.
const Version = "0.1.0"

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to a log file; messages go to stdout when unset.
	logfile = flag.String("logfile", "", "")

	// Number of worker goroutines per compositing pass.
	threads = flag.Int("threads", rechunk.DefaultThreads, "")

	// Voxel type of written volumes.
	dtype = flag.String("dtype", "", "")

	// Axis order of the input volume, a permutation of "xyz".
	axes = flag.String("axes", "", "")

	// Apply gzip compression to written volume files.
	useGzip = flag.Bool("gzip", false, "")

	// Path to a TOML dataset registry for the download command.
	registry = flag.String("registry", "", "")

	// Continue an interrupted download.
	resume = flag.Bool("resume", false, "")
)

const helpMessage = `
rechunk converts chunked segmentation volumes between chunk grids, file
formats and voxel types.

Usage: rechunk [options] <command>

      -threads    =number   Worker goroutines per compositing pass (default 16).
      -dtype      =string   Voxel type of written volumes: uint8, uint16, uint32 or uint64.
      -axes       =string   Axis order of the input volume for convert/split, e.g. "zyx".
      -gzip       (flag)    Gzip-compress written volume files (convert command).
      -registry   =string   TOML dataset registry file for the download command.
      -resume     (flag)    Continue an interrupted download, skipping existing chunks.
      -logfile    =string   Append log messages to this file instead of stdout.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	rechunk  <in spec> <in chunk size> <last chunk> <out spec> <out chunk size>
	convert  <in file> <out file>
	split    <in file> <out spec> <chunk size>
	download <dataset name or url> <out dir>
	download list
	print    <volume file>
	formats
	about
	help

Chunk path specs hold three %d slots filled with XYZ chunk indices, e.g.
"vol/x%dy%dz%d.hdf5", and chunk sizes are XYZ triples like 1024,1024,1024.
The rechunk command reads volume extents and voxel type from the highest-
index input chunk, e.g. "vol/x3y0z2.hdf5".
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}

	if *runVerbose {
		voxel.SetLogMode(voxel.DebugMode)
	}
	if *logfile != "" {
		logConfig := voxel.LogConfig{Logfile: *logfile}
		logConfig.SetLogger()
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if err := DoCommand(command(flag.Args())); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// command is a parsed command line: the command name followed by its
// arguments.
type command []string

// Name returns the lowercased command name.
func (cmd command) Name() string {
	if len(cmd) == 0 {
		return ""
	}
	return strings.ToLower(cmd[0])
}

// Argument returns the ith element of the command line or the empty
// string.
func (cmd command) Argument(i int) string {
	if i >= len(cmd) {
		return ""
	}
	return cmd[i]
}

// DoCommand dispatches a parsed command line to its implementation.
func DoCommand(cmd command) error {
	switch cmd.Name() {
	case "rechunk":
		return DoRechunk(cmd)
	case "convert":
		return DoConvert(cmd)
	case "split":
		return DoSplit(cmd)
	case "download":
		return DoDownload(cmd)
	case "print":
		return DoPrint(cmd)
	case "formats":
		fmt.Print(chunkio.FormatChart())
	case "about":
		fmt.Printf("rechunk %s (%s)\n", Version, runtime.Version())
	default:
		return fmt.Errorf("unknown command %q; see 'rechunk help'", cmd.Name())
	}
	return nil
}

// parseSize parses an XYZ triple like "1024,1024,1024".
func parseSize(arg string) ([3]int, error) {
	var size [3]int
	parts := strings.Split(arg, ",")
	if len(parts) != 3 {
		return size, fmt.Errorf("chunk size must be an XYZ triple like 1024,1024,1024, got %q", arg)
	}
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return size, fmt.Errorf("chunk size must be an XYZ triple like 1024,1024,1024, got %q", arg)
		}
		size[i] = v
	}
	return size, nil
}

// parseDType parses the -dtype flag, returning the unknown type when the
// flag is unset.
func parseDType() (voxel.DType, error) {
	if *dtype == "" {
		return voxel.DTypeUnknown, nil
	}
	return voxel.ParseDType(*dtype)
}

// DoRechunk performs the "rechunk" command, converting a chunked volume
// from one chunk grid to another.
func DoRechunk(cmd command) error {
	if cmd.Argument(5) == "" {
		return fmt.Errorf("rechunk command must be followed by: <in spec> <in chunk size> <last chunk> <out spec> <out chunk size>")
	}
	chunkIn, err := parseSize(cmd.Argument(2))
	if err != nil {
		return err
	}
	chunkOut, err := parseSize(cmd.Argument(5))
	if err != nil {
		return err
	}
	opts := rechunk.Options{Threads: *threads}
	if opts.DType, err = parseDType(); err != nil {
		return err
	}
	return rechunk.Rechunk(cmd.Argument(1), chunkIn, cmd.Argument(3), cmd.Argument(4), chunkOut, &opts)
}

// DoConvert performs the "convert" command, rewriting one volume file
// in another format, voxel type or axis labeling.
func DoConvert(cmd command) error {
	if cmd.Argument(2) == "" {
		return fmt.Errorf("convert command must be followed by input and output volume files")
	}
	opts := chunkio.WriteOptions{Gzip: *useGzip}
	var err error
	if opts.DType, err = parseDType(); err != nil {
		return err
	}
	return rechunk.Convert(cmd.Argument(1), cmd.Argument(2), *axes, &opts)
}

// DoSplit performs the "split" command, cutting one volume file into a
// grid of chunk files.
func DoSplit(cmd command) error {
	if cmd.Argument(3) == "" {
		return fmt.Errorf("split command must be followed by: <in file> <out spec> <chunk size>")
	}
	chunkSize, err := parseSize(cmd.Argument(3))
	if err != nil {
		return err
	}
	buf, err := chunkio.ReadVolume(cmd.Argument(1))
	if err != nil {
		return err
	}
	if *axes != "" {
		if err := buf.ReshapeAxes(*axes, "zyx"); err != nil {
			return err
		}
	}
	dt, err := parseDType()
	if err != nil {
		return err
	}
	if dt != voxel.DTypeUnknown {
		buf = buf.Guard(dt)
	}
	return rechunk.WriteChunked(buf, cmd.Argument(2), chunkSize)
}

// DoDownload performs the "download" command, copying the chunk files
// of a cloud volume into a local directory. "download list" shows the
// datasets registered by name.
func DoDownload(cmd command) error {
	reg, err := cloud.LoadRegistry(*registry)
	if err != nil {
		return err
	}
	if cmd.Argument(1) == "list" {
		fmt.Println("Registered datasets:\n  " + strings.Join(reg.Names(), "\n  "))
		return nil
	}
	if cmd.Argument(2) == "" {
		return fmt.Errorf("download command must be followed by a dataset name or url and an output directory")
	}
	ds, err := reg.Resolve(cmd.Argument(1))
	if err != nil {
		return err
	}
	return cloud.Download(ds, cmd.Argument(2), &cloud.DownloadOptions{Resume: *resume})
}

// DoPrint performs the "print" command, showing the extents, voxel type
// and value range of one volume file.
func DoPrint(cmd command) error {
	if cmd.Argument(1) == "" {
		return fmt.Errorf("print command must be followed by a volume file")
	}
	buf, err := chunkio.ReadVolume(cmd.Argument(1))
	if err != nil {
		return err
	}
	if *axes != "" {
		if err := buf.ReshapeAxes(*axes, "zyx"); err != nil {
			return err
		}
	}
	minVal, maxVal := buf.MinMax()
	fmt.Printf("volume with shape %s type %s min. %d max. %d (%s)\n",
		buf.Size, buf.DType, minVal, maxVal, humanize.Bytes(uint64(len(buf.Data))))
	x, y, z := buf.Size.ToXYZ()
	if x%64 != 0 || y%64 != 0 || z%64 != 0 {
		fmt.Println("note: extents are not multiples of 64; full-size chunks of a chunked volume should be")
	}
	return nil
}
