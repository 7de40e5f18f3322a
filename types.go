// Package framegrab extracts IDR keyframe thumbnails out of H.264 video
// carried in an MP4 container: it demultiplexes the container, dispatches
// the coded video track's NAL units, and hands each selected IDR picture
// to an external slice decoder and image writer.
package framegrab

import "image"

// OutputFormat is the image encoding an ImageWriter produces.
type OutputFormat uint8

const (
	FormatPNG OutputFormat = iota
	FormatJPEG
	FormatBMP
	FormatTGA
)

func (f OutputFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatTGA:
		return "tga"
	default:
		return "unknown"
	}
}

// ExtractionMode mirrors filter.Mode at the package boundary so callers of
// framegrab don't need to import the filter package just to configure a
// run.
type ExtractionMode uint8

const (
	ModeUnfiltered ExtractionMode = iota
	ModeOrdered
	ModeDistributed
)

// RunParams configures one extraction run. The IDR size threshold and
// border cut Ordered/Distributed apply are computed internally from the
// sample map, not configured here.
type RunParams struct {
	Mode      ExtractionMode
	Count     int
	Format    OutputFormat
	OutputDir string
}

// Picture is one decoded IDR keyframe, ready for an ImageWriter.
type Picture struct {
	Index int
	PTS   int64
	Image image.Image
}

// ExitStatus is the process-level result of a run: Success iff at least
// one picture was produced and no fatal error occurred.
type ExitStatus uint8

const (
	ExitFailure ExitStatus = iota
	ExitSuccess
)

// ImageWriter is the external collaborator that encodes a decoded Picture
// to its final on-disk representation.
type ImageWriter interface {
	Write(p Picture, format OutputFormat, path string) error
}
