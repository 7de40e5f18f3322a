// Package decoder wires the container parser, IDR filter, and NAL
// dispatcher together into a single run: demux, filter, decode, write,
// producing a sequence of exported images and the run's exit status.
package decoder

import (
	"fmt"
	"io"

	"github.com/farcloser/framegrab"
	"github.com/farcloser/framegrab/bitstream"
	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/filter"
	"github.com/farcloser/framegrab/h264"
	"github.com/farcloser/framegrab/mp4"
)

// Context aggregates the collaborators one extraction run needs: a
// decoder for IDR slices and a writer for the resulting images. Both are
// supplied by the caller — framegrab itself never decodes macroblocks or
// encodes pixels.
type Context struct {
	SliceDecoder h264.SliceDecoder
	ImageWriter  framegrab.ImageWriter
}

// New returns a Context ready to run extractions against sliceDecoder and
// imageWriter.
func New(sliceDecoder h264.SliceDecoder, imageWriter framegrab.ImageWriter) *Context {
	return &Context{SliceDecoder: sliceDecoder, ImageWriter: imageWriter}
}

// Result summarizes one completed run.
type Result struct {
	Status       framegrab.ExitStatus
	Stats        h264.Stats
	WrittenPaths []string
}

// Run demultiplexes src, selects IDR pictures per params, decodes and
// writes each one, and reports the aggregate result.
func (c *Context) Run(src io.ReadSeeker, params framegrab.RunParams) (Result, error) {
	container, err := mp4.Parse(src)
	if err != nil {
		return Result{Status: framegrab.ExitFailure}, err
	}

	track, err := container.VideoTrack()
	if err != nil {
		return Result{Status: framegrab.ExitFailure}, err
	}

	filtered, err := filter.Apply(track.Samples, filter.Options{
		Mode:  filter.Mode(params.Mode),
		Count: params.Count,
	})
	if err != nil {
		return Result{Status: framegrab.ExitFailure}, err
	}

	reader := bitstream.New(src, filtered)
	dispatcher := h264.NewDispatcher(h264.NewParameterSetCache(), c.SliceDecoder)

	decoded, stats, err := dispatcher.Run(reader, track.NALLengthSize)
	if err != nil {
		return Result{Status: framegrab.ExitFailure, Stats: stats}, err
	}

	paths, err := c.writeAll(decoded, params)
	if err != nil {
		return Result{Status: framegrab.ExitFailure, Stats: stats}, err
	}

	status := framegrab.ExitFailure
	if len(paths) > 0 {
		status = framegrab.ExitSuccess
	}

	return Result{Status: status, Stats: stats, WrittenPaths: paths}, nil
}

func (c *Context) writeAll(decoded []h264.Decoded, params framegrab.RunParams) ([]string, error) {
	paths := make([]string, 0, len(decoded))

	for _, d := range decoded {
		pic := framegrab.Picture{Index: d.Index, PTS: d.PTS, Image: d.Image}
		path := fmt.Sprintf("%s/frame-%04d.%s", params.OutputDir, d.Index, params.Format)

		if err := c.ImageWriter.Write(pic, params.Format, path); err != nil {
			return paths, errs.Wrapf(err, "writing picture %d", d.Index)
		}

		paths = append(paths, path)
	}

	return paths, nil
}
