package main

import (
	"image"

	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/h264"
)

// noopSliceDecoder is the default h264.SliceDecoder wiring for this CLI.
// Actual macroblock reconstruction is out of scope for this tool;
// production deployments are expected to supply their own SliceDecoder,
// typically backed by a hardware or cgo decoder, through the same seam
// this type occupies.
type noopSliceDecoder struct{}

func newSliceDecoder() h264.SliceDecoder {
	return noopSliceDecoder{}
}

func (noopSliceDecoder) DecodeIDR(nal []byte, sps *h264.SPS, pps *h264.PPS) (image.Image, error) {
	return nil, errs.New(errs.UnsupportedFeature, "no slice decoder backend configured")
}
