// Package output implements framegrab.ImageWriter, encoding decoded IDR
// pictures to their final on-disk representation.
package output

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/farcloser/framegrab"
	"github.com/farcloser/framegrab/errs"
)

// Writer is the default ImageWriter: PNG and JPEG via the standard
// library's image codecs. BMP and TGA are valid OutputFormat values but
// have no standard-library encoder, so they are reported as unsupported
// rather than hand-rolled; callers needing them supply their own
// ImageWriter.
type Writer struct {
	JPEGQuality int
}

// NewWriter returns a Writer with a sensible default JPEG quality.
func NewWriter() *Writer {
	return &Writer{JPEGQuality: 90}
}

// Write encodes p.Image in format and saves it to path.
func (w *Writer) Write(p framegrab.Picture, format framegrab.OutputFormat, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrapf(err, "creating output file %s", path)
	}

	defer f.Close()

	if err := w.encode(f, p.Image, format); err != nil {
		return err
	}

	return nil
}

func (w *Writer) encode(dst *os.File, img image.Image, format framegrab.OutputFormat) error {
	switch format {
	case framegrab.FormatPNG:
		if err := png.Encode(dst, img); err != nil {
			return errs.Wrapf(err, "encoding png")
		}

		return nil

	case framegrab.FormatJPEG:
		if err := jpeg.Encode(dst, img, &jpeg.Options{Quality: w.JPEGQuality}); err != nil {
			return errs.Wrapf(err, "encoding jpeg")
		}

		return nil

	default:
		return errs.New(errs.UnsupportedFeature, "output format "+format.String()+" is not supported")
	}
}
