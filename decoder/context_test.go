package decoder

import (
	"bytes"
	"image"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/farcloser/framegrab"
	"github.com/farcloser/framegrab/decoder/mocks"
	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/h264"
)

func TestRunRejectsNonMP4Input(t *testing.T) {
	ctrl := gomock.NewController(t)
	sliceDecoder := mocks.NewMockSliceDecoder(ctrl)
	imageWriter := mocks.NewMockImageWriter(ctrl)

	c := New(sliceDecoder, imageWriter)

	src := bytes.NewReader([]byte("this is not a container at all!"))

	result, err := c.Run(src, framegrab.RunParams{})
	if err == nil {
		t.Fatal("expected an error for non-mp4 input")
	}

	if result.Status != framegrab.ExitFailure {
		t.Fatalf("expected ExitFailure, got %v", result.Status)
	}

	if errs.Code(err) != errs.MalformedContainer {
		t.Fatalf("expected MalformedContainer, got %v", errs.Code(err))
	}
}

func TestWriteAllProducesOnePathPerDecodedPicture(t *testing.T) {
	ctrl := gomock.NewController(t)
	sliceDecoder := mocks.NewMockSliceDecoder(ctrl)
	imageWriter := mocks.NewMockImageWriter(ctrl)

	imageWriter.EXPECT().
		Write(gomock.Any(), framegrab.FormatPNG, gomock.Any()).
		Return(nil).
		Times(2)

	c := New(sliceDecoder, imageWriter)

	decoded := []h264.Decoded{
		{Index: 0, Image: image.NewRGBA(image.Rect(0, 0, 1, 1))},
		{Index: 1, Image: image.NewRGBA(image.Rect(0, 0, 1, 1))},
	}

	paths, err := c.writeAll(decoded, framegrab.RunParams{Format: framegrab.FormatPNG, OutputDir: "/tmp/out"})
	if err != nil {
		t.Fatalf("writeAll: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected 2 written paths, got %d", len(paths))
	}
}

func TestWriteAllPropagatesWriterError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sliceDecoder := mocks.NewMockSliceDecoder(ctrl)
	imageWriter := mocks.NewMockImageWriter(ctrl)

	imageWriter.EXPECT().
		Write(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errs.New(errs.IOFailure, "disk full"))

	c := New(sliceDecoder, imageWriter)

	decoded := []h264.Decoded{{Index: 0, Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}}

	_, err := c.writeAll(decoded, framegrab.RunParams{Format: framegrab.FormatPNG, OutputDir: "/tmp/out"})
	if errs.Code(err) != errs.IOFailure {
		t.Fatalf("expected IOFailure, got %v", errs.Code(err))
	}
}
