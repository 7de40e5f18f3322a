package output

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/framegrab"
	"github.com/farcloser/framegrab/errs"
)

func TestWriterWritesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")

	w := NewWriter()
	pic := framegrab.Picture{Index: 0, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}

	if err := w.Write(pic, framegrab.FormatPNG, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file, got %v", err)
	}
}

func TestWriterWritesJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")

	w := NewWriter()
	pic := framegrab.Picture{Index: 0, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}

	if err := w.Write(pic, framegrab.FormatJPEG, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file, got %v", err)
	}
}

func TestWriterRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.bmp")

	w := NewWriter()
	pic := framegrab.Picture{Index: 0, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}

	err := w.Write(pic, framegrab.FormatBMP, path)
	if errs.Code(err) != errs.UnsupportedFeature {
		t.Fatalf("expected UnsupportedFeature, got %v", err)
	}
}
