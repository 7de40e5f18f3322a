// Package detect implements a cheap container probe: a hand-rolled
// top-level box walk that decides, without materializing any sample
// table, whether an input is worth handing to mp4.Parse.
//
// The box-walking style (findBox/readBoxHeader) looks for the video
// track's avc1 sample entry via the same raw encoding/binary reads a
// codec-fourcc probe would use.
package detect

import (
	"encoding/binary"
	"fmt"
	"io"
)

// mp4BoxHeaderSize is the size of a standard MP4 box header (size + type).
const mp4BoxHeaderSize = 8

// Result is what Probe reports about an input file.
type Result struct {
	IsMP4    bool
	HasVideo bool
	IsAVC    bool
}

// Probe walks moov/trak/mdia/minf/stbl/stsd looking for the first video
// track's sample entry FourCC. The reader position is reset to the start
// before returning.
func Probe(reader io.ReadSeeker) (Result, error) {
	var res Result

	defer func() {
		_, _ = reader.Seek(0, io.SeekStart)
	}()

	var header [mp4BoxHeaderSize]byte
	if _, err := io.ReadFull(reader, header[:]); err != nil {
		return res, fmt.Errorf("reading header: %w", err)
	}

	if string(header[4:8]) != "ftyp" {
		return res, nil
	}

	res.IsMP4 = true

	moovOffset, moovSize, err := findBox(reader, 0, -1, "moov")
	if err != nil || moovSize == 0 {
		return res, nil
	}

	fourCC, isVideo, found := probeTraks(reader, moovOffset, moovSize)
	if found {
		res.HasVideo = isVideo
		res.IsAVC = isVideo && fourCC == "avc1"
	}

	return res, nil
}

// probeTraks iterates over trak boxes inside moov, returning the first
// video track whose mdia/hdlr and stsd entry it can read.
func probeTraks(reader io.ReadSeeker, moovOffset, moovSize int64) (fourCC string, isVideo, found bool) {
	end := moovOffset + moovSize
	pos := moovOffset

	for pos < end {
		contentOffset, totalSize, boxType, err := readBoxHeader(reader, pos)
		if err != nil || totalSize == 0 {
			break
		}

		if boxType == "trak" {
			contentSize := totalSize - mp4BoxHeaderSize
			if fc, vid, ok := probeTrak(reader, contentOffset, contentSize); ok && vid {
				return fc, vid, true
			}
		}

		pos = contentOffset - mp4BoxHeaderSize + totalSize
	}

	return "", false, false
}

// probeTrak descends trak -> mdia -> hdlr (for handler_type) and trak ->
// mdia -> minf -> stbl -> stsd (for the sample entry FourCC).
func probeTrak(reader io.ReadSeeker, trakOffset, trakSize int64) (fourCC string, isVideo, found bool) {
	mdiaOff, mdiaSize, err := findBox(reader, trakOffset, trakSize, "mdia")
	if err != nil || mdiaSize == 0 {
		return "", false, false
	}

	isVideo = probeHdlr(reader, mdiaOff, mdiaSize)

	minfOff, minfSize, err := findBox(reader, mdiaOff, mdiaSize, "minf")
	if err != nil || minfSize == 0 {
		return "", isVideo, false
	}

	stblOff, stblSize, err := findBox(reader, minfOff, minfSize, "stbl")
	if err != nil || stblSize == 0 {
		return "", isVideo, false
	}

	stsdOff, stsdSize, err := findBox(reader, stblOff, stblSize, "stsd")
	if err != nil || stsdSize == 0 {
		return "", isVideo, false
	}

	fc, ok := probeStsd(reader, stsdOff, stsdSize)

	return fc, isVideo, ok
}

// probeHdlr reads the handler_type field of the first hdlr box found
// within [mdiaOff, mdiaOff+mdiaSize).
func probeHdlr(reader io.ReadSeeker, mdiaOff, mdiaSize int64) bool {
	hdlrOff, hdlrSize, err := findBox(reader, mdiaOff, mdiaSize, "hdlr")
	if err != nil || hdlrSize == 0 {
		return false
	}

	const handlerTypeOffset = 8 // version/flags(4) + pre_defined(4)

	if hdlrSize < handlerTypeOffset+4 {
		return false
	}

	if _, err := reader.Seek(hdlrOff+handlerTypeOffset, io.SeekStart); err != nil {
		return false
	}

	var ht [4]byte
	if _, err := io.ReadFull(reader, ht[:]); err != nil {
		return false
	}

	return string(ht[:]) == "vide"
}

// probeStsd reads the stsd box payload and returns the FourCC of its first
// sample entry.
func probeStsd(reader io.ReadSeeker, contentOffset, contentSize int64) (string, bool) {
	const stsdHeaderSize = 8 // version(1) + flags(3) + entry_count(4)

	if contentSize < stsdHeaderSize+mp4BoxHeaderSize {
		return "", false
	}

	if _, err := reader.Seek(contentOffset+stsdHeaderSize, io.SeekStart); err != nil {
		return "", false
	}

	var entry [mp4BoxHeaderSize]byte
	if _, err := io.ReadFull(reader, entry[:]); err != nil {
		return "", false
	}

	return string(entry[4:8]), true
}

// findBox searches for a box with the given type among direct children
// starting at parentContentOffset within parentSize bytes. Returns the
// content offset (past the box header) and content size of the found box.
func findBox(reader io.ReadSeeker, parentContentOffset, parentSize int64, target string) (int64, int64, error) {
	end := parentContentOffset + parentSize
	if parentSize < 0 {
		end = 1<<62 - 1
	}

	pos := parentContentOffset

	for pos < end {
		offset, size, boxType, err := readBoxHeader(reader, pos)
		if err != nil || size == 0 {
			return 0, 0, err
		}

		if boxType == target {
			contentSize := size - mp4BoxHeaderSize

			return offset, contentSize, nil
		}

		pos = offset - mp4BoxHeaderSize + size
	}

	return 0, 0, nil
}

// readBoxHeader reads an MP4 box header at the given position. Returns the
// content offset (past header), total box size, box type, and any error.
func readBoxHeader(reader io.ReadSeeker, pos int64) (contentOffset, totalSize int64, boxType string, err error) {
	if _, err = reader.Seek(pos, io.SeekStart); err != nil {
		return 0, 0, "", err
	}

	var header [mp4BoxHeaderSize]byte
	if _, err = io.ReadFull(reader, header[:]); err != nil {
		return 0, 0, "", err
	}

	size := int64(binary.BigEndian.Uint32(header[0:4]))
	boxType = string(header[4:8])

	if size == 0 {
		return 0, 0, boxType, nil
	}

	return pos + mp4BoxHeaderSize, size, boxType, nil
}
