package mp4

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/farcloser/framegrab/errs"
)

// Box mirrors one node of the ISO-BMFF box tree: the common 8/16-byte
// header plus the invariant that its content is fully contained between
// OffsetStart and OffsetEnd.
type Box struct {
	OffsetStart int64
	OffsetEnd   int64
	Size        int64
	HeaderSize  int64
	Type        string
	UUID        [16]byte
	HasUUID     bool
}

const (
	smallHeaderSize = 8
	largeHeaderSize = 16
	uuidSize        = 16
)

// readBox reads a single box's common header at offset, following ISO-BMFF
// size encoding: size==1 means an 8-byte largesize follows; size==0 means
// "to end of file"; type=="uuid" carries a 16-byte extended type.
func readBox(r io.ReadSeeker, offset int64) (Box, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return Box{}, errs.Wrapf(err, "seeking to box at offset %d", offset)
	}

	var hdr [largeHeaderSize]byte

	if _, err := io.ReadFull(r, hdr[:smallHeaderSize]); err != nil {
		return Box{}, errs.New(errs.IOFailure, fmt.Sprintf("reading box header at %d: %v", offset, err))
	}

	rawSize := binary.BigEndian.Uint32(hdr[0:4])
	typ := string(hdr[4:8])

	b := Box{OffsetStart: offset, Type: typ, HeaderSize: smallHeaderSize}

	switch rawSize {
	case 0:
		end, err := r.Seek(0, io.SeekEnd)
		if err != nil {
			return Box{}, errs.Wrapf(err, "seeking to end of file")
		}

		b.Size = end - offset

	case 1:
		if _, err := io.ReadFull(r, hdr[smallHeaderSize:largeHeaderSize]); err != nil {
			return Box{}, errs.New(errs.MalformedContainer, "reading largesize field")
		}

		b.Size = int64(binary.BigEndian.Uint64(hdr[smallHeaderSize:largeHeaderSize]))
		b.HeaderSize = largeHeaderSize

	default:
		b.Size = int64(rawSize)
	}

	if typ == "uuid" {
		var u [uuidSize]byte
		if _, err := io.ReadFull(r, u[:]); err != nil {
			return Box{}, errs.New(errs.MalformedContainer, "reading uuid extended type")
		}

		b.UUID = u
		b.HasUUID = true
		b.HeaderSize += uuidSize
	}

	if b.Size < b.HeaderSize {
		return Box{}, errs.New(errs.MalformedContainer,
			fmt.Sprintf("box %q at %d: size %d smaller than header %d", typ, offset, b.Size, b.HeaderSize))
	}

	b.OffsetEnd = offset + b.Size

	return b, nil
}

// checkContainment enforces the parent/child invariant: parent.offset_start
// < child.offset_start < child.offset_end <= parent.offset_end.
func checkContainment(parent, child Box) error {
	if !(parent.OffsetStart < child.OffsetStart && child.OffsetStart < child.OffsetEnd && child.OffsetEnd <= parent.OffsetEnd) {
		return errs.New(errs.MalformedContainer,
			fmt.Sprintf("box %q at [%d,%d) escapes parent %q [%d,%d)",
				child.Type, child.OffsetStart, child.OffsetEnd, parent.Type, parent.OffsetStart, parent.OffsetEnd))
	}

	return nil
}

// walkTopLevel scans the file's top-level boxes, returning them in file
// order, so Parse can check ftyp/moov ordering before descending into any
// track.
func walkTopLevel(r io.ReadSeeker) ([]Box, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errs.Wrapf(err, "seeking to end of file")
	}

	var boxes []Box

	pos := int64(0)
	for pos < end {
		b, err := readBox(r, pos)
		if err != nil {
			return boxes, err
		}

		if b.OffsetEnd > end {
			return boxes, errs.New(errs.MalformedContainer,
				fmt.Sprintf("box %q at %d extends past end of file", b.Type, b.OffsetStart))
		}

		boxes = append(boxes, b)
		pos = b.OffsetEnd
	}

	return boxes, nil
}
