// Package bitstream implements the random-access byte/bit reader that turns
// MP4 sample offsets into NAL-unit byte windows and those windows into the
// Exp-Golomb-coded fields H.264 headers are built from.
//
// The bit-at-a-time primitives are ported from the same MSB-first scheme
// alac's ALACBitUtilities-derived bitBuffer uses, generalized to work
// against samples fed in one at a time from a SampleMap instead of a single
// in-memory packet.
package bitstream

import (
	"io"
	"math"

	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/mp4"
)

// padding bytes appended to every loaded sample so read/peek never read past
// the backing slice even when a header straddles the last few bits.
const padding = 4

// Reader feeds NAL-unit byte windows out of a file's SampleMap and exposes
// bit-level access (Exp-Golomb, fixed-width fields) over the currently
// loaded sample.
type Reader struct {
	src    io.ReadSeeker
	sample *mp4.SampleMap

	cursor int // index of the next sample to feed

	buf    []byte // padded current NAL buffer
	size   int    // unpadded length of buf
	pos    int    // byte position within buf
	bitIdx uint32 // 0-7, bit offset within buf[pos]

	// CurrentType is the sample type of the NAL unit currently loaded.
	CurrentType mp4.SampleType
}

// New creates a Reader over src, feeding samples from sampleMap in order.
func New(src io.ReadSeeker, sampleMap *mp4.SampleMap) *Reader {
	return &Reader{src: src, sample: sampleMap}
}

// NewFromBytes wraps an already-extracted NAL payload (for example, the
// bytes past the NAL header of a single slice or parameter set) for
// standalone bit-level reading, with no backing SampleMap to feed from.
func NewFromBytes(data []byte) *Reader {
	r := &Reader{}
	r.load(data)

	return r
}

// Done reports whether every sample in the map has been fed.
func (r *Reader) Done() bool {
	return r.cursor >= len(r.sample.Samples)
}

// FeedNextSample advances the internal cursor to the next sample in the
// SampleMap and loads its bytes into the working buffer. Short samples are
// reported as errs.IOFailure; callers decide whether that is fatal to the
// whole run or only to the current sample.
func (r *Reader) FeedNextSample() error {
	if r.Done() {
		return errs.New(errs.IOFailure, "feed_next_sample: no more samples")
	}

	s := r.sample.Samples[r.cursor]
	r.cursor++
	r.CurrentType = s.Type

	var data []byte

	if s.InlineData != nil {
		data = s.InlineData
	} else {
		data = make([]byte, s.Size)

		if _, err := r.src.Seek(int64(s.Offset), io.SeekStart); err != nil {
			return errs.Wrapf(err, "seeking to sample at offset %d", s.Offset)
		}

		if _, err := io.ReadFull(r.src, data); err != nil {
			return errs.Wrapf(err, "reading sample of size %d at offset %d", s.Size, s.Offset)
		}
	}

	r.load(data)

	return nil
}

func (r *Reader) load(data []byte) {
	r.size = len(data)
	r.buf = make([]byte, len(data)+padding)
	copy(r.buf, data)
	r.pos = 0
	r.bitIdx = 0
}

// CleanSample strips NAL emulation-prevention bytes (0x00 0x00 0x03 -> 0x00
// 0x00) from the currently loaded buffer in place, producing the RBSP the
// rest of the bit reader operates on.
func (r *Reader) CleanSample() {
	src := r.buf[:r.size]
	dst := make([]byte, 0, r.size)

	zeros := 0
	for _, b := range src {
		if zeros >= 2 && b == 0x03 {
			zeros = 0

			continue
		}

		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}

		dst = append(dst, b)
	}

	r.load(dst)
}

// ReadBits reads up to 32 bits MSB-first, right-aligned in the result.
func (r *Reader) ReadBits(n uint8) (uint32, error) {
	if n == 0 {
		return 0, nil
	}

	if n > 32 {
		return 0, errs.New(errs.MalformedBitstream, "read_bits: width exceeds 32")
	}

	var result uint32

	remaining := n
	for remaining > 0 {
		if r.pos >= len(r.buf) {
			return 0, errs.New(errs.IOFailure, "read_bits: past end of buffer")
		}

		avail := 8 - r.bitIdx
		take := uint32(remaining)
		if take > avail {
			take = avail
		}

		shift := avail - take
		mask := uint32(1)<<take - 1
		bits := (uint32(r.buf[r.pos]) >> shift) & mask

		result = (result << take) | bits

		r.bitIdx += uint32(take)
		if r.bitIdx == 8 {
			r.bitIdx = 0
			r.pos++
		}

		remaining -= uint8(take)
	}

	return result, nil
}

// ReadUE reads an Exp-Golomb unsigned integer (ue(v)).
func (r *Reader) ReadUE() (uint32, error) {
	leadingZeros := 0

	for {
		bit, err := r.ReadBits(1)
		if err != nil {
			return 0, err
		}

		if bit != 0 {
			break
		}

		leadingZeros++

		if leadingZeros > 31 {
			return 0, errs.New(errs.MalformedBitstream, "read_ue: exp-golomb overflow")
		}
	}

	if leadingZeros == 0 {
		return 0, nil
	}

	suffix, err := r.ReadBits(uint8(leadingZeros))
	if err != nil {
		return 0, err
	}

	return uint32(math.Pow(2, float64(leadingZeros))) - 1 + suffix, nil
}

// ReadSE reads an Exp-Golomb signed integer (se(v)), mapping the unsigned
// code per the H.264 spec's zig-zag rule.
func (r *Reader) ReadSE() (int32, error) {
	ue, err := r.ReadUE()
	if err != nil {
		return 0, err
	}

	if ue%2 == 0 {
		return -int32(ue / 2), nil
	}

	return int32(ue+1) / 2, nil
}

// MoreRBSPData reports whether there is more than the rbsp_stop_one_bit
// trailer left in the current buffer.
func (r *Reader) MoreRBSPData() bool {
	// Find the last non-zero byte; rbsp_trailing_bits is a single 1 bit
	// followed by zero padding to byte alignment.
	last := r.size - 1
	for last >= 0 && r.buf[last] == 0 {
		last--
	}

	if last < 0 {
		return false
	}

	trailingBitPos := 7
	for trailingBitPos >= 0 && (r.buf[last]>>uint(trailingBitPos))&1 == 0 {
		trailingBitPos--
	}

	curBit := r.pos*8 + int(r.bitIdx)
	lastBit := last*8 + trailingBitPos

	return curBit < lastBit
}

// ByteAlign advances the cursor to the next byte boundary.
func (r *Reader) ByteAlign() {
	if r.bitIdx != 0 {
		r.bitIdx = 0
		r.pos++
	}
}

// Bytes returns the raw (post-CleanSample, if called) current NAL payload.
func (r *Reader) Bytes() []byte {
	return r.buf[:r.size]
}
