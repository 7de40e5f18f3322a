// Package h264 implements the NAL-unit dispatch loop, parameter-set cache,
// and quantization table generation needed to route and decode IDR
// keyframes out of an H.264 bitstream.
//
// NAL type classification follows the same Annex-B/AVCC framing
// distinction as bugVanisher-streamer's h264parser package
// (media/codec/h264parser/parser.go).
package h264

// NAL unit types this package distinguishes; the dispatcher reports any
// other type as an UnsupportedFeature error, which counts against its error
// budget.
const (
	NALSliceNonIDR = 1
	NALSliceIDR    = 5
	NALSEI         = 6
	NALSPS         = 7
	NALPPS         = 8
)

// Header is a parsed NAL unit header byte: forbidden_zero_bit, nal_ref_idc,
// nal_unit_type.
type Header struct {
	RefIdc uint8
	Type   uint8
}

// ParseHeader decodes the first byte of a NAL unit.
func ParseHeader(b byte) Header {
	return Header{
		RefIdc: (b >> 5) & 0x03,
		Type:   b & 0x1F,
	}
}

// IsSlice reports whether t is a coded slice, IDR or not.
func IsSlice(t uint8) bool {
	return t == NALSliceNonIDR || t == NALSliceIDR
}
