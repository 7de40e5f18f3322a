package h264

import (
	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/mp4"
)

// SplitAVCC splits one AVCC-framed sample (a run of length-prefixed NAL
// units, as produced by the avcC LengthSizeMinusOne field) into individual
// NAL unit byte slices.
func SplitAVCC(data []byte, lengthSize int) ([][]byte, error) {
	var nalus [][]byte

	pos := 0
	for pos < len(data) {
		if pos+lengthSize > len(data) {
			return nil, errs.New(errs.MalformedBitstream, "split_avcc: truncated length prefix")
		}

		n, err := mp4.NALLength(data[pos:pos+lengthSize], lengthSize)
		if err != nil {
			return nil, err
		}

		pos += lengthSize

		if pos+n > len(data) {
			return nil, errs.New(errs.MalformedBitstream, "split_avcc: nal length exceeds sample bounds")
		}

		nalus = append(nalus, data[pos:pos+n])
		pos += n
	}

	return nalus, nil
}
