package h264

import "github.com/farcloser/framegrab/bitstream"

// PPS holds the subset of picture-parameter-set fields the parameter-set
// cache needs to validate referential integrity against the SPS it names.
type PPS struct {
	ID    uint32
	SPSID uint32
}

// ParsePPS reads a picture parameter set RBSP. r must already be
// positioned just past the NAL header byte, with emulation-prevention
// bytes stripped.
func ParsePPS(r *bitstream.Reader) (*PPS, error) {
	id, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	spsID, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	return &PPS{ID: id, SPSID: spsID}, nil
}
