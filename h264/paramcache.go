package h264

import "github.com/farcloser/framegrab/errs"

// MaxSPS and MaxPPS are the fixed parameter-set slot counts of spec
// section 6; ids are taken modulo neither wrapped nor rehashed, they are
// simply rejected once they'd exceed the id-addressable slot range.
const (
	MaxSPS = 32
	MaxPPS = 32
)

// ParameterSetCache holds every SPS/PPS seen so far in a fixed-capacity
// array addressed by id: no dynamic growth, so a malformed id referencing
// slot 32+ is a clean rejection instead of an out-of-bounds write.
type ParameterSetCache struct {
	sps [MaxSPS]*SPS
	pps [MaxPPS]*PPS
}

// NewParameterSetCache returns an empty cache.
func NewParameterSetCache() *ParameterSetCache {
	return &ParameterSetCache{}
}

// PutSPS stores sps at its own id slot.
func (c *ParameterSetCache) PutSPS(sps *SPS) error {
	if sps.ID >= MaxSPS {
		return errs.New(errs.ResourceExhaustion, "sps id exceeds MAX_SPS")
	}

	c.sps[sps.ID] = sps

	return nil
}

// PutPPS stores pps at its own id slot, after checking that the SPS it
// references already exists: a PPS referencing a missing SPS is flagged
// rather than cached.
func (c *ParameterSetCache) PutPPS(pps *PPS) error {
	if pps.ID >= MaxPPS {
		return errs.New(errs.ResourceExhaustion, "pps id exceeds MAX_PPS")
	}

	if pps.SPSID >= MaxSPS || c.sps[pps.SPSID] == nil {
		return errs.New(errs.ReferentialIntegrity, "pps references unknown sps")
	}

	c.pps[pps.ID] = pps

	return nil
}

// Resolve returns the SPS/PPS pair a slice with the given pps id refers
// to, or a ReferentialIntegrity error if either link is dangling.
func (c *ParameterSetCache) Resolve(ppsID uint32) (*SPS, *PPS, error) {
	if ppsID >= MaxPPS || c.pps[ppsID] == nil {
		return nil, nil, errs.New(errs.ReferentialIntegrity, "slice references unknown pps")
	}

	pps := c.pps[ppsID]

	if pps.SPSID >= MaxSPS || c.sps[pps.SPSID] == nil {
		return nil, nil, errs.New(errs.ReferentialIntegrity, "pps references unknown sps")
	}

	return c.sps[pps.SPSID], pps, nil
}
