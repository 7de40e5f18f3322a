package h264

import (
	"image"

	"github.com/farcloser/framegrab/bitstream"
	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/mp4"
)

// errorBudget is the dispatcher's error-budget threshold: once more than
// this many non-fatal errors accumulate across a run, the dispatcher
// aborts instead of limping along on a clearly broken bitstream.
const errorBudget = 64

// SliceDecoder is the external collaborator that turns one IDR slice NAL
// plus its resolved SPS/PPS into a decoded image. The dispatcher never
// decodes macroblocks itself.
type SliceDecoder interface {
	DecodeIDR(nal []byte, sps *SPS, pps *PPS) (image.Image, error)
}

// Decoded is one successfully decoded IDR picture, in dispatch order.
type Decoded struct {
	Index int
	PTS   int64
	Image image.Image
}

// Stats tallies the counters needed to reason about a run after the fact.
type Stats struct {
	FrameCounter int
	IDRCounter   int
	ErrorCounter int
}

// Dispatcher runs the main NAL loop: it feeds samples out of a
// bitstream.Reader, classifies each NAL unit, maintains a
// ParameterSetCache, and forwards IDR slices to a SliceDecoder.
type Dispatcher struct {
	cache   *ParameterSetCache
	decoder SliceDecoder
}

// NewDispatcher returns a Dispatcher that resolves parameter sets against
// cache and decodes IDR slices with decoder.
func NewDispatcher(cache *ParameterSetCache, decoder SliceDecoder) *Dispatcher {
	return &Dispatcher{cache: cache, decoder: decoder}
}

// Run drains r, dispatching every NAL unit it yields. It stops early, with
// a fatal error, once the error budget is exhausted or a Fatal-kind error
// occurs; a clean EOF ends the run successfully regardless of how many
// pictures were produced — the exit status is the caller's call once
// Stats come back.
func (d *Dispatcher) Run(r *bitstream.Reader, lengthSize int) ([]Decoded, Stats, error) {
	var (
		pictures []Decoded
		stats    Stats
	)

	for !r.Done() {
		if err := r.FeedNextSample(); err != nil {
			return pictures, stats, err
		}

		sampleType := r.CurrentType
		r.CleanSample()

		nalus, err := splitSample(r.Bytes(), sampleType, lengthSize)
		if err != nil {
			if bumpBudget(&stats, err) {
				return pictures, stats, err
			}

			continue
		}

		for _, nal := range nalus {
			pic, err := d.dispatchOne(nal, &stats)
			if err != nil {
				if bumpBudget(&stats, err) {
					return pictures, stats, err
				}

				continue
			}

			if pic != nil {
				pictures = append(pictures, *pic)
			}
		}
	}

	return pictures, stats, nil
}

// splitSample returns the NAL units carried by one sample. Parameter-set
// pseudo-samples (avcC-derived SPS/PPS entries) are already a single bare
// NAL; ordinary video samples are AVCC length-prefixed and may carry more
// than one NAL unit.
func splitSample(data []byte, sampleType mp4.SampleType, lengthSize int) ([][]byte, error) {
	switch sampleType {
	case mp4.SampleSPS, mp4.SamplePPS:
		return [][]byte{data}, nil
	default:
		return SplitAVCC(data, lengthSize)
	}
}

func (d *Dispatcher) dispatchOne(nal []byte, stats *Stats) (*Decoded, error) {
	if len(nal) == 0 {
		return nil, errs.New(errs.MalformedBitstream, "empty nal unit")
	}

	hdr := ParseHeader(nal[0])

	switch hdr.Type {
	case NALSPS:
		sps, err := parseSPSFromBytes(nal[1:])
		if err != nil {
			return nil, err
		}

		return nil, d.cache.PutSPS(sps)

	case NALPPS:
		pps, err := parsePPSFromBytes(nal[1:])
		if err != nil {
			return nil, err
		}

		return nil, d.cache.PutPPS(pps)

	case NALSliceIDR:
		ppsID, err := firstPPSID(nal[1:])
		if err != nil {
			return nil, err
		}

		sps, pps, err := d.cache.Resolve(ppsID)
		if err != nil {
			return nil, err
		}

		img, err := d.decoder.DecodeIDR(nal, sps, pps)
		if err != nil {
			return nil, errs.Wrapf(err, "decoding idr slice")
		}

		stats.FrameCounter++
		stats.IDRCounter++
		stats.ErrorCounter = 0

		return &Decoded{Index: stats.IDRCounter - 1, Image: img}, nil

	case NALSliceNonIDR:
		stats.FrameCounter++

		return nil, nil

	case NALSEI:
		return nil, nil

	default:
		return nil, errs.New(errs.UnsupportedFeature, "unrecognized nal unit type")
	}
}

func parseSPSFromBytes(data []byte) (*SPS, error) {
	return ParseSPS(bitstream.NewFromBytes(data))
}

func parsePPSFromBytes(data []byte) (*PPS, error) {
	return ParsePPS(bitstream.NewFromBytes(data))
}

// firstPPSID reads just the first field of a slice header,
// first_mb_in_slice is skipped as ue(v) to reach slice_type, which is also
// skipped, to reach pic_parameter_set_id: the only field the dispatcher
// needs to resolve which SPS/PPS pair decodes this slice.
func firstPPSID(sliceData []byte) (uint32, error) {
	r := bitstream.NewFromBytes(sliceData)

	if _, err := r.ReadUE(); err != nil { // first_mb_in_slice
		return 0, err
	}

	if _, err := r.ReadUE(); err != nil { // slice_type
		return 0, err
	}

	return r.ReadUE() // pic_parameter_set_id
}

// bumpBudget increments the dispatcher's error counter and reports whether
// the run must abort now: a Fatal-kind error always aborts, while any
// other kind only aborts once the error budget is exceeded.
func bumpBudget(stats *Stats, err error) bool {
	kind := errs.Code(err)

	if errs.Fatal(kind) {
		return true
	}

	stats.ErrorCounter++

	return stats.ErrorCounter > errorBudget
}
