package mp4

import "github.com/farcloser/framegrab/errs"

// SampleType classifies one Sample: video samples are either a parameter
// set, an IDR picture, a non-IDR slice, or something the dispatcher
// doesn't otherwise classify.
type SampleType uint8

const (
	SampleOther SampleType = iota
	SampleSPS
	SamplePPS
	SampleIDR
	SampleNonIDR
)

func (t SampleType) String() string {
	switch t {
	case SampleSPS:
		return "sps"
	case SamplePPS:
		return "pps"
	case SampleIDR:
		return "idr"
	case SampleNonIDR:
		return "non-idr"
	default:
		return "other"
	}
}

// Sample is a contiguous byte region within the input file, or an inline
// byte blob for the pseudo-samples the avcC box contributes.
type Sample struct {
	Offset     uint64
	Size       uint32
	InlineData []byte

	Type SampleType
	PTS  int64
	DTS  int64
}

// SampleMap is the per-track ordered sequence of Samples in decode order,
// plus aggregate counts for quick validation.
type SampleMap struct {
	Samples         []Sample
	SampleCount     int
	SampleCountIDR  int
	SampleAlignment int
	StreamType      string
	StreamCodec     string
}

// Validate enforces the SampleMap invariants: the IDR count never
// exceeds the total count, and it actually matches the number of samples
// tagged IDR.
func (m *SampleMap) Validate() error {
	if m.SampleCountIDR > m.SampleCount {
		return errs.New(errs.MalformedContainer, "sample_count_idr exceeds sample_count")
	}

	idr := 0

	for _, s := range m.Samples {
		if s.Type == SampleIDR {
			idr++
		}
	}

	if idr != m.SampleCountIDR {
		return errs.New(errs.MalformedContainer, "sample_count_idr does not match tagged IDR samples")
	}

	if len(m.Samples) != m.SampleCount {
		return errs.New(errs.MalformedContainer, "sample_count does not match sample slice length")
	}

	return nil
}

// IDRIndices returns the indices of every IDR sample, in decode order.
func (m *SampleMap) IDRIndices() []int {
	indices := make([]int, 0, m.SampleCountIDR)

	for i, s := range m.Samples {
		if s.Type == SampleIDR {
			indices = append(indices, i)
		}
	}

	return indices
}
