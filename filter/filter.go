// Package filter implements IDR keyframe selection: given a track's
// materialized SampleMap, decide which IDR samples are worth decoding and
// exporting, under one of three modes.
//
// The survivor-selection logic leans on samber/lo for slice
// filtering/mapping in place of hand-rolled index loops.
package filter

import (
	"math"

	"github.com/samber/lo"

	"github.com/farcloser/framegrab/errs"
	"github.com/farcloser/framegrab/mp4"
)

// Mode selects how IDR survivors are picked out of a track's full IDR set.
type Mode uint8

const (
	// Unfiltered returns every IDR sample untouched: no size threshold, no
	// border cut.
	Unfiltered Mode = iota
	// Ordered keeps the first Count survivors, after threshold/border
	// pruning, in decode order.
	Ordered
	// Distributed spreads Count survivors evenly across the pruned IDR
	// set.
	Distributed
)

// sizeThresholdDivisor turns the IDR set's average payload size into a
// minimum-size cutoff: samples at or below average/1.66 are treated as
// degenerate (black frames, logo bumpers, corrupt pictures) rather than
// usable thumbnail candidates.
const sizeThresholdDivisor = 1.66

// borderCutFraction is the fraction of the IDR set trimmed off each end
// before threshold pruning and selection, so the first and last keyframes
// of a clip aren't favored just for being at the ends.
const borderCutFraction = 0.03

// Options configures Apply.
type Options struct {
	Mode Mode
	// Count is the number of samples Ordered/Distributed aim to keep.
	// Ignored by Unfiltered.
	Count int
}

// Apply returns a new SampleMap containing only the samples Options
// selects: every pseudo-sample (SPS/PPS) is kept unchanged, and the IDR
// samples are reduced to the survivors the chosen mode picks. The caller
// must reassign its SampleMap handle to the result; Apply never mutates
// its input.
func Apply(samples *mp4.SampleMap, opts Options) (*mp4.SampleMap, error) {
	if samples == nil {
		return nil, errs.New(errs.ResourceExhaustion, "filter: nil sample map")
	}

	paramSets, idr := splitParameterSetsAndIDR(samples)

	if len(idr) == 0 {
		return buildSampleMap(samples, paramSets, nil), nil
	}

	count := opts.Count
	if count > len(idr) {
		count = len(idr)
	}

	var survivors []mp4.Sample

	switch opts.Mode {
	case Unfiltered:
		survivors = idr

	case Ordered:
		pruned := pruneIDR(idr)
		survivors = selectOrdered(pruned, clampCount(count, len(pruned)))

	case Distributed:
		pruned := pruneIDR(idr)
		n := clampCount(count, len(pruned))

		// A survivor set of one has no meaningful distribution to
		// compute; fall back to Ordered.
		if n <= 1 {
			survivors = selectOrdered(pruned, n)
		} else {
			survivors = selectDistributed(pruned, n)
		}

	default:
		return nil, errs.New(errs.UnsupportedFeature, "filter: unknown mode")
	}

	return buildSampleMap(samples, paramSets, survivors), nil
}

func clampCount(count, n int) int {
	if count > n {
		return n
	}

	return count
}

// pruneIDR discards the border fraction off each end of idr, then any
// remaining sample whose size falls at or below the average-derived
// threshold.
func pruneIDR(idr []mp4.Sample) []mp4.Sample {
	cut := int(math.Ceil(borderCutFraction * float64(len(idr))))

	trimmed := idr
	if cut*2 < len(idr) {
		trimmed = idr[cut : len(idr)-cut]
	} else {
		trimmed = nil
	}

	threshold := sizeThreshold(idr)

	return lo.Filter(trimmed, func(s mp4.Sample, _ int) bool {
		return float64(s.Size) > threshold
	})
}

// sizeThreshold computes average_idr_payload/1.66 over the full,
// untrimmed IDR set.
func sizeThreshold(idr []mp4.Sample) float64 {
	var total uint64
	for _, s := range idr {
		total += uint64(s.Size)
	}

	average := float64(total) / float64(len(idr))

	return average / sizeThresholdDivisor
}

func buildSampleMap(original *mp4.SampleMap, paramSets, survivors []mp4.Sample) *mp4.SampleMap {
	merged := append(append([]mp4.Sample{}, paramSets...), survivors...)

	idrCount := 0

	for _, s := range merged {
		if s.Type == mp4.SampleIDR {
			idrCount++
		}
	}

	return &mp4.SampleMap{
		Samples:         merged,
		SampleCount:     len(merged),
		SampleCountIDR:  idrCount,
		SampleAlignment: original.SampleAlignment,
		StreamType:      original.StreamType,
		StreamCodec:     original.StreamCodec,
	}
}

func splitParameterSetsAndIDR(samples *mp4.SampleMap) (paramSets, idr []mp4.Sample) {
	for _, s := range samples.Samples {
		switch s.Type {
		case mp4.SampleSPS, mp4.SamplePPS:
			paramSets = append(paramSets, s)
		case mp4.SampleIDR:
			idr = append(idr, s)
		}
	}

	return paramSets, idr
}

// selectOrdered keeps the first count IDR samples in decode order, or all
// of them if there are fewer than count.
func selectOrdered(idr []mp4.Sample, count int) []mp4.Sample {
	if count <= 0 || count >= len(idr) {
		return idr
	}

	return idr[:count]
}

// selectDistributed picks count samples at indices i*floor(n/(count-1))
// for i in [0, count), clamping the last index to n-1.
func selectDistributed(idr []mp4.Sample, count int) []mp4.Sample {
	n := len(idr)
	jump := n / (count - 1)

	survivors := make([]mp4.Sample, 0, count)

	for i := 0; i < count; i++ {
		idx := i * jump
		if idx >= n {
			idx = n - 1
		}

		survivors = append(survivors, idr[idx])
	}

	return lo.UniqBy(survivors, func(s mp4.Sample) uint64 { return s.Offset })
}
