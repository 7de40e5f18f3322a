package filter

import (
	"testing"

	"github.com/farcloser/framegrab/mp4"
)

func idrSample(offset uint64, size uint32) mp4.Sample {
	return mp4.Sample{Offset: offset, Size: size, Type: mp4.SampleIDR}
}

// buildMap constructs a SampleMap with one SPS, one PPS, and idrCount IDR
// samples of the given uniform size, offsets numbered by index.
func buildMap(idrCount int, size uint32) *mp4.SampleMap {
	sizes := make([]uint32, idrCount)
	for i := range sizes {
		sizes[i] = size
	}

	return buildMapSizes(sizes)
}

// buildMapSizes is like buildMap but lets each IDR sample's size vary.
func buildMapSizes(sizes []uint32) *mp4.SampleMap {
	samples := []mp4.Sample{
		{Type: mp4.SampleSPS, InlineData: []byte{0x67}},
		{Type: mp4.SamplePPS, InlineData: []byte{0x68}},
	}

	for i, size := range sizes {
		samples = append(samples, idrSample(uint64(i*1000), size))
	}

	return &mp4.SampleMap{
		Samples:        samples,
		SampleCount:    len(samples),
		SampleCountIDR: len(sizes),
	}
}

func offsets(samples []mp4.Sample) []uint64 {
	var out []uint64

	for _, s := range samples {
		if s.Type == mp4.SampleIDR {
			out = append(out, s.Offset)
		}
	}

	return out
}

func TestApplyUnfilteredKeepsAllIDRUntouched(t *testing.T) {
	in := buildMap(10, 5000)

	out, err := Apply(in, Options{Mode: Unfiltered})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if out.SampleCountIDR != 10 {
		t.Fatalf("expected 10 IDR survivors, got %d", out.SampleCountIDR)
	}
}

func TestApplyUnfilteredAppliesNoSizeThreshold(t *testing.T) {
	// Even a degenerate-sized IDR set survives Unfiltered: the size
	// threshold only applies to Ordered/Distributed.
	in := buildMap(5, 1)

	out, err := Apply(in, Options{Mode: Unfiltered})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if out.SampleCountIDR != 5 {
		t.Fatalf("expected all 5 samples kept, got %d", out.SampleCountIDR)
	}
}

func TestApplyOrderedAppliesBorderCutAndKeepsFirstN(t *testing.T) {
	// 10 IDR samples, uniform size: border cut = ceil(0.03*10) = 1 off
	// each end, leaving offsets [1000..8000] (8 survivors). Ordered keeps
	// the first 3 of those.
	in := buildMap(10, 5000)

	out, err := Apply(in, Options{Mode: Ordered, Count: 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := offsets(out.Samples)
	want := []uint64{1000, 2000, 3000}

	if len(got) != len(want) {
		t.Fatalf("expected %d survivors, got %d (%v)", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("survivor %d: expected offset %d, got %d", i, want[i], got[i])
		}
	}
}

// TestApplyOrderedDropsSizeOneOutlier mirrors the size-threshold scenario:
// sample_count_idr=10 with sizes [100]*9 + [1]; average=90.1, threshold
// ~54.28. Requesting (5, Ordered) must drop the size-1 sample and select 5
// of the remaining survivors in order.
func TestApplyOrderedDropsSizeOneOutlier(t *testing.T) {
	sizes := make([]uint32, 10)
	for i := 0; i < 9; i++ {
		sizes[i] = 100
	}

	sizes[9] = 1

	in := buildMapSizes(sizes)

	out, err := Apply(in, Options{Mode: Ordered, Count: 5})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if out.SampleCountIDR != 5 {
		t.Fatalf("expected 5 survivors, got %d", out.SampleCountIDR)
	}

	for _, off := range offsets(out.Samples) {
		if off == 9000 {
			t.Fatalf("size-1 sample at offset 9000 should have been pruned")
		}
	}
}

// TestApplyDistributedBorderCutAndJump mirrors the border-cut/distributed
// scenario: sample_count_idr=100, request (10, Distributed). Border cut
// excludes the first and last 3 (ceil(3%)=3); jump = floor(94/9) = 10;
// the 10 survivors sit at original indices 3, 13, ..., 93.
func TestApplyDistributedBorderCutAndJump(t *testing.T) {
	in := buildMap(100, 5000)

	out, err := Apply(in, Options{Mode: Distributed, Count: 10})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []uint64{3000, 13000, 23000, 33000, 43000, 53000, 63000, 73000, 83000, 93000}
	got := offsets(out.Samples)

	if len(got) != len(want) {
		t.Fatalf("expected %d survivors, got %d (%v)", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("survivor %d: expected offset %d, got %d", i, want[i], got[i])
		}
	}
}

func TestApplyDistributedFallsBackToOrderedWhenSinglePicture(t *testing.T) {
	in := buildMap(10, 5000)

	out, err := Apply(in, Options{Mode: Distributed, Count: 1})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if out.SampleCountIDR != 1 {
		t.Fatalf("expected single survivor from fallback, got %d", out.SampleCountIDR)
	}
}

func TestApplyEmptyIDRSetYieldsZeroPictures(t *testing.T) {
	in := buildMap(0, 0)

	out, err := Apply(in, Options{Mode: Distributed, Count: 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if out.SampleCountIDR != 0 {
		t.Fatalf("expected 0 survivors, got %d", out.SampleCountIDR)
	}
}

func TestApplyPreservesParameterSets(t *testing.T) {
	in := buildMap(5, 5000)

	out, err := Apply(in, Options{Mode: Ordered, Count: 1})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sps, pps := 0, 0

	for _, s := range out.Samples {
		switch s.Type {
		case mp4.SampleSPS:
			sps++
		case mp4.SamplePPS:
			pps++
		}
	}

	if sps != 1 || pps != 1 {
		t.Fatalf("expected parameter sets preserved, got sps=%d pps=%d", sps, pps)
	}
}

func TestApplyNilSampleMapErrors(t *testing.T) {
	if _, err := Apply(nil, Options{}); err == nil {
		t.Fatal("expected error for nil sample map")
	}
}
