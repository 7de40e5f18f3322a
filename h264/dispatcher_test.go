package h264

import (
	"image"
	"testing"

	"github.com/farcloser/framegrab/bitstream"
	"github.com/farcloser/framegrab/mp4"
)

type fakeDecoder struct {
	calls int
}

func (f *fakeDecoder) DecodeIDR(nal []byte, sps *SPS, pps *PPS) (image.Image, error) {
	f.calls++

	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func syntheticSampleMap() *mp4.SampleMap {
	spsNAL := []byte{0x67, 0x42, 0x00, 0x0A, 0x80}
	ppsNAL := []byte{0x68, 0xC0}
	sliceAVCC := []byte{0x00, 0x00, 0x00, 0x02, 0x65, 0xE0}

	samples := []mp4.Sample{
		{Type: mp4.SampleSPS, InlineData: spsNAL},
		{Type: mp4.SamplePPS, InlineData: ppsNAL},
		{Type: mp4.SampleIDR, InlineData: sliceAVCC},
	}

	return &mp4.SampleMap{Samples: samples, SampleCount: len(samples), SampleCountIDR: 1}
}

func TestDispatcherDecodesOneIDRPicture(t *testing.T) {
	reader := bitstream.New(nil, syntheticSampleMap())
	decoder := &fakeDecoder{}
	d := NewDispatcher(NewParameterSetCache(), decoder)

	pictures, stats, err := d.Run(reader, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pictures) != 1 {
		t.Fatalf("expected 1 decoded picture, got %d", len(pictures))
	}

	if stats.IDRCounter != 1 || decoder.calls != 1 {
		t.Fatalf("unexpected stats/calls: %+v calls=%d", stats, decoder.calls)
	}
}

func TestDispatcherRejectsDanglingPPSReference(t *testing.T) {
	spsNAL := []byte{0x67, 0x42, 0x00, 0x0A, 0x80}
	// pps references sps id 5, which never arrives: pic_parameter_set_id
	// ue(0)='1', seq_parameter_set_id ue(5)='00110', packed as 0x98.
	ppsNAL := []byte{0x68, 0x98}
	sliceAVCC := []byte{0x00, 0x00, 0x00, 0x02, 0x65, 0xE0}

	samples := []mp4.Sample{
		{Type: mp4.SampleSPS, InlineData: spsNAL},
		{Type: mp4.SamplePPS, InlineData: ppsNAL},
		{Type: mp4.SampleIDR, InlineData: sliceAVCC},
	}

	sampleMap := &mp4.SampleMap{Samples: samples, SampleCount: len(samples), SampleCountIDR: 1}
	reader := bitstream.New(nil, sampleMap)
	decoder := &fakeDecoder{}
	d := NewDispatcher(NewParameterSetCache(), decoder)

	pictures, stats, err := d.Run(reader, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pictures) != 0 {
		t.Fatalf("expected no decoded pictures, got %d", len(pictures))
	}

	if stats.ErrorCounter == 0 {
		t.Fatalf("expected error budget to record the dangling pps reference")
	}
}
