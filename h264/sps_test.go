package h264

import (
	"testing"

	"github.com/farcloser/framegrab/bitstream"
)

func TestParseSPSBaselineProfile(t *testing.T) {
	// profile_idc=66 (baseline), constraint byte, level_idc=10,
	// seq_parameter_set_id ue(0).
	r := bitstream.NewFromBytes([]byte{0x42, 0x00, 0x0A, 0x80})

	sps, err := ParseSPS(r)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}

	if sps.ProfileIdc != 66 || sps.LevelIdc != 10 || sps.ID != 0 {
		t.Fatalf("unexpected sps: %+v", sps)
	}

	if sps.ChromaFormatIdc != 1 || sps.Has8x8Scaling {
		t.Fatalf("expected default 4:2:0 chroma with no 8x8 scaling, got %+v", sps)
	}
}

func TestParsePPSReferencesSPS(t *testing.T) {
	// pic_parameter_set_id ue(0), seq_parameter_set_id ue(0).
	r := bitstream.NewFromBytes([]byte{0xC0})

	pps, err := ParsePPS(r)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}

	if pps.ID != 0 || pps.SPSID != 0 {
		t.Fatalf("unexpected pps: %+v", pps)
	}
}
