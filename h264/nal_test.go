package h264

import "testing"

func TestParseHeaderExtractsTypeAndRefIdc(t *testing.T) {
	h := ParseHeader(0x65) // nal_ref_idc=3, type=5 (IDR slice)

	if h.Type != NALSliceIDR || h.RefIdc != 3 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestIsSlice(t *testing.T) {
	if !IsSlice(NALSliceIDR) || !IsSlice(NALSliceNonIDR) {
		t.Fatal("expected slice types to report true")
	}

	if IsSlice(NALSPS) || IsSlice(NALSEI) {
		t.Fatal("expected non-slice types to report false")
	}
}
