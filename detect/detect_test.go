package detect

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func box(boxType string, payload []byte) []byte {
	var buf bytes.Buffer

	size := uint32(mp4BoxHeaderSize + len(payload))

	if err := binary.Write(&buf, binary.BigEndian, size); err != nil {
		panic(err)
	}

	buf.WriteString(boxType)
	buf.Write(payload)

	return buf.Bytes()
}

func sampleEntry(fourCC string) []byte {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, uint32(16)); err != nil {
		panic(err)
	}

	buf.WriteString(fourCC)
	buf.Write(make([]byte, 8))

	return buf.Bytes()
}

func stsd(fourCC string) []byte {
	payload := append([]byte{0, 0, 0, 0, 0, 0, 0, 1}, sampleEntry(fourCC)...)

	return box("stsd", payload)
}

func buildMinimalMP4(handlerType, sampleFourCC string) []byte {
	hdlr := box("hdlr", append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, []byte(handlerType)...))
	stbl := box("stbl", stsd(sampleFourCC))
	minf := box("minf", stbl)
	mdia := box("mdia", append(hdlr, minf...))
	trak := box("trak", mdia)
	moov := box("moov", trak)
	ftyp := box("ftyp", []byte("isom"))

	return append(ftyp, moov...)
}

func TestProbeDetectsAVCVideoTrack(t *testing.T) {
	data := buildMinimalMP4("vide", "avc1")

	res, err := Probe(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if !res.IsMP4 || !res.HasVideo || !res.IsAVC {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProbeRejectsNonVideoTrack(t *testing.T) {
	data := buildMinimalMP4("soun", "mp4a")

	res, err := Probe(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if !res.IsMP4 || res.HasVideo || res.IsAVC {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProbeRejectsNonMP4Input(t *testing.T) {
	res, err := Probe(bytes.NewReader([]byte("not an mp4 file at all!!")))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if res.IsMP4 {
		t.Fatalf("expected IsMP4 false, got %+v", res)
	}
}

func TestProbeNonAVCVideoTrack(t *testing.T) {
	data := buildMinimalMP4("vide", "hev1")

	res, err := Probe(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if !res.HasVideo || res.IsAVC {
		t.Fatalf("expected video but non-AVC, got %+v", res)
	}
}
