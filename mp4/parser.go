// Package mp4 implements a recursive-descent ISO-BMFF box parser and
// sample-map materialization, built on top of github.com/abema/go-mp4 for
// the fiddly sample-table box payloads.
package mp4

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp4 "github.com/abema/go-mp4"

	"github.com/farcloser/framegrab/errs"
)

var (
	errUnsupportedNoAVCTrack = errs.New(errs.UnsupportedFeature, "no AVC video track found in container")
	errMissingMoov           = errs.New(errs.MalformedContainer, "moov box is mandatory")
	errFtypAfterMoov         = errs.New(errs.MalformedContainer, "ftyp must occur before moov")
)

// Parse walks the box tree of r and returns every track with a fully
// materialized SampleMap. It is the entry point for component C.
func Parse(r io.ReadSeeker) (*Mp4, error) {
	if err := checkTopLevelOrdering(r); err != nil {
		return nil, err
	}

	trakBoxes, err := gomp4.ExtractBox(r, nil, gomp4.BoxPath{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak()})
	if err != nil {
		return nil, errs.Wrapf(err, "reading moov/trak structure")
	}

	tracks := make([]*Track, 0, len(trakBoxes))

	for _, trak := range trakBoxes {
		t, err := parseTrack(r, trak)
		if err != nil {
			// A single malformed track aborts that track's parse only;
			// the top-level parser keeps going.
			continue
		}

		tracks = append(tracks, t)
	}

	if len(tracks) == 0 {
		return nil, errMissingMoov
	}

	return &Mp4{Tracks: tracks}, nil
}

// checkTopLevelOrdering enforces the top-level traversal rule: ftyp must
// occur before moov, and moov is mandatory.
func checkTopLevelOrdering(r io.ReadSeeker) error {
	boxes, err := walkTopLevel(r)
	if err != nil {
		return err
	}

	ftypIdx, moovIdx := -1, -1

	for i, b := range boxes {
		switch b.Type {
		case "ftyp":
			if ftypIdx == -1 {
				ftypIdx = i
			}
		case "moov":
			if moovIdx == -1 {
				moovIdx = i
			}
		}
	}

	if moovIdx == -1 {
		return errMissingMoov
	}

	if ftypIdx != -1 && ftypIdx > moovIdx {
		return errFtypAfterMoov
	}

	return nil
}

// parseTrack materializes one Track: its metadata (tkhd/mdhd/hdlr) and its
// SampleMap (stbl).
func parseTrack(r io.ReadSeeker, trak *gomp4.BoxInfo) (*Track, error) {
	hdlrBoxes, err := gomp4.ExtractBoxWithPayload(r, trak,
		gomp4.BoxPath{gomp4.BoxTypeMdia(), gomp4.BoxTypeHdlr()})
	if err != nil || len(hdlrBoxes) == 0 {
		return nil, errs.New(errs.MalformedContainer, "track missing mandatory hdlr box")
	}

	hdlr, ok := hdlrBoxes[0].Payload.(*gomp4.Hdlr)
	if !ok {
		return nil, errs.New(errs.MalformedContainer, "invalid hdlr payload")
	}

	mdhdBoxes, err := gomp4.ExtractBoxWithPayload(r, trak,
		gomp4.BoxPath{gomp4.BoxTypeMdia(), gomp4.BoxTypeMdhd()})
	if err != nil || len(mdhdBoxes) == 0 {
		return nil, errs.New(errs.MalformedContainer, "track missing mandatory mdhd box")
	}

	mdhd, ok := mdhdBoxes[0].Payload.(*gomp4.Mdhd)
	if !ok {
		return nil, errs.New(errs.MalformedContainer, "invalid mdhd payload")
	}

	stblBoxes, err := gomp4.ExtractBox(r, trak,
		gomp4.BoxPath{gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl()})
	if err != nil || len(stblBoxes) == 0 {
		return nil, errs.New(errs.MalformedContainer, "track missing mandatory stbl box")
	}

	stbl := stblBoxes[0]

	codecID, err := sampleEntryFourCC(r, stbl)
	if err != nil {
		return nil, err
	}

	track := &Track{
		HandlerType: handlerTypeString(hdlr),
		CodecID:     codecID,
		Timescale:   mdhd.Timescale,
		Duration:    mdhdDuration(mdhd),
	}

	streamType := "audio"
	if track.HandlerType == "vide" {
		streamType = "video"
	}

	samples, err := buildSampleMap(r, stbl, streamType, codecID)
	if err != nil {
		return nil, errs.Wrapf(err, "building sample map")
	}

	if track.IsVideo() && track.IsAVC() {
		prepended, lengthSize, err := prependParameterSets(r, stbl, samples)
		if err != nil {
			return nil, errs.Wrapf(err, "extracting avcC parameter sets")
		}

		samples = prepended
		track.NALLengthSize = lengthSize
	}

	if err := samples.Validate(); err != nil {
		return nil, err
	}

	track.Samples = samples

	return track, nil
}

func handlerTypeString(h *gomp4.Hdlr) string {
	return string(h.HandlerType[:])
}

// mdhdDuration returns the track duration in mdhd's own timescale units.
// Version-1 (64-bit) mdhd boxes are rare in practice; this demuxer only
// needs the duration for reporting, not for any decode-path decision.
func mdhdDuration(m *gomp4.Mdhd) uint64 {
	return uint64(m.DurationV0)
}

// sampleEntryFourCC reads the stsd box and returns the FourCC of its first
// sample entry (e.g. "avc1", "mp4a").
func sampleEntryFourCC(r io.ReadSeeker, stbl *gomp4.BoxInfo) (string, error) {
	stsdBoxes, err := gomp4.ExtractBox(r, stbl, gomp4.BoxPath{gomp4.BoxTypeStsd()})
	if err != nil || len(stsdBoxes) == 0 {
		return "", errs.New(errs.MalformedContainer, "track missing mandatory stsd box")
	}

	stsd := stsdBoxes[0]

	const stsdHeader = 8 // version(1) + flags(3) + entry_count(4)

	if _, err := r.Seek(stsd.Offset+int64(stsd.HeaderSize)+stsdHeader, io.SeekStart); err != nil {
		return "", errs.Wrapf(err, "seeking to first sample entry")
	}

	var entry [8]byte
	if _, err := io.ReadFull(r, entry[:]); err != nil {
		return "", errs.New(errs.MalformedContainer, "reading sample entry header")
	}

	return string(entry[4:8]), nil
}

// buildSampleMap constructs a flat, timed sample table from the stco/co64,
// stsc, stsz, stts, ctts, and stss boxes within stbl.
func buildSampleMap(r io.ReadSeeker, stbl *gomp4.BoxInfo, streamType, codecID string) (*SampleMap, error) {
	chunkOffsets, err := readChunkOffsets(r, stbl)
	if err != nil {
		return nil, err
	}

	stscEntries, err := readStsc(r, stbl)
	if err != nil {
		return nil, err
	}

	entrySizes, constantSize, sampleCount, err := readStsz(r, stbl)
	if err != nil {
		return nil, err
	}

	syncSamples, hasStss, err := readStss(r, stbl)
	if err != nil {
		return nil, err
	}

	durations := readStts(r, stbl, int(sampleCount))
	ctsOffsets := readCtts(r, stbl, int(sampleCount))

	samples := make([]Sample, 0, sampleCount)
	sampleIdx := 0

	var dts int64

	for chunkIdx := range chunkOffsets {
		spc := lookupSamplesPerChunk(stscEntries, uint32(chunkIdx+1)) //nolint:gosec // bounded by chunk count
		offset := chunkOffsets[chunkIdx]

		for s := uint32(0); s < spc && sampleIdx < int(sampleCount); s++ {
			size := constantSize
			if constantSize == 0 {
				size = entrySizes[sampleIdx]
			}

			sampleType := SampleNonIDR
			if !hasStss || syncSamples[uint32(sampleIdx+1)] { //nolint:gosec // bounded by sampleCount
				sampleType = SampleIDR
			}

			samples = append(samples, Sample{
				Offset: offset,
				Size:   size,
				Type:   sampleType,
				DTS:    dts,
				PTS:    dts + int64(ctsOffsets[sampleIdx]),
			})

			offset += uint64(size)
			dts += int64(durations[sampleIdx])
			sampleIdx++
		}
	}

	idrCount := 0

	for _, s := range samples {
		if s.Type == SampleIDR {
			idrCount++
		}
	}

	return &SampleMap{
		Samples:         samples,
		SampleCount:     len(samples),
		SampleCountIDR:  idrCount,
		SampleAlignment: 1,
		StreamType:      streamType,
		StreamCodec:     codecID,
	}, nil
}

func readChunkOffsets(r io.ReadSeeker, stbl *gomp4.BoxInfo) ([]uint64, error) {
	if boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeStco()}); err == nil && len(boxes) > 0 {
		if stco, ok := boxes[0].Payload.(*gomp4.Stco); ok {
			offsets := make([]uint64, len(stco.ChunkOffset))
			for i, off := range stco.ChunkOffset {
				offsets[i] = uint64(off)
			}

			return offsets, nil
		}
	}

	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeCo64()})
	if err != nil || len(boxes) == 0 {
		return nil, errs.New(errs.MalformedContainer, "missing stco/co64 chunk offset box")
	}

	co64, ok := boxes[0].Payload.(*gomp4.Co64)
	if !ok {
		return nil, errs.New(errs.MalformedContainer, "invalid co64 payload")
	}

	return co64.ChunkOffset, nil
}

func readStsc(r io.ReadSeeker, stbl *gomp4.BoxInfo) ([]gomp4.StscEntry, error) {
	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeStsc()})
	if err != nil || len(boxes) == 0 {
		return nil, errs.New(errs.MalformedContainer, "missing mandatory stsc box")
	}

	stsc, ok := boxes[0].Payload.(*gomp4.Stsc)
	if !ok {
		return nil, errs.New(errs.MalformedContainer, "invalid stsc payload")
	}

	return stsc.Entries, nil
}

func readStsz(r io.ReadSeeker, stbl *gomp4.BoxInfo) ([]uint32, uint32, uint32, error) {
	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeStsz()})
	if err != nil || len(boxes) == 0 {
		return nil, 0, 0, errs.New(errs.MalformedContainer, "missing mandatory stsz box")
	}

	stsz, ok := boxes[0].Payload.(*gomp4.Stsz)
	if !ok {
		return nil, 0, 0, errs.New(errs.MalformedContainer, "invalid stsz payload")
	}

	return stsz.EntrySize, stsz.SampleSize, stsz.SampleCount, nil
}

// readStss returns the 1-based sync-sample set. Its absence means every
// sample is a sync point.
func readStss(r io.ReadSeeker, stbl *gomp4.BoxInfo) (map[uint32]bool, bool, error) {
	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeStss()})
	if err != nil || len(boxes) == 0 {
		return nil, false, nil
	}

	stss, ok := boxes[0].Payload.(*gomp4.Stss)
	if !ok {
		return nil, false, errs.New(errs.MalformedContainer, "invalid stss payload")
	}

	set := make(map[uint32]bool, len(stss.SampleNumber))
	for _, n := range stss.SampleNumber {
		set[n] = true
	}

	return set, true, nil
}

// readStts expands the stts run-length decode-delta table into one entry
// per sample.
func readStts(r io.ReadSeeker, stbl *gomp4.BoxInfo, sampleCount int) []uint32 {
	durations := make([]uint32, sampleCount)

	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeStts()})
	if err != nil || len(boxes) == 0 {
		return durations
	}

	stts, ok := boxes[0].Payload.(*gomp4.Stts)
	if !ok {
		return durations
	}

	i := 0

	for _, e := range stts.Entries {
		for c := uint32(0); c < e.SampleCount && i < sampleCount; c++ {
			durations[i] = e.SampleDelta
			i++
		}
	}

	return durations
}

// readCtts expands the optional ctts table (pts = dts + offset) into one
// entry per sample; absent ctts means pts == dts for every sample.
func readCtts(r io.ReadSeeker, stbl *gomp4.BoxInfo, sampleCount int) []int32 {
	offsets := make([]int32, sampleCount)

	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl, gomp4.BoxPath{gomp4.BoxTypeCtts()})
	if err != nil || len(boxes) == 0 {
		return offsets
	}

	ctts, ok := boxes[0].Payload.(*gomp4.Ctts)
	if !ok {
		return offsets
	}

	i := 0

	for _, e := range ctts.Entries {
		for c := uint32(0); c < e.SampleCount && i < sampleCount; c++ {
			offsets[i] = e.SampleOffsetV1
			i++
		}
	}

	return offsets
}

func lookupSamplesPerChunk(entries []gomp4.StscEntry, chunkNumber uint32) uint32 {
	var spc uint32

	for _, e := range entries {
		if e.FirstChunk > chunkNumber {
			break
		}

		spc = e.SamplesPerChunk
	}

	return spc
}

// prependParameterSets extracts the in-band SPS/PPS blobs from the avcC box
// and prepends them to samples as pseudo-samples, decoded before any slice.
func prependParameterSets(r io.ReadSeeker, stbl *gomp4.BoxInfo, samples *SampleMap) (*SampleMap, int, error) {
	boxes, err := gomp4.ExtractBoxWithPayload(r, stbl,
		gomp4.BoxPath{gomp4.BoxTypeStsd(), gomp4.BoxTypeAvc1(), gomp4.BoxTypeAvcC()})
	if err != nil || len(boxes) == 0 {
		return nil, 0, errs.New(errs.MalformedContainer, "avc1 sample entry missing avcC box")
	}

	avcC, ok := boxes[0].Payload.(*gomp4.AVCDecoderConfiguration)
	if !ok {
		return nil, 0, errs.New(errs.MalformedContainer, "invalid avcC payload")
	}

	lengthSize := int(avcC.LengthSizeMinusOne) + 1

	var pseudo []Sample

	for _, sps := range avcC.SequenceParameterSets {
		pseudo = append(pseudo, Sample{Type: SampleSPS, InlineData: append([]byte(nil), sps.NALUnit...)})
	}

	for _, pps := range avcC.PictureParameterSets {
		pseudo = append(pseudo, Sample{Type: SamplePPS, InlineData: append([]byte(nil), pps.NALUnit...)})
	}

	if len(pseudo) == 0 {
		return nil, 0, errs.New(errs.MalformedContainer, "avcC carries no SPS/PPS")
	}

	merged := &SampleMap{
		Samples:         append(pseudo, samples.Samples...),
		SampleCount:     len(pseudo) + samples.SampleCount,
		SampleCountIDR:  samples.SampleCountIDR,
		SampleAlignment: samples.SampleAlignment,
		StreamType:      samples.StreamType,
		StreamCodec:     samples.StreamCodec,
	}

	return merged, lengthSize, nil
}

// NALLength reads a length-prefixed NAL size per avcC.LengthSizeMinusOne,
// used by callers that receive AVCC-framed (rather than Annex-B) samples.
func NALLength(data []byte, lengthSize int) (int, error) {
	switch lengthSize {
	case 1:
		if len(data) < 1 {
			return 0, errs.New(errs.IOFailure, "short nal length prefix")
		}

		return int(data[0]), nil
	case 2:
		if len(data) < 2 {
			return 0, errs.New(errs.IOFailure, "short nal length prefix")
		}

		return int(binary.BigEndian.Uint16(data)), nil
	case 4:
		if len(data) < 4 {
			return 0, errs.New(errs.IOFailure, "short nal length prefix")
		}

		return int(binary.BigEndian.Uint32(data)), nil
	default:
		return 0, errs.New(errs.MalformedContainer, fmt.Sprintf("unsupported nal length size %d", lengthSize))
	}
}
