package h264

import "github.com/farcloser/framegrab/bitstream"

// SPS holds the subset of sequence-parameter-set fields the dispatcher and
// quantization table builder need; full slice-level fields are out of
// scope (decoding itself is delegated to an external collaborator).
type SPS struct {
	ID              uint32
	ProfileIdc      uint8
	LevelIdc        uint8
	ChromaFormatIdc uint32
	Has8x8Scaling   bool
}

// ParseSPS reads a sequence parameter set RBSP. r must already be
// positioned just past the NAL header byte, with emulation-prevention
// bytes stripped (bitstream.Reader.CleanSample).
func ParseSPS(r *bitstream.Reader) (*SPS, error) {
	sps := &SPS{ChromaFormatIdc: 1}

	profile, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}

	sps.ProfileIdc = uint8(profile)

	// constraint_set0_flag..constraint_set5_flag + reserved_zero_2bits
	if _, err := r.ReadBits(8); err != nil {
		return nil, err
	}

	level, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}

	sps.LevelIdc = uint8(level)

	id, err := r.ReadUE()
	if err != nil {
		return nil, err
	}

	sps.ID = id

	// High profiles (100, 110, 122, 244) and a handful of others carry
	// chroma_format_idc and the 8x8 scaling list flags; everything else
	// implies 4:2:0 with no 8x8 lists.
	switch sps.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		chroma, err := r.ReadUE()
		if err != nil {
			return nil, err
		}

		sps.ChromaFormatIdc = chroma

		if chroma == 3 {
			if _, err := r.ReadBits(1); err != nil { // separate_colour_plane_flag
				return nil, err
			}
		}

		if _, err := r.ReadUE(); err != nil { // bit_depth_luma_minus8
			return nil, err
		}

		if _, err := r.ReadUE(); err != nil { // bit_depth_chroma_minus8
			return nil, err
		}

		if _, err := r.ReadBits(1); err != nil { // qpprime_y_zero_transform_bypass_flag
			return nil, err
		}

		scalingPresent, err := r.ReadBits(1)
		if err != nil {
			return nil, err
		}

		if scalingPresent == 1 {
			count := 8
			if chroma == 3 {
				count = 12
			}

			if err := skipScalingLists(r, count); err != nil {
				return nil, err
			}

			sps.Has8x8Scaling = chroma != 3 || count > 6
		}
	}

	return sps, nil
}

// skipScalingLists consumes count seq_scaling_list_present_flag bits and
// their payloads without materializing the lists: thumbnail extraction
// only needs the default normAdjust tables, not custom scaling matrices.
func skipScalingLists(r *bitstream.Reader, count int) error {
	for i := 0; i < count; i++ {
		present, err := r.ReadBits(1)
		if err != nil {
			return err
		}

		if present != 1 {
			continue
		}

		size := 16
		if i >= 6 {
			size = 64
		}

		lastScale, nextScale := int32(8), int32(8)

		for j := 0; j < size; j++ {
			if nextScale != 0 {
				delta, err := r.ReadSE()
				if err != nil {
					return err
				}

				nextScale = (lastScale + delta + 256) % 256
			}

			if nextScale != 0 {
				lastScale = nextScale
			}
		}
	}

	return nil
}
