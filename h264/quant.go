package h264

// v4x4Seed and v8x8Seed are the seed coefficients of the H.264 default
// dequantization tables: one row per qp % 6, one column per position
// class within a block.
var v4x4Seed = [6][3]int32{
	{10, 16, 13},
	{11, 18, 14},
	{13, 20, 16},
	{14, 23, 18},
	{16, 25, 20},
	{18, 29, 23},
}

var v8x8Seed = [6][6]int32{
	{20, 18, 32, 19, 25, 24},
	{22, 19, 35, 21, 28, 26},
	{26, 23, 42, 24, 33, 31},
	{28, 25, 45, 26, 35, 33},
	{32, 28, 51, 30, 40, 38},
	{36, 32, 58, 34, 46, 43},
}

// posClass4x4 maps each position in a 4x4 block to its seed column: 0 at
// the four corners-of-quadrant DC-adjacent positions, 1 at the four
// positions where both coordinates are odd, 2 everywhere else.
var posClass4x4 = [4][4]int{
	{0, 2, 0, 2},
	{2, 1, 2, 1},
	{0, 2, 0, 2},
	{2, 1, 2, 1},
}

// posClass8x8 maps each position in an 8x8 block to its seed column,
// following the six-way classification of the default 8x8 scaling list.
var posClass8x8 = [8][8]int{
	{0, 3, 4, 3, 0, 3, 4, 3},
	{3, 1, 5, 1, 3, 1, 5, 1},
	{4, 5, 2, 5, 4, 5, 2, 5},
	{3, 1, 5, 1, 3, 1, 5, 1},
	{0, 3, 4, 3, 0, 3, 4, 3},
	{3, 1, 5, 1, 3, 1, 5, 1},
	{4, 5, 2, 5, 4, 5, 2, 5},
	{3, 1, 5, 1, 3, 1, 5, 1},
}

// NormAdjust4x4 builds the full normAdjust4x4[6][4][4] table from the seed
// coefficients, one matrix per qp%6.
func NormAdjust4x4() [6][4][4]int32 {
	var table [6][4][4]int32

	for m := 0; m < 6; m++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				table[m][y][x] = v4x4Seed[m][posClass4x4[y][x]]
			}
		}
	}

	return table
}

// NormAdjust8x8 builds the full normAdjust8x8[6][8][8] table from the seed
// coefficients, one matrix per qp%6.
func NormAdjust8x8() [6][8][8]int32 {
	var table [6][8][8]int32

	for m := 0; m < 6; m++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				table[m][y][x] = v8x8Seed[m][posClass8x8[y][x]]
			}
		}
	}

	return table
}
