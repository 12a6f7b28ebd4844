package lmhist

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testConstants is a small synthetic geometry: 2 views of 4 radial bins,
// 4 rings, 6 axial planes, 4 SSRB slices, 4 singles buckets. Tag period
// and curve bin are both one second so a tag advances the head curve by
// exactly one bin.
func testConstants() ScannerConstants {
	return ScannerConstants{
		Name:      "test",
		Crystals:  16,
		Rings:     4,
		Bins:      4,
		Angles:    2,
		Sinos:     6,
		Seg0:      4,
		Blocks:    4,
		FanBlocks: 2,
		TagPeriod: time.Second,
		CurveBin:  time.Second,
		Format:    FormatLM32,
	}
}

// testLUTs builds an identity-style pair of tables over the full code
// space of testConstants. The SSRB slice is a pure function of the axial
// plane, so an after-the-fact axial collapse of the full sinogram must
// reproduce the incremental SSRB exactly.
func testLUTs(cnst ScannerConstants) (LORTable, AxialLUT) {
	axial := make(AxialLUT, cnst.AxialCodes())
	for ax := range axial {
		sino := int32(ax % cnst.Sinos)
		axial[ax] = AxialEntry{
			Sino:   sino,
			Slice:  sino % int32(cnst.Seg0),
			Weight: float32(sino),
		}
	}
	lors := make(LORTable, cnst.AxialCodes()*cnst.TransBins())
	for code := range lors {
		lors[code] = int32(code)
	}
	return lors, axial
}

func coincWord(prompt bool, code uint32) uint32 {
	w := code & pairCodeMask
	if prompt {
		w |= promptBit
	}
	return w
}

func timeTagWord(marker uint32) uint32 {
	return controlBit | kindTimeTag<<controlKindShift | marker&payloadMask
}

func singlesWord(block uint16, delta uint32) uint32 {
	return controlBit | kindSingles<<controlKindShift |
		uint32(block)<<singlesBlockShift | delta&singlesDeltaMask
}

func gatingWord(mask uint32) uint32 {
	return controlBit | kindGating<<controlKindShift | mask&payloadMask
}

func motionWord(payload uint32) uint32 {
	return controlBit | kindMotion<<controlKindShift | payload&payloadMask
}

func reservedWord() uint32 {
	return controlBit | 5<<controlKindShift
}

// writeStream writes raw words as a little-endian list-mode file in a
// per-test temp dir and returns its path.
func writeStream(t *testing.T, words []uint32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.flm")
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sumU32(values []uint32) uint64 {
	var total uint64
	for _, v := range values {
		total += uint64(v)
	}
	return total
}
