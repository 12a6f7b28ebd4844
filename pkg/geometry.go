package lmhist

import (
	"fmt"
	"time"
)

// ScannerConstants holds the static geometry of one scanner. Every component
// that needs geometry receives this value explicitly, so two runs with
// different scanners can execute concurrently without interference.
type ScannerConstants struct {
	Name      string
	Crystals  int // crystals per ring
	Rings     int
	Bins      int // radial sinogram bins
	Angles    int // angular views
	Sinos     int // axial sinogram planes after span compression
	Seg0      int // SSRB slices
	Blocks    int // singles buckets
	FanBlocks int // width of the opposing-block arc used for fansums
	TagPeriod time.Duration
	CurveBin  time.Duration // head-curve time bin width
	Format    uint16
}

// TransBins is the number of transaxial bins in one sinogram plane.
func (c ScannerConstants) TransBins() int { return c.Bins * c.Angles }

// TotalBins is the element count of the full 3-D sinogram.
func (c ScannerConstants) TotalBins() int { return c.Sinos * c.TransBins() }

// SSRBBins is the element count of the axially rebinned sinogram.
func (c ScannerConstants) SSRBBins() int { return c.Seg0 * c.TransBins() }

// AxialCodes is the size of the ring-pair code space addressed by the
// axial LUT.
func (c ScannerConstants) AxialCodes() int { return c.Rings * c.Rings }

// MMRConstants is the built-in preset for the Siemens mMR geometry, used
// when no conditions database is available.
func MMRConstants() ScannerConstants {
	return ScannerConstants{
		Name:      "mmr",
		Crystals:  448,
		Rings:     64,
		Bins:      344,
		Angles:    252,
		Sinos:     837,
		Seg0:      127,
		Blocks:    224,
		FanBlocks: 20,
		TagPeriod: time.Millisecond,
		CurveBin:  time.Second,
		Format:    FormatLM32,
	}
}

// LORTable maps a raw detector-pair code to a compressed LOR index.
// Codes the scanner geometry excludes (gaps, below minimum ring
// difference) carry the sentinel InvalidLOR.
type LORTable []int32

const InvalidLOR int32 = -1

// AxialEntry maps the axial ring-pair component of a LOR to its axial
// sinogram plane, its SSRB slice and the axial weight used for the
// centre-of-mass trajectory.
type AxialEntry struct {
	Sino   int32
	Slice  int32
	Weight float32
}

type AxialLUT []AxialEntry

// LOR is a fully resolved line of response, ready for accumulation.
type LOR struct {
	Index   int32
	SinoBin int32
	SSRBBin int32
	View    int32
	Weight  float32
}

// Resolver performs the pair-code to sinogram-bin resolution. It is a pure
// double lookup over borrowed read-only tables and is safe to share between
// segment workers.
type Resolver struct {
	lors  LORTable
	axial AxialLUT
	trans int32
	bins  int32
}

func NewResolver(lors LORTable, axial AxialLUT, cnst ScannerConstants) *Resolver {
	return &Resolver{
		lors:  lors,
		axial: axial,
		trans: int32(cnst.TransBins()),
		bins:  int32(cnst.Bins),
	}
}

// Resolve maps a raw detector-pair code to a LOR. The second return value
// is false for codes the geometry excludes; the caller discards the event
// without accumulating. Runs once per coincidence in the hot loop, no
// allocation.
func (r *Resolver) Resolve(code uint32) (LOR, bool) {
	if code >= uint32(len(r.lors)) {
		return LOR{}, false
	}
	lor := r.lors[code]
	if lor < 0 {
		return LOR{}, false
	}
	tx := lor % r.trans
	ax := lor / r.trans
	if int(ax) >= len(r.axial) {
		return LOR{}, false
	}
	entry := r.axial[ax]
	return LOR{
		Index:   lor,
		SinoBin: entry.Sino*r.trans + tx,
		SSRBBin: entry.Slice*r.trans + tx,
		View:    tx / r.bins,
		Weight:  entry.Weight,
	}, true
}

// ValidateTables checks the documented LUT contract once before a run:
// every LOR index the compression table can produce must have a defined
// axial entry, and every axial entry must address a plane and slice inside
// the scanner geometry.
func ValidateTables(lors LORTable, axial AxialLUT, cnst ScannerConstants) error {
	if len(axial) < cnst.AxialCodes() {
		return fmt.Errorf("axial LUT has %d entries, geometry needs %d", len(axial), cnst.AxialCodes())
	}
	trans := int32(cnst.TransBins())
	for code, lor := range lors {
		if lor < 0 {
			continue
		}
		ax := lor / trans
		if int(ax) >= len(axial) {
			return fmt.Errorf("pair code %d maps to LOR %d outside the axial LUT", code, lor)
		}
	}
	for ax, entry := range axial {
		if entry.Sino < 0 || int(entry.Sino) >= cnst.Sinos {
			return fmt.Errorf("axial code %d maps to sinogram plane %d of %d", ax, entry.Sino, cnst.Sinos)
		}
		if entry.Slice < 0 || int(entry.Slice) >= cnst.Seg0 {
			return fmt.Errorf("axial code %d maps to SSRB slice %d of %d", ax, entry.Slice, cnst.Seg0)
		}
	}
	return nil
}
