package lmhist

import (
	"time"

	"golang.org/x/exp/constraints"
)

// HistOutput is the output record of one run: the histogram channels of
// the list-mode processing plus diagnostic counters. It is allocated
// zero-initialized once per run, mutated by exactly one stream of calls in
// event order, and handed back immutable to the caller.
type HistOutput struct {
	Snv []uint32  // per-view prompt counts
	Hcp []uint32  // head-curve prompts
	Hcd []uint32  // head-curve delayeds
	Fan []uint32  // fansums, flattened block x block
	Bck []uint32  // bucket singles
	Mss []float32 // axial centre of mass per time bin
	Ssr []uint32  // SSRB sinogram, flattened slice x view x bin
	Psn []uint32  // prompt sinogram, flattened plane x view x bin
	Dsn []uint32  // delayed sinogram
	Psm uint64    // prompt sum
	Dsm uint64    // delayed sum
	Tot uint32    // total number of sinogram bins

	Nitag      int    // number of head-curve time bins
	Malformed  uint64 // words matching no known tag
	Excluded   uint64 // geometrically excluded coincidences
	GateTags   uint64
	MotionTags uint64

	// Centre-of-mass accumulation state. Kept as numerator/denominator
	// until Finalize so that Merge stays exact.
	mssNum []float64
	mssDen []float64

	blocks int
	fanArc int
}

// NewHistOutput allocates an output record sized from the scanner geometry
// and the time window. An empty window yields zero-length curves but a
// valid record.
func NewHistOutput(cnst ScannerConstants, tstart, tstop time.Duration) *HistOutput {
	nitag := NumTimeBins(tstart, tstop, cnst.CurveBin)
	return &HistOutput{
		Snv:    make([]uint32, cnst.Angles),
		Hcp:    make([]uint32, nitag),
		Hcd:    make([]uint32, nitag),
		Fan:    make([]uint32, cnst.Blocks*cnst.Blocks),
		Bck:    make([]uint32, cnst.Blocks),
		Mss:    make([]float32, nitag),
		Ssr:    make([]uint32, cnst.SSRBBins()),
		Psn:    make([]uint32, cnst.TotalBins()),
		Dsn:    make([]uint32, cnst.TotalBins()),
		Tot:    uint32(cnst.TotalBins()),
		Nitag:  nitag,
		mssNum: make([]float64, nitag),
		mssDen: make([]float64, nitag),
		blocks: cnst.Blocks,
		fanArc: cnst.FanBlocks,
	}
}

// RecordCoincidence folds one resolved coincidence into every channel it
// touches. Indexing is bounds-checked; a LOR outside the allocated
// geometry is dropped rather than trusted.
func (o *HistOutput) RecordCoincidence(prompt bool, lor LOR, bin int) {
	if bin < 0 || bin >= o.Nitag {
		return
	}
	if int(lor.SinoBin) >= len(o.Psn) || int(lor.SSRBBin) >= len(o.Ssr) {
		o.Excluded++
		return
	}
	if prompt {
		o.Psn[lor.SinoBin]++
		o.Psm++
		o.Hcp[bin]++
		if int(lor.View) < len(o.Snv) {
			o.Snv[lor.View]++
		}
	} else {
		o.Dsn[lor.SinoBin]++
		o.Dsm++
		o.Hcd[bin]++
	}
	o.Ssr[lor.SSRBBin]++
	o.mssNum[bin] += float64(lor.Weight)
	o.mssDen[bin]++
}

// RecordSingles adds a bucket count delta and spreads it over the fansum
// cells pairing the block with its opposing arc. The update is
// O(FanBlocks) per event, not O(Blocks^2).
func (o *HistOutput) RecordSingles(block uint16, delta uint32) {
	b := int(block)
	if b >= o.blocks {
		o.Excluded++
		return
	}
	o.Bck[b] += delta
	start := b + o.blocks/2 - o.fanArc/2 + o.blocks
	for k := 0; k < o.fanArc; k++ {
		opp := (start + k) % o.blocks
		o.Fan[b*o.blocks+opp] += delta
	}
}

// Merge folds another record into this one element-wise. Segment merge
// order does not matter: every channel is commutative addition, and the
// centre of mass is merged via its numerator/denominator sums, never by
// averaging ratios.
func (o *HistOutput) Merge(other *HistOutput) {
	addTo(o.Snv, other.Snv)
	addTo(o.Hcp, other.Hcp)
	addTo(o.Hcd, other.Hcd)
	addTo(o.Fan, other.Fan)
	addTo(o.Bck, other.Bck)
	addTo(o.Ssr, other.Ssr)
	addTo(o.Psn, other.Psn)
	addTo(o.Dsn, other.Dsn)
	addTo(o.mssNum, other.mssNum)
	addTo(o.mssDen, other.mssDen)
	o.Psm += other.Psm
	o.Dsm += other.Dsm
	o.Malformed += other.Malformed
	o.Excluded += other.Excluded
	o.GateTags += other.GateTags
	o.MotionTags += other.MotionTags
}

// Finalize converts the centre-of-mass accumulators into per-bin ratios.
// A bin that saw no coincidences yields zero, never a division fault.
func (o *HistOutput) Finalize() {
	for i := range o.Mss {
		if o.mssDen[i] > 0 {
			o.Mss[i] = float32(o.mssNum[i] / o.mssDen[i])
		} else {
			o.Mss[i] = 0
		}
	}
}

func addTo[T constraints.Unsigned | constraints.Float](dst, src []T) {
	for i := range src {
		dst[i] += src[i]
	}
}
