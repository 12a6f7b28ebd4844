package lmhist

import "time"

// TimeWindow tracks elapsed acquisition time from timing tags and decides
// whether events fall inside [tstart, tstop). Windowing is a filter on this
// state, not a pre-scan of the stream: events arriving while Active is
// false never reach the accumulator.
type TimeWindow struct {
	Tstart  time.Duration
	Tstop   time.Duration
	Elapsed time.Duration
	Active  bool
	Done    bool
	Bin     int

	tagPeriod time.Duration
	curveBin  time.Duration
	nbins     int
}

// NumTimeBins is the head-curve length for a window, quantized to the
// curve bin width. An empty window has zero bins.
func NumTimeBins(tstart, tstop, curveBin time.Duration) int {
	if tstop <= tstart {
		return 0
	}
	return int((tstop - tstart + curveBin - 1) / curveBin)
}

func NewTimeWindow(tstart, tstop time.Duration, cnst ScannerConstants) (*TimeWindow, error) {
	if tstart > tstop {
		return nil, &ErrInvalidWindow{Tstart: tstart, Tstop: tstop}
	}
	w := &TimeWindow{
		Tstart:    tstart,
		Tstop:     tstop,
		tagPeriod: cnst.TagPeriod,
		curveBin:  cnst.CurveBin,
		nbins:     NumTimeBins(tstart, tstop, cnst.CurveBin),
	}
	w.update()
	return w, nil
}

// SetElapsed establishes carried-forward elapsed time at a segment
// boundary, for workers that start mid-stream.
func (w *TimeWindow) SetElapsed(elapsed time.Duration) {
	w.Elapsed = elapsed
	w.update()
}

// Tick advances elapsed time by one tag period. Called once per timing tag.
func (w *TimeWindow) Tick() {
	w.Elapsed += w.tagPeriod
	w.update()
}

func (w *TimeWindow) update() {
	if w.Elapsed >= w.Tstop || w.nbins == 0 {
		w.Done = true
		w.Active = false
		return
	}
	w.Active = w.Elapsed >= w.Tstart
	if w.Active {
		w.Bin = int((w.Elapsed - w.Tstart) / w.curveBin)
		if w.Bin >= w.nbins {
			w.Bin = w.nbins - 1
		}
	}
}
