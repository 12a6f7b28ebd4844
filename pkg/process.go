package lmhist

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Process runs the decode->resolve->accumulate loop over one list-mode
// file and returns the populated output record. out is caller-allocated
// and sized for cnst; passing nil allocates a fresh record. The geometry
// tables are precomputed and validated elsewhere; they are borrowed
// read-only for the duration of the run.
//
// Per-event conditions (malformed words, geometrically excluded pairs)
// are counted and skipped. Only whole-run conditions are returned as
// errors: an invalid window before any I/O, an unreadable or truncated
// input during it.
func Process(out *HistOutput, filename string, tstart, tstop time.Duration,
	lors LORTable, axial AxialLUT, cnst ScannerConstants) (*HistOutput, error) {

	if tstart > tstop {
		return nil, &ErrInvalidWindow{Tstart: tstart, Tstop: tstop}
	}
	if cnst.Format != FormatLM32 {
		return nil, &ErrUnknownFormat{Version: cnst.Format}
	}
	if out == nil {
		out = NewHistOutput(cnst, tstart, tstop)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	resolver := NewResolver(lors, axial, cnst)

	if configuration.Parallel && configuration.NumWorkers > 1 {
		if err := processParallel(out, file, tstart, tstop, resolver, cnst); err != nil {
			return nil, err
		}
		out.Finalize()
		return out, nil
	}

	window, err := NewTimeWindow(tstart, tstop, cnst)
	if err != nil {
		return nil, err
	}
	if err := run(NewFileReader(file), window, resolver, out, cnst); err != nil {
		return nil, err
	}
	out.Finalize()
	return out, nil
}

// run is the single sequential pass. Events are processed in stream order:
// a timing tag changes the interpretation of everything that follows, so
// this loop is the ordering constraint on any parallel split.
func run(reader *FileReader, window *TimeWindow, resolver *Resolver, out *HistOutput, cnst ScannerConstants) error {
	verbosity := configuration.Verbosity
	for !window.Done {
		w, err := reader.NextWord()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		event := DecodeWord(w, cnst.Format)
		switch event.Kind {
		case TimeTag:
			window.Tick()
			if verbosity > 2 {
				message := fmt.Sprintf("time tag at %v, active=%t", window.Elapsed, window.Active)
				logger.Info(message, "process")
			}
		case Coincidence:
			if !window.Active {
				continue
			}
			lor, ok := resolver.Resolve(event.PairCode)
			if !ok {
				out.Excluded++
				continue
			}
			out.RecordCoincidence(event.Prompt, lor, window.Bin)
		case SinglesUpdate:
			if !window.Active {
				continue
			}
			out.RecordSingles(event.Block, event.Delta)
		case GatingTag:
			out.GateTags++
		case MotionTag:
			out.MotionTags++
		default:
			out.Malformed++
		}
	}
	return nil
}

type segmentJob struct {
	index   int
	offset  int64 // word offset of the first word of the segment
	words   int64
	elapsed time.Duration // elapsed time carried in at the boundary
}

type segmentResult struct {
	index int
	hist  *HistOutput
	err   error
}

// processParallel partitions the stream into contiguous tag-bounded
// segments, histograms each into a private record and merges the records
// deterministically. Requires the tag-offset pre-pass; the extra read is
// paid back on multi-hundred-million-event files.
func processParallel(out *HistOutput, file *os.File, tstart, tstop time.Duration,
	resolver *Resolver, cnst ScannerConstants) error {

	offsets, total, err := CountTimeTags(file, cnst.Format)
	if err != nil {
		return err
	}

	segments := cutSegments(offsets, total, configuration.NumWorkers, cnst.TagPeriod)
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("parallel pass: %d words, %d time tags, %d segments",
			total, len(offsets), len(segments))
		logger.Info(message, "process")
	}

	jobs := make(chan segmentJob, len(segments))
	results := make(chan segmentResult, len(segments))
	for w := 1; w <= configuration.NumWorkers; w++ {
		go segmentWorker(w, file.Name(), tstart, tstop, resolver, cnst, jobs, results)
	}
	for _, job := range segments {
		jobs <- job
	}
	close(jobs)

	partials := make([]*HistOutput, len(segments))
	for range segments {
		result := <-results
		if result.err != nil {
			return result.err
		}
		partials[result.index] = result.hist
	}
	for _, partial := range partials {
		out.Merge(partial)
	}
	return nil
}

// cutSegments splits [0, total) words into at most n contiguous ranges,
// each starting on a timing-tag word so that the carried-forward elapsed
// time is exact: the segment beginning at the k-th tag has seen k tags.
func cutSegments(tagOffsets []int64, total int64, n int, tagPeriod time.Duration) []segmentJob {
	if total == 0 {
		return nil
	}
	if n < 1 || len(tagOffsets) == 0 {
		return []segmentJob{{index: 0, offset: 0, words: total}}
	}

	starts := []int64{0}
	elapsed := []time.Duration{0}
	target := total / int64(n)
	tag := 0
	for s := 1; s < n; s++ {
		want := int64(s) * target
		for tag < len(tagOffsets) && tagOffsets[tag] < want {
			tag++
		}
		if tag >= len(tagOffsets) {
			break
		}
		if tagOffsets[tag] <= starts[len(starts)-1] {
			continue
		}
		starts = append(starts, tagOffsets[tag])
		elapsed = append(elapsed, time.Duration(tag)*tagPeriod)
	}

	segments := make([]segmentJob, len(starts))
	for i := range starts {
		end := total
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		segments[i] = segmentJob{
			index:   i,
			offset:  starts[i],
			words:   end - starts[i],
			elapsed: elapsed[i],
		}
	}
	return segments
}

func segmentWorker(id int, filename string, tstart, tstop time.Duration,
	resolver *Resolver, cnst ScannerConstants, jobs <-chan segmentJob, results chan<- segmentResult) {

	for job := range jobs {
		results <- runSegment(id, filename, tstart, tstop, resolver, cnst, job)
	}
}

func runSegment(id int, filename string, tstart, tstop time.Duration,
	resolver *Resolver, cnst ScannerConstants, job segmentJob) (result segmentResult) {

	result.index = job.index
	defer func() {
		if r := recover(); r != nil {
			result.err = fmt.Errorf("worker %d recovered from panic on segment %d: %v", id, job.index, r)
		}
	}()

	file, err := os.Open(filename)
	if err != nil {
		result.err = &ErrOpenFile{Filename: filename, Err: err}
		return result
	}
	defer file.Close()

	reader, err := NewSegmentReader(file, job.offset, job.words)
	if err != nil {
		result.err = err
		return result
	}
	window, err := NewTimeWindow(tstart, tstop, cnst)
	if err != nil {
		result.err = err
		return result
	}
	window.SetElapsed(job.elapsed)

	hist := NewHistOutput(cnst, tstart, tstop)
	if err := run(reader, window, resolver, hist, cnst); err != nil {
		result.err = err
		return result
	}
	result.hist = hist
	return result
}
