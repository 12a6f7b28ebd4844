package lmhist

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomStream builds a plausible list-mode stream: a timing tag per tag
// period with a burst of coincidences and the occasional singles or
// gating word in between.
func randomStream(rng *rand.Rand, cnst ScannerConstants, codes int, tags int, perTag int) []uint32 {
	words := make([]uint32, 0, tags*(perTag+2))
	for tag := 0; tag < tags; tag++ {
		for i := 0; i < perTag; i++ {
			switch rng.Intn(10) {
			case 0:
				words = append(words, singlesWord(uint16(rng.Intn(cnst.Blocks)), uint32(rng.Intn(50))))
			case 1:
				words = append(words, gatingWord(uint32(rng.Intn(16))))
			default:
				words = append(words, coincWord(rng.Intn(2) == 0, uint32(rng.Intn(codes))))
			}
		}
		words = append(words, timeTagWord(uint32(tag)))
	}
	return words
}

func TestProcessWorkedExample(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)

	// Three timing tags, each advancing elapsed time by one unit, with ten
	// coincidences on pair code 0 distributed between them.
	words := []uint32{
		coincWord(true, 0), coincWord(true, 0), coincWord(false, 0),
		timeTagWord(0),
		coincWord(true, 0), coincWord(true, 0), coincWord(false, 0), coincWord(false, 0),
		timeTagWord(1),
		coincWord(true, 0), coincWord(true, 0), coincWord(false, 0),
		timeTagWord(2),
		coincWord(true, 0), // past tstop, never reached
	}
	path := writeStream(t, words)

	out, err := Process(nil, path, 0, 3*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, uint64(6), out.Psm)
	assert.Equal(t, uint64(4), out.Dsm)
	assert.Equal(t, uint32(6), out.Snv[0])
	assert.Equal(t, []uint32{2, 2, 2}, out.Hcp)
	assert.Equal(t, []uint32{1, 2, 1}, out.Hcd)
	assert.Equal(t, uint32(10), out.Ssr[0])
	assert.Equal(t, uint32(6), out.Psn[0])
	assert.Equal(t, uint32(4), out.Dsn[0])
}

func TestProcessEmptyWindow(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)
	path := writeStream(t, []uint32{coincWord(true, 0), timeTagWord(0)})

	out, err := Process(nil, path, time.Second, time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), out.Psm)
	assert.Equal(t, uint64(0), out.Dsm)
	assert.Equal(t, uint64(0), sumU32(out.Psn))
	assert.Equal(t, uint64(0), sumU32(out.Ssr))
	assert.Equal(t, uint64(0), sumU32(out.Bck))
	assert.Equal(t, 0, out.Nitag)
	assert.Equal(t, uint32(cnst.TotalBins()), out.Tot)
}

func TestProcessInvalidWindow(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)

	// Rejected before any I/O: the path does not even exist.
	_, err := Process(nil, filepath.Join(t.TempDir(), "missing.flm"),
		2*time.Second, time.Second, lors, axial, cnst)
	var windowErr *ErrInvalidWindow
	assert.True(t, errors.As(err, &windowErr))
}

func TestProcessMissingFile(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)

	_, err := Process(nil, filepath.Join(t.TempDir(), "missing.flm"),
		0, time.Second, lors, axial, cnst)
	var openErr *ErrOpenFile
	assert.True(t, errors.As(err, &openErr))
}

func TestProcessUnknownFormat(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	cnst.Format = 99
	lors, axial := testLUTs(cnst)
	path := writeStream(t, []uint32{timeTagWord(0)})

	_, err := Process(nil, path, 0, time.Second, lors, axial, cnst)
	var formatErr *ErrUnknownFormat
	assert.True(t, errors.As(err, &formatErr))
}

func TestProcessTruncatedStream(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)
	path := writeStream(t, []uint32{coincWord(true, 0)})
	require.NoError(t, os.WriteFile(path, append(streamBytes(t, path), 0xAA, 0xBB), 0o644))

	_, err := Process(nil, path, 0, time.Second, lors, axial, cnst)
	var truncErr *ErrTruncatedStream
	assert.True(t, errors.As(err, &truncErr))
}

func streamBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestProcessMalformedCountedAndSkipped(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)

	clean := []uint32{
		coincWord(true, 0), coincWord(false, 9),
		timeTagWord(0),
		coincWord(true, 17),
		timeTagWord(1),
	}
	dirty := append(append([]uint32{}, clean[:2]...), reservedWord())
	dirty = append(dirty, clean[2:]...)

	base, err := Process(nil, writeStream(t, clean), 0, 2*time.Second, lors, axial, cnst)
	require.NoError(t, err)
	out, err := Process(nil, writeStream(t, dirty), 0, 2*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), out.Malformed)
	assert.Equal(t, base.Psm, out.Psm)
	assert.Equal(t, base.Dsm, out.Dsm)
	assert.Equal(t, base.Psn, out.Psn)
	assert.Equal(t, base.Dsn, out.Dsn)
	assert.Equal(t, base.Ssr, out.Ssr)
	assert.Equal(t, base.Hcp, out.Hcp)
	assert.Equal(t, base.Hcd, out.Hcd)
}

func TestProcessExcludedPairs(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)
	lors[2] = InvalidLOR

	words := []uint32{
		coincWord(true, 2), coincWord(true, 0),
		timeTagWord(0),
	}
	out, err := Process(nil, writeStream(t, words), 0, time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), out.Excluded)
	assert.Equal(t, uint64(1), out.Psm)
}

func TestProcessWindowFilter(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)

	// One coincidence and one singles update per second over four seconds;
	// the window [1s, 3s) keeps only the middle two of each.
	words := []uint32{
		coincWord(true, 0), singlesWord(0, 1), timeTagWord(0),
		coincWord(true, 0), singlesWord(0, 2), timeTagWord(1),
		coincWord(true, 0), singlesWord(0, 4), timeTagWord(2),
		coincWord(true, 0), singlesWord(0, 8), timeTagWord(3),
	}
	out, err := Process(nil, writeStream(t, words), time.Second, 3*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), out.Psm)
	assert.Equal(t, []uint32{1, 1}, out.Hcp)
	assert.Equal(t, uint32(2+4), out.Bck[0])
}

func TestProcessGatingAndMotionCounters(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)

	words := []uint32{
		gatingWord(1), motionWord(2), gatingWord(3), timeTagWord(0),
	}
	out, err := Process(nil, writeStream(t, words), 0, time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), out.GateTags)
	assert.Equal(t, uint64(1), out.MotionTags)
}

func TestProcessDeterminism(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)
	rng := rand.New(rand.NewSource(42))
	path := writeStream(t, randomStream(rng, cnst, len(lors), 8, 200))

	first, err := Process(nil, path, 0, 8*time.Second, lors, axial, cnst)
	require.NoError(t, err)
	second, err := Process(nil, path, 0, 8*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProcessSSRBMatchesReferencePass(t *testing.T) {
	t.Parallel()

	cnst := testConstants()
	lors, axial := testLUTs(cnst)
	rng := rand.New(rand.NewSource(13))
	path := writeStream(t, randomStream(rng, cnst, len(lors), 6, 300))

	out, err := Process(nil, path, 0, 6*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	// Reference pass: collapse the full prompt+delayed sinogram through
	// the plane-to-slice mapping after the fact.
	trans := cnst.TransBins()
	sinoToSlice := make([]int32, cnst.Sinos)
	for _, entry := range axial {
		sinoToSlice[entry.Sino] = entry.Slice
	}
	reference := make([]uint32, cnst.SSRBBins())
	for bin := range out.Psn {
		sino := bin / trans
		tx := bin % trans
		reference[int(sinoToSlice[sino])*trans+tx] += out.Psn[bin] + out.Dsn[bin]
	}
	assert.Equal(t, reference, out.Ssr)
}

func TestProcessSegmentSplitMerge(t *testing.T) {
	cnst := testConstants()
	lors, axial := testLUTs(cnst)
	rng := rand.New(rand.NewSource(77))
	path := writeStream(t, randomStream(rng, cnst, len(lors), 12, 150))

	sequential, err := Process(nil, path, time.Second, 10*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	SetConfiguration(Configuration{Parallel: true, NumWorkers: 3})
	defer SetConfiguration(Configuration{})
	parallel, err := Process(nil, path, time.Second, 10*time.Second, lors, axial, cnst)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestCutSegments(t *testing.T) {
	t.Parallel()

	tagPeriod := time.Second
	// Tags at word offsets 10, 20, 30 in a 40-word stream.
	offsets := []int64{10, 20, 30}
	segments := cutSegments(offsets, 40, 2, tagPeriod)
	require.Len(t, segments, 2)
	assert.Equal(t, segmentJob{index: 0, offset: 0, words: 20}, segments[0])
	assert.Equal(t, segmentJob{index: 1, offset: 20, words: 20, elapsed: time.Second}, segments[1])

	// More workers than tags still yields contiguous coverage.
	segments = cutSegments(offsets, 40, 8, tagPeriod)
	var total int64
	for i, segment := range segments {
		total += segment.words
		if i > 0 {
			assert.Equal(t, segments[i-1].offset+segments[i-1].words, segment.offset)
		}
	}
	assert.Equal(t, int64(40), total)

	// No tags: a single segment.
	segments = cutSegments(nil, 40, 4, tagPeriod)
	require.Len(t, segments, 1)
	assert.Equal(t, int64(40), segments[0].words)
}
