package lmhist

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const readChunkBytes = 1 << 22

// FileReader delivers the list-mode stream one 32-bit word at a time over
// a chunked read buffer. The word loop is the throughput-critical path, so
// NextWord stays allocation free.
type FileReader struct {
	file     *os.File
	filename string
	buf      []byte
	pos      int
	n        int
	words    int64
	limit    int64 // words to deliver, <0 for unbounded
	eof      bool
}

func NewFileReader(file *os.File) *FileReader {
	return &FileReader{
		file:     file,
		filename: file.Name(),
		buf:      make([]byte, readChunkBytes),
		limit:    -1,
	}
}

// NewSegmentReader positions a reader at a word offset and bounds it to a
// word count, for parallel segment workers.
func NewSegmentReader(file *os.File, offset int64, words int64) (*FileReader, error) {
	if _, err := file.Seek(offset*4, io.SeekStart); err != nil {
		return nil, &ErrOpenFile{Filename: file.Name(), Err: err}
	}
	reader := NewFileReader(file)
	reader.limit = words
	return reader, nil
}

// NextWord returns the next whole event word, io.EOF at end of stream, or
// ErrTruncatedStream if the file ends inside a word.
func (f *FileReader) NextWord() (uint32, error) {
	if f.limit >= 0 && f.words >= f.limit {
		return 0, io.EOF
	}
	if f.pos+4 > f.n {
		if err := f.fill(); err != nil {
			return 0, err
		}
	}
	w := binary.LittleEndian.Uint32(f.buf[f.pos:])
	f.pos += 4
	f.words++
	return w, nil
}

// Words is the number of words delivered so far.
func (f *FileReader) Words() int64 {
	return f.words
}

func (f *FileReader) fill() error {
	left := f.n - f.pos
	copy(f.buf, f.buf[f.pos:f.n])
	f.pos = 0
	f.n = left

	for f.n < 4 {
		if f.eof {
			if f.n == 0 {
				return io.EOF
			}
			return &ErrTruncatedStream{Filename: f.filename, Words: f.words, Err: io.ErrUnexpectedEOF}
		}
		nRead, err := f.file.Read(f.buf[f.n:])
		f.n += nRead
		if err == io.EOF {
			f.eof = true
			continue
		}
		if err != nil {
			return &ErrTruncatedStream{Filename: f.filename, Words: f.words, Err: err}
		}
	}
	return nil
}

// CountTimeTags is the fast pre-pass over the whole file: it records the
// word offset of every timing tag and the total word count, then seeks
// back to the beginning. The offsets bound the head curve and cut the
// parallel segments at tag boundaries.
func CountTimeTags(file *os.File, format uint16) ([]int64, int64, error) {
	reader := NewFileReader(file)
	offsets := make([]int64, 0, 1024)
	var total int64
	for {
		w, err := reader.NextWord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if IsTimeTag(w, format) {
			offsets = append(offsets, total)
		}
		total++
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("error rewinding %q: %w", file.Name(), err)
	}
	return offsets, total, nil
}
