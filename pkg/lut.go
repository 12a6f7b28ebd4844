package lmhist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// LoadLORTable reads a precomputed LOR-compression table from a binary
// file of little-endian int32 values, one per raw detector-pair code.
func LoadLORTable(filename string) (LORTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	if info.Size()%4 != 0 {
		return nil, fmt.Errorf("LOR table %q size %d is not a whole number of entries", filename, info.Size())
	}

	table := make(LORTable, info.Size()/4)
	reader := bufio.NewReaderSize(file, 1<<20)
	if err := binary.Read(reader, binary.LittleEndian, table); err != nil {
		return nil, fmt.Errorf("error reading LOR table %q: %w", filename, err)
	}
	return table, nil
}

// LoadAxialLUT reads the axial lookup table from a binary file of
// little-endian {sino int32, slice int32, weight float32} records.
func LoadAxialLUT(filename string) (AxialLUT, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	const entrySize = 12
	if info.Size()%entrySize != 0 {
		return nil, fmt.Errorf("axial LUT %q size %d is not a whole number of entries", filename, info.Size())
	}

	lut := make(AxialLUT, info.Size()/entrySize)
	reader := bufio.NewReaderSize(file, 1<<20)
	if err := binary.Read(reader, binary.LittleEndian, lut); err != nil {
		return nil, fmt.Errorf("error reading axial LUT %q: %w", filename, err)
	}
	return lut, nil
}
