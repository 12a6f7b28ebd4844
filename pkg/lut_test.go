package lmhist

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLORTable(t *testing.T) {
	t.Parallel()

	want := LORTable{0, 5, InvalidLOR, 12}
	path := filepath.Join(t.TempDir(), "lors.bin")
	data := make([]byte, 4*len(want))
	for i, v := range want {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadLORTable(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadLORTableErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLORTable(filepath.Join(t.TempDir(), "nope.bin"))
		var openErr *ErrOpenFile
		assert.True(t, errors.As(err, &openErr))
	})

	t.Run("ragged size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lors.bin")
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
		_, err := LoadLORTable(path)
		assert.Error(t, err)
	})
}

func TestLoadAxialLUT(t *testing.T) {
	t.Parallel()

	want := AxialLUT{
		{Sino: 0, Slice: 0, Weight: 0.5},
		{Sino: 3, Slice: 1, Weight: 1.25},
	}
	path := filepath.Join(t.TempDir(), "axial.bin")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, binary.Write(file, binary.LittleEndian, want))
	require.NoError(t, file.Close())

	got, err := LoadAxialLUT(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadAxialLUTRaggedSize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "axial.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 13), 0o644))
	_, err := LoadAxialLUT(path)
	assert.Error(t, err)
}
