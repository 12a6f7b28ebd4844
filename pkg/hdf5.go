package lmhist

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// runSummaryHDF5 is the compound row holding the scalar outputs and the
// diagnostic counters of one run.
type runSummaryHDF5 struct {
	psm        uint64
	dsm        uint64
	tot        uint32
	nitag      int32
	malformed  uint64
	excluded   uint64
	gate_tags  uint64
	motion_tag uint64
}

// scannerInfoHDF5 records which geometry produced the histograms.
type scannerInfoHDF5 struct {
	scanner [STRLEN]byte
	rings   int32
	bins    int32
	angles  int32
	sinos   int32
	seg0    int32
	blocks  int32
}

const STRLEN = 20

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

// createArray makes a fixed-size chunked dataset with deflate compression.
// The sinograms are the only large outputs; everything else fits in a
// single contiguous write.
func createArray(group *hdf5.Group, name string, dims []uint, chunks []uint, dtype *hdf5.Datatype, level int) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if chunks != nil {
		plist.SetChunk(chunks)
		plist.SetDeflate(level)
	}

	dset, err := group.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeArray[T any](dset *hdf5.Dataset, data []T) error {
	if len(data) == 0 {
		return nil
	}
	return dset.Write(&data)
}

// createTable makes an extendable compound table, chunked the way the
// rest of the HDF5 outputs of the experiment are laid out.
func createTable(group *hdf5.Group, name string, datatype interface{}) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	chunks := []uint{128}
	plist.SetChunk(chunks)
	plist.SetDeflate(4)

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T) error {
	length := uint(len(*data))
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating dataspace: %w", err)
	}
	defer dataspace.Close()

	dimsGot, _, err := dataset.Space().SimpleExtentDims()
	if err != nil {
		return fmt.Errorf("error reading table extent: %w", err)
	}
	entriesInFile := dimsGot[0]
	newsize := []uint{entriesInFile + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{entriesInFile}
	count := []uint{length}
	filespace.SelectHyperslab(start, nil, count, nil)

	return dataset.WriteSubset(data, dataspace, filespace)
}
