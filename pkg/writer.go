package lmhist

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Writer persists one finalized output record to an HDF5 file: the
// sinograms as chunked deflate arrays under hist/, the scalars and the
// scanner geometry as compound tables under run/.
type Writer struct {
	File         *hdf5.File
	Filename     string
	HistGroup    *hdf5.Group
	RunGroup     *hdf5.Group
	SummaryTable *hdf5.Dataset
	ScannerTable *hdf5.Dataset
	SnvArray     *hdf5.Dataset
	HcpArray     *hdf5.Dataset
	HcdArray     *hdf5.Dataset
	FanArray     *hdf5.Dataset
	BckArray     *hdf5.Dataset
	MssArray     *hdf5.Dataset
	SsrArray     *hdf5.Dataset
	PsnArray     *hdf5.Dataset
	DsnArray     *hdf5.Dataset
}

func NewWriter(filename string) (*Writer, error) {
	writer := &Writer{Filename: filename}

	var err error
	writer.File, err = openFile(filename)
	if err != nil {
		return nil, err
	}
	if writer.HistGroup, err = createGroup(writer.File, "hist"); err != nil {
		return nil, err
	}
	if writer.RunGroup, err = createGroup(writer.File, "run"); err != nil {
		return nil, err
	}
	if writer.SummaryTable, err = createTable(writer.RunGroup, "summary", runSummaryHDF5{}); err != nil {
		return nil, err
	}
	if writer.ScannerTable, err = createTable(writer.RunGroup, "scanner", scannerInfoHDF5{}); err != nil {
		return nil, err
	}
	return writer, nil
}

// WriteHist writes every channel of the record. The head-curve lengths
// depend on the run's time window, so the datasets are created here rather
// than at writer construction.
func (w *Writer) WriteHist(out *HistOutput, cnst ScannerConstants) error {
	level := configuration.CompressionLevel
	if level <= 0 {
		level = 4
	}

	sino3d := []uint{uint(cnst.Sinos), uint(cnst.Angles), uint(cnst.Bins)}
	ssrb3d := []uint{uint(cnst.Seg0), uint(cnst.Angles), uint(cnst.Bins)}
	plane := []uint{1, uint(cnst.Angles), uint(cnst.Bins)}
	fan2d := []uint{uint(cnst.Blocks), uint(cnst.Blocks)}
	nitag := []uint{uint(out.Nitag)}

	var err error
	if w.PsnArray, err = createArray(w.HistGroup, "psn", sino3d, plane, hdf5.T_NATIVE_UINT32, level); err != nil {
		return err
	}
	if w.DsnArray, err = createArray(w.HistGroup, "dsn", sino3d, plane, hdf5.T_NATIVE_UINT32, level); err != nil {
		return err
	}
	if w.SsrArray, err = createArray(w.HistGroup, "ssr", ssrb3d, plane, hdf5.T_NATIVE_UINT32, level); err != nil {
		return err
	}
	if w.FanArray, err = createArray(w.HistGroup, "fan", fan2d, fan2d, hdf5.T_NATIVE_UINT32, level); err != nil {
		return err
	}
	if w.SnvArray, err = createArray(w.HistGroup, "snv", []uint{uint(cnst.Angles)}, nil, hdf5.T_NATIVE_UINT32, level); err != nil {
		return err
	}
	if w.BckArray, err = createArray(w.HistGroup, "bck", []uint{uint(cnst.Blocks)}, nil, hdf5.T_NATIVE_UINT32, level); err != nil {
		return err
	}
	if out.Nitag > 0 {
		if w.HcpArray, err = createArray(w.HistGroup, "hcp", nitag, nil, hdf5.T_NATIVE_UINT32, level); err != nil {
			return err
		}
		if w.HcdArray, err = createArray(w.HistGroup, "hcd", nitag, nil, hdf5.T_NATIVE_UINT32, level); err != nil {
			return err
		}
		if w.MssArray, err = createArray(w.HistGroup, "mss", nitag, nil, hdf5.T_NATIVE_FLOAT, level); err != nil {
			return err
		}
	}

	if err = writeArray(w.PsnArray, out.Psn); err != nil {
		return fmt.Errorf("error writing prompt sinogram: %w", err)
	}
	if err = writeArray(w.DsnArray, out.Dsn); err != nil {
		return fmt.Errorf("error writing delayed sinogram: %w", err)
	}
	if err = writeArray(w.SsrArray, out.Ssr); err != nil {
		return fmt.Errorf("error writing SSRB sinogram: %w", err)
	}
	if err = writeArray(w.FanArray, out.Fan); err != nil {
		return fmt.Errorf("error writing fansums: %w", err)
	}
	if err = writeArray(w.SnvArray, out.Snv); err != nil {
		return fmt.Errorf("error writing sino views: %w", err)
	}
	if err = writeArray(w.BckArray, out.Bck); err != nil {
		return fmt.Errorf("error writing buckets: %w", err)
	}
	if out.Nitag > 0 {
		if err = writeArray(w.HcpArray, out.Hcp); err != nil {
			return fmt.Errorf("error writing head-curve prompts: %w", err)
		}
		if err = writeArray(w.HcdArray, out.Hcd); err != nil {
			return fmt.Errorf("error writing head-curve delayeds: %w", err)
		}
		if err = writeArray(w.MssArray, out.Mss); err != nil {
			return fmt.Errorf("error writing centre of mass: %w", err)
		}
	}

	summary := runSummaryHDF5{
		psm:        out.Psm,
		dsm:        out.Dsm,
		tot:        out.Tot,
		nitag:      int32(out.Nitag),
		malformed:  out.Malformed,
		excluded:   out.Excluded,
		gate_tags:  out.GateTags,
		motion_tag: out.MotionTags,
	}
	if err = writeEntryToTable(w.SummaryTable, summary); err != nil {
		return fmt.Errorf("error writing run summary: %w", err)
	}

	info := scannerInfoHDF5{
		scanner: convertToHdf5String(cnst.Name),
		rings:   int32(cnst.Rings),
		bins:    int32(cnst.Bins),
		angles:  int32(cnst.Angles),
		sinos:   int32(cnst.Sinos),
		seg0:    int32(cnst.Seg0),
		blocks:  int32(cnst.Blocks),
	}
	if err = writeEntryToTable(w.ScannerTable, info); err != nil {
		return fmt.Errorf("error writing scanner info: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	var errs []error

	closeDataset := func(name string, dset *hdf5.Dataset) {
		if dset == nil {
			return
		}
		if err := dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", name, err))
		}
	}
	closeDataset("summary table", w.SummaryTable)
	closeDataset("scanner table", w.ScannerTable)
	closeDataset("sino views", w.SnvArray)
	closeDataset("head-curve prompts", w.HcpArray)
	closeDataset("head-curve delayeds", w.HcdArray)
	closeDataset("fansums", w.FanArray)
	closeDataset("buckets", w.BckArray)
	closeDataset("centre of mass", w.MssArray)
	closeDataset("SSRB sinogram", w.SsrArray)
	closeDataset("prompt sinogram", w.PsnArray)
	closeDataset("delayed sinogram", w.DsnArray)

	if w.HistGroup != nil {
		if err := w.HistGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing hist group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
