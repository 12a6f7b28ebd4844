package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	lmhist "github.com/pet-exp/lmhist_go/pkg"
)

var dbConn *sqlx.DB
var configuration lmhist.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	lmhist.SetConfiguration(configuration)
	lmhist.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	cnst, axLUT, err := loadGeometry()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if configuration.FormatVersion != 0 {
		cnst.Format = configuration.FormatVersion
	}

	lorTable, err := lmhist.LoadLORTable(configuration.LORTableFile)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if err := lmhist.ValidateTables(lorTable, axLUT, cnst); err != nil {
		message := fmt.Errorf("inconsistent lookup tables: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	tstart := time.Duration(configuration.TStart * float64(time.Second))
	tstop := time.Duration(configuration.TStop * float64(time.Second))

	output := lmhist.NewHistOutput(cnst, tstart, tstop)

	start := time.Now()
	output, err = lmhist.Process(output, configuration.FileIn, tstart, tstop, lorTable, axLUT, cnst)
	if err != nil {
		message := fmt.Errorf("error processing %s: %w", configuration.FileIn, err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	duration := time.Since(start)

	message := fmt.Sprintf("Processed %s in %d ms: %d prompts, %d delayeds, %d malformed, %d excluded",
		configuration.FileIn, duration.Milliseconds(), output.Psm, output.Dsm, output.Malformed, output.Excluded)
	logger.Info(message, "main")

	if configuration.WriteData {
		writer, err := lmhist.NewWriter(configuration.FileOut)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		if err := writer.WriteHist(output, cnst); err != nil {
			logger.Error(err.Error())
			writer.Close()
			os.Exit(1)
		}
		if err := writer.Close(); err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		if VerbosityLevel > 0 {
			logger.Info(fmt.Sprintf("Histograms written to %s", configuration.FileOut), "main")
		}
	}
}

// loadGeometry resolves the scanner constants and the axial LUT, either
// from the conditions database or, in no-DB mode, from the built-in preset
// and the LUT file.
func loadGeometry() (lmhist.ScannerConstants, lmhist.AxialLUT, error) {
	if configuration.NoDB {
		cnst, err := presetConstants(configuration.Scanner)
		if err != nil {
			return lmhist.ScannerConstants{}, nil, err
		}
		axLUT, err := lmhist.LoadAxialLUT(configuration.AxialLUTFile)
		if err != nil {
			return lmhist.ScannerConstants{}, nil, err
		}
		return cnst, axLUT, nil
	}

	var err error
	dbConn, err = lmhist.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return lmhist.ScannerConstants{}, nil, fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()

	cnst, err := lmhist.GetScannerConstantsFromDB(dbConn, configuration.Scanner)
	if err != nil {
		return lmhist.ScannerConstants{}, nil, err
	}
	axLUT, err := lmhist.GetAxialLUTFromDB(dbConn, configuration.Scanner, cnst)
	if err != nil {
		return lmhist.ScannerConstants{}, nil, err
	}
	return cnst, axLUT, nil
}

func presetConstants(scanner string) (lmhist.ScannerConstants, error) {
	switch scanner {
	case "mmr", "":
		return lmhist.MMRConstants(), nil
	}
	return lmhist.ScannerConstants{}, fmt.Errorf("no built-in constants for scanner %q, use the conditions DB", scanner)
}
