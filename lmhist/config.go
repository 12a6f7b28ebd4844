package main

import (
	"encoding/json"
	"fmt"
	"os"

	lmhist "github.com/pet-exp/lmhist_go/pkg"
)

func LoadConfiguration(filename string) (lmhist.Configuration, error) {
	var config lmhist.Configuration

	// Set default values
	config.TStart = 0
	config.TStop = 3600
	config.Scanner = "mmr"
	config.FormatVersion = lmhist.FormatLM32
	config.Verbosity = 0
	config.NoDB = false
	config.Host = "pet.conditions.db"
	config.User = "petreader"
	config.Passwd = "readonly"
	config.DBName = "PETCOND"
	config.NumWorkers = 1
	config.Parallel = false
	config.WriteData = true
	config.CompressionLevel = 4

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config lmhist.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("LOR table: %s", config.LORTableFile), "config")
	logger.Info(fmt.Sprintf("Axial LUT: %s", config.AxialLUTFile), "config")
	logger.Info(fmt.Sprintf("Tstart: %g s", config.TStart), "config")
	logger.Info(fmt.Sprintf("Tstop: %g s", config.TStop), "config")
	logger.Info(fmt.Sprintf("Scanner: %s", config.Scanner), "config")
	logger.Info(fmt.Sprintf("Format version: %d", config.FormatVersion), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Parallel: %t", config.Parallel), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
