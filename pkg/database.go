package lmhist

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

func ConnectToDatabase(user string, passwd string, host string, dbname string) (*sqlx.DB, error) {
	dbURI := fmt.Sprintf("%s:%s@(%s:3306)/%s?parseTime=true", user, passwd, host, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type scannerRow struct {
	Name      string  `db:"name"`
	Crystals  int     `db:"crystals"`
	Rings     int     `db:"rings"`
	Bins      int     `db:"bins"`
	Angles    int     `db:"angles"`
	Sinos     int     `db:"sinos"`
	Seg0      int     `db:"seg0"`
	Blocks    int     `db:"blocks"`
	FanBlocks int     `db:"fan_blocks"`
	TagPeriod int64   `db:"tag_period_us"`
	CurveBin  int64   `db:"curve_bin_us"`
	Format    uint16  `db:"format"`
}

// GetScannerConstantsFromDB loads the geometry row of one scanner from the
// conditions database.
func GetScannerConstantsFromDB(db *sqlx.DB, scanner string) (ScannerConstants, error) {
	var row scannerRow
	query := "SELECT name, crystals, rings, bins, angles, sinos, seg0, blocks, fan_blocks, tag_period_us, curve_bin_us, format FROM ScannerConstants WHERE name = ?"
	if err := db.Get(&row, query, scanner); err != nil {
		return ScannerConstants{}, fmt.Errorf("error reading scanner constants for %q: %w", scanner, err)
	}
	cnst := ScannerConstants{
		Name:      row.Name,
		Crystals:  row.Crystals,
		Rings:     row.Rings,
		Bins:      row.Bins,
		Angles:    row.Angles,
		Sinos:     row.Sinos,
		Seg0:      row.Seg0,
		Blocks:    row.Blocks,
		FanBlocks: row.FanBlocks,
		TagPeriod: microseconds(row.TagPeriod),
		CurveBin:  microseconds(row.CurveBin),
		Format:    row.Format,
	}
	if configuration.Verbosity > 0 && logger != nil {
		message := fmt.Sprintf("Scanner constants for %s read from DB", scanner)
		logger.Info(message, "database")
	}
	return cnst, nil
}

type axialRow struct {
	AxialCode int     `db:"axial_code"`
	Sino      int32   `db:"sino"`
	Slice     int32   `db:"slice"`
	Weight    float32 `db:"weight"`
}

// GetAxialLUTFromDB loads the axial lookup table of one scanner from the
// conditions database, ordered by ring-pair code.
func GetAxialLUTFromDB(db *sqlx.DB, scanner string, cnst ScannerConstants) (AxialLUT, error) {
	query := "SELECT axial_code, sino, slice, weight FROM AxialLUT WHERE scanner = ? ORDER BY axial_code"
	rows, err := db.Queryx(query, scanner)
	if err != nil {
		return nil, fmt.Errorf("error reading axial LUT for %q: %w", scanner, err)
	}
	defer rows.Close()

	lut := make(AxialLUT, cnst.AxialCodes())
	count := 0
	for rows.Next() {
		var row axialRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("error scanning axial LUT row: %w", err)
		}
		if row.AxialCode < 0 || row.AxialCode >= len(lut) {
			return nil, fmt.Errorf("axial code %d outside the %d-entry LUT", row.AxialCode, len(lut))
		}
		lut[row.AxialCode] = AxialEntry{Sino: row.Sino, Slice: row.Slice, Weight: row.Weight}
		count++
	}
	if count != len(lut) {
		return nil, fmt.Errorf("axial LUT for %q has %d of %d entries", scanner, count, len(lut))
	}
	return lut, nil
}

func microseconds(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
