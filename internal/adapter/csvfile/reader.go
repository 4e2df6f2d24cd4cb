// Package csvfile reads and writes the CSV layouts used by the command-line
// tools: shade tables, daily ET series, adjusted daily records, and annual
// totals.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

// Shade table layout: field_id,date,shade_fraction with a header row.
var shadeHeader = []string{"field_id", "date", "shade_fraction"}

// Daily ET layout: field_id,date,et_mm with a header row.
var etHeader = []string{"field_id", "date", "et_mm"}

func openCSV(path string, want []string) (*os.File, *csv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(want)

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i, col := range want {
		if header[i] != col {
			f.Close()
			return nil, nil, fmt.Errorf("%s: column %d is %q, want %q", path, i, header[i], col)
		}
	}
	return f, r, nil
}

// ReadShadeTable loads a shade table CSV. Duplicate or out-of-range rows fail
// the whole load.
func ReadShadeTable(path string) (*domain.ShadeTable, error) {
	f, r, err := openCSV(path, shadeHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table := domain.NewShadeTable()
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		date, err := domain.ParseDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		fraction, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: shade_fraction: %w", path, line, err)
		}
		rec := domain.ShadeRecord{FieldID: row[0], Date: date, Fraction: fraction}
		if err := table.Add(rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
	return table, nil
}

// ReadDailyET loads a daily ET CSV into records.
func ReadDailyET(path string) ([]domain.ETRecord, error) {
	f, r, err := openCSV(path, etHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.ETRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		date, err := domain.ParseDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		etMM, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: et_mm: %w", path, line, err)
		}
		if etMM < 0 {
			return nil, fmt.Errorf("%s line %d: %w: negative et_mm %g",
				path, line, domain.ErrInvalidInput, etMM)
		}
		records = append(records, domain.ETRecord{FieldID: row[0], Date: date, ETmm: etMM})
	}
	return records, nil
}
