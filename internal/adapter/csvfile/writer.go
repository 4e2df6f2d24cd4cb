package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header of %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteShadeTable writes shade records in the shade table CSV layout.
func WriteShadeTable(path string, records []domain.ShadeRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{rec.FieldID, rec.Date.String(), formatFloat(rec.Fraction)})
	}
	return writeCSV(path, shadeHeader, rows)
}

// WriteAdjusted writes adjusted daily records with their inputs alongside.
func WriteAdjusted(path string, records []domain.AdjustedETRecord) error {
	header := []string{"field_id", "date", "et_mm", "shade_fraction", "adjusted_et_mm", "processed_at"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.FieldID,
			rec.Date.String(),
			formatFloat(rec.ETmm),
			formatFloat(rec.ShadeFraction),
			formatFloat(rec.AdjustedETmm),
			rec.ProcessedAt.Format(time.RFC3339),
		})
	}
	return writeCSV(path, header, rows)
}

// WriteAnnual writes annual totals, one row per field-year.
func WriteAnnual(path string, totals []domain.AnnualAdjustedET) error {
	header := []string{"field_id", "year", "total_et_mm", "total_adjusted_et_mm", "water_saved_mm", "period_count"}
	rows := make([][]string, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, []string{
			total.FieldID,
			strconv.Itoa(total.Year),
			formatFloat(total.TotalETmm),
			formatFloat(total.TotalAdjustedETmm),
			formatFloat(total.WaterSavedmm),
			strconv.Itoa(total.PeriodCount),
		})
	}
	return writeCSV(path, header, rows)
}
