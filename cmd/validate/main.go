// Command validate performs end-to-end data integrity checks across the CSV
// outputs of a shade adjustment run: the shade table, the daily ET input, the
// adjusted daily records, and the annual totals. It verifies join coverage,
// adjustment arithmetic, and cross-file consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -shade-csv out/field-1-2021-shade.csv \
//	  -et-csv data/field-1-et.csv \
//	  -adjusted-csv out/field-1-2021-adjusted.csv \
//	  -annual-csv out/field-1-2021-annual.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/greenblume/et-shade-etl/internal/adapter/csvfile"
	"github.com/greenblume/et-shade-etl/internal/domain"
)

// tolerance for comparing recomputed floats against CSV round-trips.
const tol = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	shadeCSV := flag.String("shade-csv", "", "path to the shade table CSV")
	etCSV := flag.String("et-csv", "", "path to the daily ET CSV")
	adjustedCSV := flag.String("adjusted-csv", "", "path to the adjusted daily CSV")
	annualCSV := flag.String("annual-csv", "", "path to the annual totals CSV")
	flag.Parse()

	if *shadeCSV == "" || *etCSV == "" || *adjustedCSV == "" || *annualCSV == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*shadeCSV, *etCSV, *adjustedCSV, *annualCSV); code != 0 {
		os.Exit(code)
	}
}

func run(shadePath, etPath, adjustedPath, annualPath string) int {
	fmt.Println("=== Shade Adjustment Integrity Validation ===")
	fmt.Println()

	table, err := csvfile.ReadShadeTable(shadePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load shade table: %v\n", err)
		return 1
	}
	etRecords, err := csvfile.ReadDailyET(etPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load daily ET: %v\n", err)
		return 1
	}
	adjusted, err := loadAdjusted(adjustedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load adjusted records: %v\n", err)
		return 1
	}
	annual, err := loadAnnual(annualPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load annual totals: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateJoinCoverage(table, etRecords, adjusted),
		validateAdjustment(table, etRecords, adjusted),
		validateAnnualTotals(adjusted, annual),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d shade, %d ET, %d adjusted, %d annual\n",
		table.Len(), len(etRecords), len(adjusted), len(annual))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

type adjustedRow struct {
	lineNum int
	rec     domain.AdjustedETRecord
}

func loadAdjusted(path string) ([]adjustedRow, error) {
	rows, err := loadCSV(path, []string{"field_id", "date", "et_mm", "shade_fraction", "adjusted_et_mm", "processed_at"})
	if err != nil {
		return nil, err
	}
	out := make([]adjustedRow, 0, len(rows))
	for _, row := range rows {
		date, err := domain.ParseDate(row.fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.lineNum, err)
		}
		etMM, err1 := strconv.ParseFloat(row.fields[2], 64)
		shade, err2 := strconv.ParseFloat(row.fields[3], 64)
		adjMM, err3 := strconv.ParseFloat(row.fields[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("line %d: unparseable numeric column", row.lineNum)
		}
		out = append(out, adjustedRow{
			lineNum: row.lineNum,
			rec: domain.AdjustedETRecord{
				FieldID:       row.fields[0],
				Date:          date,
				ETmm:          etMM,
				ShadeFraction: shade,
				AdjustedETmm:  adjMM,
			},
		})
	}
	return out, nil
}

func loadAnnual(path string) ([]domain.AnnualAdjustedET, error) {
	rows, err := loadCSV(path, []string{"field_id", "year", "total_et_mm", "total_adjusted_et_mm", "water_saved_mm", "period_count"})
	if err != nil {
		return nil, err
	}
	out := make([]domain.AnnualAdjustedET, 0, len(rows))
	for _, row := range rows {
		year, err1 := strconv.Atoi(row.fields[1])
		totalET, err2 := strconv.ParseFloat(row.fields[2], 64)
		totalAdj, err3 := strconv.ParseFloat(row.fields[3], 64)
		saved, err4 := strconv.ParseFloat(row.fields[4], 64)
		count, err5 := strconv.Atoi(row.fields[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, fmt.Errorf("line %d: unparseable column", row.lineNum)
		}
		out = append(out, domain.AnnualAdjustedET{
			FieldID:           row.fields[0],
			Year:              year,
			TotalETmm:         totalET,
			TotalAdjustedETmm: totalAdj,
			WaterSavedmm:      saved,
			PeriodCount:       count,
		})
	}
	return out, nil
}

type csvRow struct {
	lineNum int
	fields  []string
}

func loadCSV(path string, wantHeader []string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(wantHeader)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 1 {
		return nil, fmt.Errorf("empty file %s", path)
	}
	for i, col := range wantHeader {
		if all[0][i] != col {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", path, i, all[0][i], col)
		}
	}

	rows := make([]csvRow, 0, len(all)-1)
	for i, row := range all[1:] {
		rows = append(rows, csvRow{lineNum: i + 2, fields: row})
	}
	return rows, nil
}

// ── Phase 1: Join Coverage ──
// Every adjusted record must trace back to an ET record and a shade record;
// every ET record with a shade match must appear in the adjusted output.

func validateJoinCoverage(table *domain.ShadeTable, etRecords []domain.ETRecord, adjusted []adjustedRow) *phase {
	p := &phase{name: "Phase 1: Join Coverage"}

	type key struct {
		fieldID string
		date    domain.Date
	}
	etByKey := make(map[key]domain.ETRecord, len(etRecords))
	for _, et := range etRecords {
		etByKey[key{et.FieldID, et.Date}] = et
	}
	adjByKey := make(map[key]adjustedRow, len(adjusted))
	for _, row := range adjusted {
		k := key{row.rec.FieldID, row.rec.Date}
		if _, dup := adjByKey[k]; dup {
			p.errorf("line %d: duplicate adjusted record for %s/%s", row.lineNum, k.fieldID, k.date)
			continue
		}
		adjByKey[k] = row

		if _, ok := etByKey[k]; !ok {
			p.errorf("line %d: adjusted record %s/%s has no ET input", row.lineNum, k.fieldID, k.date)
		}
		if _, ok := table.Lookup(k.fieldID, k.date); !ok {
			p.errorf("line %d: adjusted record %s/%s has no shade record", row.lineNum, k.fieldID, k.date)
		}
	}

	for _, et := range etRecords {
		k := key{et.FieldID, et.Date}
		_, hasShade := table.Lookup(k.fieldID, k.date)
		_, hasAdj := adjByKey[k]
		if hasShade && !hasAdj {
			p.errorf("ET record %s/%s has a shade match but no adjusted output", k.fieldID, k.date)
		}
	}
	return p
}

// ── Phase 2: Adjustment Arithmetic ──
// Recomputes every adjusted value from its inputs.

func validateAdjustment(table *domain.ShadeTable, etRecords []domain.ETRecord, adjusted []adjustedRow) *phase {
	p := &phase{name: "Phase 2: Adjustment Arithmetic"}

	type key struct {
		fieldID string
		date    domain.Date
	}
	etByKey := make(map[key]domain.ETRecord, len(etRecords))
	for _, et := range etRecords {
		etByKey[key{et.FieldID, et.Date}] = et
	}

	for _, row := range adjusted {
		k := key{row.rec.FieldID, row.rec.Date}
		et, okET := etByKey[k]
		shade, okShade := table.Lookup(k.fieldID, k.date)
		if !okET || !okShade {
			continue // reported in phase 1
		}

		if math.Abs(row.rec.ETmm-et.ETmm) > tol {
			p.errorf("line %d: et_mm %g does not match input %g", row.lineNum, row.rec.ETmm, et.ETmm)
		}
		if math.Abs(row.rec.ShadeFraction-shade.Fraction) > tol {
			p.errorf("line %d: shade_fraction %g does not match table %g", row.lineNum, row.rec.ShadeFraction, shade.Fraction)
		}

		want, err := domain.AdjustET(et.ETmm, shade.Fraction)
		if err != nil {
			p.errorf("line %d: inputs fail adjustment: %v", row.lineNum, err)
			continue
		}
		if math.Abs(row.rec.AdjustedETmm-want) > tol {
			p.errorf("line %d: adjusted_et_mm %g, recomputed %g", row.lineNum, row.rec.AdjustedETmm, want)
		}
	}
	return p
}

// ── Phase 3: Annual Totals ──
// Recomputes per field-year sums from the adjusted records.

func validateAnnualTotals(adjusted []adjustedRow, annual []domain.AnnualAdjustedET) *phase {
	p := &phase{name: "Phase 3: Annual Totals"}

	type key struct {
		fieldID string
		year    int
	}
	sums := make(map[key]*domain.AnnualAdjustedET)
	for _, row := range adjusted {
		k := key{row.rec.FieldID, row.rec.Date.Year}
		s, ok := sums[k]
		if !ok {
			s = &domain.AnnualAdjustedET{FieldID: k.fieldID, Year: k.year}
			sums[k] = s
		}
		s.TotalETmm += row.rec.ETmm
		s.TotalAdjustedETmm += row.rec.AdjustedETmm
		s.PeriodCount++
	}

	seen := make(map[key]bool)
	for _, total := range annual {
		k := key{total.FieldID, total.Year}
		if seen[k] {
			p.errorf("duplicate annual row for %s/%d", k.fieldID, k.year)
			continue
		}
		seen[k] = true

		want, ok := sums[k]
		if !ok {
			p.errorf("annual row %s/%d has no adjusted records", k.fieldID, k.year)
			continue
		}
		if math.Abs(total.TotalETmm-want.TotalETmm) > tol {
			p.errorf("%s/%d: total_et_mm %g, recomputed %g", k.fieldID, k.year, total.TotalETmm, want.TotalETmm)
		}
		if math.Abs(total.TotalAdjustedETmm-want.TotalAdjustedETmm) > tol {
			p.errorf("%s/%d: total_adjusted_et_mm %g, recomputed %g", k.fieldID, k.year, total.TotalAdjustedETmm, want.TotalAdjustedETmm)
		}
		if math.Abs(total.WaterSavedmm-(total.TotalETmm-total.TotalAdjustedETmm)) > tol {
			p.errorf("%s/%d: water_saved_mm %g is not total minus adjusted", k.fieldID, k.year, total.WaterSavedmm)
		}
		if total.PeriodCount != want.PeriodCount {
			p.errorf("%s/%d: period_count %d, recomputed %d", k.fieldID, k.year, total.PeriodCount, want.PeriodCount)
		}
	}

	for k := range sums {
		if !seen[k] {
			p.errorf("adjusted records for %s/%d have no annual row", k.fieldID, k.year)
		}
	}
	return p
}
