package domain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MMPerInch converts water depth from millimetres to inches.
const MMPerInch = 25.4

// AggregateAnnual sums adjusted daily records into one annual total for a
// field. Records for a different field or year are ErrInvalidInput rather
// than silently filtered, so a bad join surfaces instead of skewing totals.
//
// Summation is commutative; record order does not affect the result. Days
// absent from recs contribute nothing. An empty slice yields a zero total
// with PeriodCount 0, which callers should treat as "no coverage" rather
// than "no water use".
func AggregateAnnual(fieldID string, year int, recs []AdjustedETRecord) (AnnualAdjustedET, error) {
	et := make([]float64, 0, len(recs))
	adjusted := make([]float64, 0, len(recs))
	for _, r := range recs {
		if r.FieldID != fieldID {
			return AnnualAdjustedET{}, fmt.Errorf(
				"%w: record for field %q in aggregation for %q", ErrInvalidInput, r.FieldID, fieldID)
		}
		if r.Date.Year != year {
			return AnnualAdjustedET{}, fmt.Errorf(
				"%w: record dated %s in aggregation for year %d", ErrInvalidInput, r.Date, year)
		}
		et = append(et, r.ETmm)
		adjusted = append(adjusted, r.AdjustedETmm)
	}

	totalET := floats.Sum(et)
	totalAdjusted := floats.Sum(adjusted)
	return AnnualAdjustedET{
		FieldID:           fieldID,
		Year:              year,
		TotalETmm:         totalET,
		TotalAdjustedETmm: totalAdjusted,
		WaterSavedmm:      totalET - totalAdjusted,
		PeriodCount:       len(recs),
	}, nil
}

// SumRange sums adjusted ET over the inclusive date range [from, to].
// Kept for irrigation planning against part-season windows.
func SumRange(recs []AdjustedETRecord, from, to Date) float64 {
	var vals []float64
	for _, r := range recs {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		vals = append(vals, r.AdjustedETmm)
	}
	return floats.Sum(vals)
}
