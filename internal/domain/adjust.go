package domain

import (
	"fmt"
	"math"
)

// AdjustET applies the linear shade model: et_mm * (1 - shadeFraction).
//
// Inputs are validated, not corrected: a shade fraction outside [0,1] or a
// negative ET value returns ErrInvalidInput. Clamping here would hide
// tracker-geometry bugs upstream and silently corrupt annual totals.
func AdjustET(etMM, shadeFraction float64) (float64, error) {
	if math.IsNaN(etMM) || math.IsNaN(shadeFraction) {
		return 0, fmt.Errorf("%w: NaN value", ErrInvalidInput)
	}
	if etMM < 0 {
		return 0, fmt.Errorf("%w: negative et value %g mm", ErrInvalidInput, etMM)
	}
	if shadeFraction < 0 || shadeFraction > 1 {
		return 0, fmt.Errorf("%w: shade fraction %g outside [0,1]", ErrInvalidInput, shadeFraction)
	}
	return etMM * (1 - shadeFraction), nil
}

// AdjustRecord combines a matched ET and shade record into an adjusted
// record. The records must share field ID and date; a mismatch means the
// caller joined the inputs wrong and is ErrInvalidInput.
func AdjustRecord(et ETRecord, shade ShadeRecord) (AdjustedETRecord, error) {
	if et.FieldID != shade.FieldID || et.Date != shade.Date {
		return AdjustedETRecord{}, fmt.Errorf(
			"%w: et record %s/%s paired with shade record %s/%s",
			ErrInvalidInput, et.FieldID, et.Date, shade.FieldID, shade.Date,
		)
	}
	adjusted, err := AdjustET(et.ETmm, shade.Fraction)
	if err != nil {
		return AdjustedETRecord{}, fmt.Errorf("adjust %s/%s: %w", et.FieldID, et.Date, err)
	}
	return AdjustedETRecord{
		FieldID:       et.FieldID,
		Date:          et.Date,
		ETmm:          et.ETmm,
		ShadeFraction: shade.Fraction,
		AdjustedETmm:  adjusted,
		ProcessedAt:   clock.Now(),
	}, nil
}
