package domain

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floatTol = 1e-12

func TestAdjustET(t *testing.T) {
	t.Run("worked example", func(t *testing.T) {
		got, err := AdjustET(100, 0.3)
		require.NoError(t, err)
		assert.InDelta(t, 70.0, got, floatTol)
	})

	t.Run("zero shade is identity", func(t *testing.T) {
		for _, et := range []float64{0, 0.5, 3.2, 100, 1234.567} {
			got, err := AdjustET(et, 0)
			require.NoError(t, err)
			assert.Equal(t, et, got)
		}
	})

	t.Run("full shade is zero", func(t *testing.T) {
		for _, et := range []float64{0, 0.5, 3.2, 100} {
			got, err := AdjustET(et, 1)
			require.NoError(t, err)
			assert.InDelta(t, 0.0, got, floatTol)
		}
	})

	t.Run("linearity", func(t *testing.T) {
		for s := 0.0; s <= 1.0; s += 0.05 {
			got, err := AdjustET(42.5, s)
			require.NoError(t, err)
			assert.InDelta(t, 42.5*(1-s), got, floatTol)
		}
	})

	t.Run("monotone nonincreasing in shade", func(t *testing.T) {
		prev := math.Inf(1)
		for s := 0.0; s <= 1.0; s += 0.01 {
			got, err := AdjustET(5.5, s)
			require.NoError(t, err)
			assert.LessOrEqual(t, got, prev+floatTol, "shade %g", s)
			prev = got
		}
	})
}

func TestAdjustET_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		et    float64
		shade float64
	}{
		{"shade below range", 10, -0.1},
		{"shade above range", 10, 1.1},
		{"negative et", -5, 0.3},
		{"NaN et", math.NaN(), 0.3},
		{"NaN shade", 10, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AdjustET(tt.et, tt.shade)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAdjustRecord(t *testing.T) {
	date := Date{Year: 2022, Month: time.June, Day: 15}
	frozen := time.Date(2022, time.July, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("matched pair", func(t *testing.T) {
		et := ETRecord{FieldID: "field-1", Date: date, ETmm: 6.4}
		shade := ShadeRecord{FieldID: "field-1", Date: date, Fraction: 0.25}

		rec, err := AdjustRecord(et, shade)
		require.NoError(t, err)

		assert.Equal(t, "field-1", rec.FieldID)
		assert.Equal(t, date, rec.Date)
		assert.Equal(t, 6.4, rec.ETmm)
		assert.Equal(t, 0.25, rec.ShadeFraction)
		assert.InDelta(t, 4.8, rec.AdjustedETmm, floatTol)
		assert.Equal(t, frozen, rec.ProcessedAt)
	})

	t.Run("field mismatch", func(t *testing.T) {
		et := ETRecord{FieldID: "field-1", Date: date, ETmm: 6.4}
		shade := ShadeRecord{FieldID: "field-2", Date: date, Fraction: 0.25}

		_, err := AdjustRecord(et, shade)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("date mismatch", func(t *testing.T) {
		et := ETRecord{FieldID: "field-1", Date: date, ETmm: 6.4}
		shade := ShadeRecord{FieldID: "field-1", Date: date.Next(), Fraction: 0.25}

		_, err := AdjustRecord(et, shade)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("invalid shade propagates", func(t *testing.T) {
		et := ETRecord{FieldID: "field-1", Date: date, ETmm: 6.4}
		shade := ShadeRecord{FieldID: "field-1", Date: date, Fraction: 1.3}

		_, err := AdjustRecord(et, shade)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
