package suntracker

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

var testField = domain.Field{ID: "field-1", Lat: 42, Lon: -120}

func TestSimulate(t *testing.T) {
	ctx := context.Background()

	t.Run("one record per day", func(t *testing.T) {
		recs, err := Simulate(ctx, testField, 2022, DefaultGeometry(), false)
		require.NoError(t, err)
		require.Len(t, recs, 365)

		assert.Equal(t, domain.Date{Year: 2022, Month: time.January, Day: 1}, recs[0].Date)
		assert.Equal(t, domain.Date{Year: 2022, Month: time.December, Day: 31}, recs[len(recs)-1].Date)
		for _, r := range recs {
			assert.Equal(t, "field-1", r.FieldID)
			assert.GreaterOrEqual(t, r.Fraction, 0.0, "date %s", r.Date)
			assert.LessOrEqual(t, r.Fraction, 1.0, "date %s", r.Date)
		}
	})

	t.Run("leap year", func(t *testing.T) {
		recs, err := Simulate(ctx, testField, 2020, DefaultGeometry(), false)
		require.NoError(t, err)
		assert.Len(t, recs, 366)
	})

	t.Run("records load into a shade table", func(t *testing.T) {
		recs, err := Simulate(ctx, testField, 2022, DefaultGeometry(), false)
		require.NoError(t, err)

		tbl := domain.NewShadeTable()
		for _, r := range recs {
			require.NoError(t, tbl.Add(r))
		}
		assert.Equal(t, 365, tbl.Len())
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := Simulate(ctx, testField, 2022, DefaultGeometry(), false)
		require.NoError(t, err)
		b, err := Simulate(ctx, testField, 2022, DefaultGeometry(), false)
		require.NoError(t, err)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("repeat run mismatch (-first +second):\n%s", diff)
		}
	})

	t.Run("invalid field", func(t *testing.T) {
		_, err := Simulate(ctx, domain.Field{ID: "f", Lat: 91}, 2022, DefaultGeometry(), false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid geometry", func(t *testing.T) {
		g := DefaultGeometry()
		g.NSSpacing = 0
		_, err := Simulate(ctx, testField, 2022, g, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid year", func(t *testing.T) {
		_, err := Simulate(ctx, testField, 0, DefaultGeometry(), false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Simulate(cancelled, testField, 2022, DefaultGeometry(), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDailyShade(t *testing.T) {
	g := DefaultGeometry()

	t.Run("polar night is unshaded", func(t *testing.T) {
		got := dailyShade(80, 0, domain.Date{Year: 2022, Month: time.December, Day: 21}, g)
		assert.Zero(t, got)
	})

	t.Run("winter shade exceeds summer shade", func(t *testing.T) {
		// Low winter sun stretches shadows across the footprint.
		winter := dailyShade(42, -120, domain.Date{Year: 2022, Month: time.December, Day: 21}, g)
		summer := dailyShade(42, -120, domain.Date{Year: 2022, Month: time.June, Day: 21}, g)
		assert.Greater(t, winter, summer)
		assert.Greater(t, summer, 0.0)
	})
}
