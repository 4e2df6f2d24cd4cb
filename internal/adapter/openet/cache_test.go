package openet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenblume/et-shade-etl/internal/domain"
	"github.com/greenblume/et-shade-etl/internal/observability"
)

type stubSource struct {
	calls   int
	records []domain.ETRecord
	err     error
}

func (s *stubSource) DailyET(_ context.Context, _ domain.Field, _ int) ([]domain.ETRecord, error) {
	s.calls++
	return s.records, s.err
}

func yearRecords(fieldID string, year int) []domain.ETRecord {
	return []domain.ETRecord{
		{FieldID: fieldID, Date: domain.Date{Year: year, Month: time.January, Day: 1}, ETmm: 1.0},
	}
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup hits the cache", func(t *testing.T) {
		stub := &stubSource{records: yearRecords("field-1", 2021)}
		cache := NewCachedSource(stub, 10, observability.NewMetricsForTesting())

		first, err := cache.DailyET(ctx, testField(), 2021)
		require.NoError(t, err)
		second, err := cache.DailyET(ctx, testField(), 2021)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("distinct years are distinct entries", func(t *testing.T) {
		stub := &stubSource{records: yearRecords("field-1", 2021)}
		cache := NewCachedSource(stub, 10, observability.NewMetricsForTesting())

		_, err := cache.DailyET(ctx, testField(), 2020)
		require.NoError(t, err)
		_, err = cache.DailyET(ctx, testField(), 2021)
		require.NoError(t, err)

		assert.Equal(t, 2, stub.calls)
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		stub := &stubSource{err: errors.New("openet down")}
		cache := NewCachedSource(stub, 10, observability.NewMetricsForTesting())

		_, err := cache.DailyET(ctx, testField(), 2021)
		require.Error(t, err)
		_, err = cache.DailyET(ctx, testField(), 2021)
		require.Error(t, err)

		assert.Equal(t, 2, stub.calls)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("empty results are not cached", func(t *testing.T) {
		stub := &stubSource{}
		cache := NewCachedSource(stub, 10, observability.NewMetricsForTesting())

		_, err := cache.DailyET(ctx, testField(), 2021)
		require.NoError(t, err)
		_, err = cache.DailyET(ctx, testField(), 2021)
		require.NoError(t, err)

		assert.Equal(t, 2, stub.calls)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("oldest entry is evicted at capacity", func(t *testing.T) {
		stub := &stubSource{records: yearRecords("field-1", 2021)}
		cache := NewCachedSource(stub, 2, observability.NewMetricsForTesting())

		_, err := cache.DailyET(ctx, testField(), 2019)
		require.NoError(t, err)
		_, err = cache.DailyET(ctx, testField(), 2020)
		require.NoError(t, err)

		// Touch 2019 so 2020 becomes the eviction candidate.
		_, err = cache.DailyET(ctx, testField(), 2019)
		require.NoError(t, err)
		assert.Equal(t, 2, stub.calls)

		_, err = cache.DailyET(ctx, testField(), 2021)
		require.NoError(t, err)
		assert.Equal(t, 2, cache.Len())

		// 2019 survived, 2020 was evicted.
		_, err = cache.DailyET(ctx, testField(), 2019)
		require.NoError(t, err)
		assert.Equal(t, 3, stub.calls)

		_, err = cache.DailyET(ctx, testField(), 2020)
		require.NoError(t, err)
		assert.Equal(t, 4, stub.calls)
	})
}
