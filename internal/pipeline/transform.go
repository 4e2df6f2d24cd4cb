package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

// AdjustTransformer implements Transformer by matching each ET sample against
// the shade table and applying the shade adjustment.
type AdjustTransformer struct {
	table  *domain.ShadeTable
	policy domain.MissingPolicy
	logger *slog.Logger
}

// NewTransformer creates an AdjustTransformer over the given shade table.
func NewTransformer(table *domain.ShadeTable, policy domain.MissingPolicy, logger *slog.Logger) *AdjustTransformer {
	return &AdjustTransformer{
		table:  table,
		policy: policy,
		logger: logger,
	}
}

// Transform parses a raw sample, looks up its shade record, and produces the
// adjusted output. A sample with no shade match fails with ErrMissingShade
// under either policy; a stream cannot abort, so the reject policy surfaces
// the miss as a warning while skip treats it as an expected gap. Either way
// the sample is dropped and counted.
func (t *AdjustTransformer) Transform(_ context.Context, raw domain.RawSample) (domain.OutputRecord, error) {
	sample, err := domain.ParseRawSample(raw)
	if err != nil {
		return domain.OutputRecord{}, err
	}

	shade, ok := t.table.Lookup(sample.FieldID, sample.Date)
	if !ok {
		if t.policy == domain.MissingSkip {
			t.logger.Debug("no shade record for sample",
				"field_id", sample.FieldID, "date", sample.Date.String())
		} else {
			t.logger.Warn("no shade record for sample, shade table is incomplete",
				"field_id", sample.FieldID, "date", sample.Date.String())
		}
		return domain.OutputRecord{}, fmt.Errorf("%w for %s/%s", domain.ErrMissingShade, sample.FieldID, sample.Date)
	}

	adjusted, err := domain.AdjustRecord(sample, shade)
	if err != nil {
		return domain.OutputRecord{}, err
	}

	return domain.EncodeAdjusted(adjusted)
}
