package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// rawSampleJSON is the flat JSON structure the collector publishes to the
// source topic, one message per field-day.
type rawSampleJSON struct {
	FieldID string  `json:"field_id"`
	Date    string  `json:"date"` // "2006-01-02"
	ETmm    float64 `json:"et_mm"`
}

// ParseRawSample deserializes a RawSample's value into an ETRecord.
// Malformed JSON, a bad date, an empty field ID, or a physically impossible
// ET value all fail fast with ErrInvalidInput semantics; a bad sample is
// never partially accepted.
func ParseRawSample(raw RawSample) (ETRecord, error) {
	var s rawSampleJSON
	if err := json.Unmarshal(raw.Value, &s); err != nil {
		return ETRecord{}, fmt.Errorf("parse raw sample: %w", err)
	}
	if s.FieldID == "" {
		return ETRecord{}, fmt.Errorf("parse raw sample: %w: empty field id", ErrInvalidInput)
	}
	date, err := ParseDate(s.Date)
	if err != nil {
		return ETRecord{}, fmt.Errorf("parse raw sample: %w", err)
	}
	if math.IsNaN(s.ETmm) || s.ETmm < 0 {
		return ETRecord{}, fmt.Errorf("parse raw sample: %w: et value %g mm", ErrInvalidInput, s.ETmm)
	}
	return ETRecord{FieldID: s.FieldID, Date: date, ETmm: s.ETmm}, nil
}

// EncodeAdjusted serializes an adjusted record for the sink topic, keyed by
// field and date so replays land on the same partition and downstream
// upserts stay idempotent.
func EncodeAdjusted(rec AdjustedETRecord) (OutputRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return OutputRecord{}, fmt.Errorf("serialize adjusted record: %w", err)
	}
	return OutputRecord{
		Key:   []byte(rec.FieldID + "|" + rec.Date.String()),
		Value: data,
		Headers: map[string]string{
			"field_id":     rec.FieldID,
			"processed_at": rec.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
