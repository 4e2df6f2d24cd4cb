package domain

import (
	"fmt"
	"math"
	"sort"
)

// MissingPolicy decides what happens when an ET record has no matching
// shade record. The choice is always explicit configuration; there is no
// implicit default-to-zero.
type MissingPolicy string

const (
	// MissingReject fails the record (and in batch mode the whole run).
	MissingReject MissingPolicy = "reject"
	// MissingSkip drops the record and counts it.
	MissingSkip MissingPolicy = "skip"
)

// ParseMissingPolicy validates a policy string from configuration.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case MissingReject, MissingSkip:
		return MissingPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: missing-shade policy %q (want %q or %q)",
			ErrInvalidInput, s, MissingReject, MissingSkip)
	}
}

type shadeKey struct {
	fieldID string
	date    Date
}

// ShadeTable holds shade records keyed by (field, day). Records are
// validated on insert so every lookup result is already in range.
type ShadeTable struct {
	entries map[shadeKey]ShadeRecord
}

// NewShadeTable returns an empty table.
func NewShadeTable() *ShadeTable {
	return &ShadeTable{entries: make(map[shadeKey]ShadeRecord)}
}

// Add validates and inserts a record. Duplicate (field, day) keys are
// rejected; two shade values for the same day can only disagree.
func (t *ShadeTable) Add(rec ShadeRecord) error {
	if rec.FieldID == "" {
		return fmt.Errorf("%w: shade record with empty field id", ErrInvalidInput)
	}
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: shade record for %s with no date", ErrInvalidInput, rec.FieldID)
	}
	if math.IsNaN(rec.Fraction) || rec.Fraction < 0 || rec.Fraction > 1 {
		return fmt.Errorf("%w: shade fraction %g for %s/%s outside [0,1]",
			ErrInvalidInput, rec.Fraction, rec.FieldID, rec.Date)
	}
	key := shadeKey{fieldID: rec.FieldID, date: rec.Date}
	if _, ok := t.entries[key]; ok {
		return fmt.Errorf("%w: duplicate shade record for %s/%s", ErrInvalidInput, rec.FieldID, rec.Date)
	}
	t.entries[key] = rec
	return nil
}

// Lookup returns the shade record for a field and day, if present.
func (t *ShadeTable) Lookup(fieldID string, date Date) (ShadeRecord, bool) {
	rec, ok := t.entries[shadeKey{fieldID: fieldID, date: date}]
	return rec, ok
}

// Len returns the number of records in the table.
func (t *ShadeTable) Len() int { return len(t.entries) }

// FieldIDs returns the distinct field IDs present, sorted.
func (t *ShadeTable) FieldIDs() []string {
	seen := make(map[string]bool)
	for k := range t.entries {
		seen[k.fieldID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns every record in the table, ordered by field ID then date.
func (t *ShadeTable) Records() []ShadeRecord {
	recs := make([]ShadeRecord, 0, len(t.entries))
	for _, rec := range t.entries {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].FieldID != recs[j].FieldID {
			return recs[i].FieldID < recs[j].FieldID
		}
		return recs[i].Date.Before(recs[j].Date)
	})
	return recs
}

// AdjustAll joins ET records against the table and adjusts each match.
// It returns the adjusted records in input order and the number of records
// skipped under MissingSkip. Under MissingReject the first miss aborts with
// ErrMissingShade; invalid values abort under either policy.
func (t *ShadeTable) AdjustAll(recs []ETRecord, policy MissingPolicy) ([]AdjustedETRecord, int, error) {
	if _, err := ParseMissingPolicy(string(policy)); err != nil {
		return nil, 0, err
	}

	adjusted := make([]AdjustedETRecord, 0, len(recs))
	skipped := 0
	for _, et := range recs {
		shade, ok := t.Lookup(et.FieldID, et.Date)
		if !ok {
			if policy == MissingSkip {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("%w for %s/%s", ErrMissingShade, et.FieldID, et.Date)
		}
		rec, err := AdjustRecord(et, shade)
		if err != nil {
			return nil, skipped, err
		}
		adjusted = append(adjusted, rec)
	}
	return adjusted, skipped, nil
}
