package domain

import (
	"context"
	"fmt"
	"time"
)

// Date is a civil calendar day in UTC. The zero value is invalid.
// It is comparable and safe for use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil day containing t, interpreted in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// ParseDate parses a date in "2006-01-02" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// Before reports whether d falls before o.
func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

// After reports whether d falls after o.
func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

// Next returns the following day.
func (d Date) Next() Date { return DateOf(d.Time().AddDate(0, 0, 1)) }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// MarshalText implements encoding.TextMarshaler so dates serialize as
// "2006-01-02" in JSON and CSV.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Field identifies one field location under a tracker installation.
type Field struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the field ID and WGS-84 coordinate ranges.
func (f Field) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: empty field id", ErrInvalidInput)
	}
	if f.Lat < -90 || f.Lat > 90 {
		return fmt.Errorf("%w: latitude %g outside [-90,90]", ErrInvalidInput, f.Lat)
	}
	if f.Lon < -180 || f.Lon > 180 {
		return fmt.Errorf("%w: longitude %g outside [-180,180]", ErrInvalidInput, f.Lon)
	}
	return nil
}

// ShadeRecord is one externally supplied (or simulated) mean daytime shade
// fraction for a field and day. Immutable input.
type ShadeRecord struct {
	FieldID  string  `json:"field_id"`
	Date     Date    `json:"date"`
	Fraction float64 `json:"shade_fraction"`
}

// ETRecord is one daily unshaded ET value for a field, in mm. Immutable input.
type ETRecord struct {
	FieldID string  `json:"field_id"`
	Date    Date    `json:"date"`
	ETmm    float64 `json:"et_mm"`
}

// AdjustedETRecord pairs a matched (ETRecord, ShadeRecord) with the
// shade-adjusted ET value.
type AdjustedETRecord struct {
	FieldID       string    `json:"field_id"`
	Date          Date      `json:"date"`
	ETmm          float64   `json:"et_mm"`
	ShadeFraction float64   `json:"shade_fraction"`
	AdjustedETmm  float64   `json:"adjusted_et_mm"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// AnnualAdjustedET is the year total for one field. PeriodCount is the
// number of days that contributed; days absent from the input are excluded
// from the sums, not imputed.
type AnnualAdjustedET struct {
	FieldID           string  `json:"field_id"`
	Year              int     `json:"year"`
	TotalETmm         float64 `json:"total_et_mm"`
	TotalAdjustedETmm float64 `json:"total_adjusted_et_mm"`
	WaterSavedmm      float64 `json:"water_saved_mm"`
	PeriodCount       int     `json:"period_count"`
}

// RawSample represents an unprocessed message from the source topic.
type RawSample struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputRecord is the serialized form destined for the sink topic.
type OutputRecord struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
