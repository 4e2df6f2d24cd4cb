package domain

import "context"

// ETSource provides the daily unshaded ET series for a field and year.
// Implementations include the OpenET API client and CSV file readers.
type ETSource interface {
	DailyET(ctx context.Context, field Field, year int) ([]ETRecord, error)
}
