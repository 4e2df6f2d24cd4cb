package suntracker

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuri/uiprogress"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

// Simulate computes one mean daytime shade fraction per day of the year for
// a field under the given tracker geometry. Records come back in calendar
// order, one per day.
//
// showProgress renders a terminal progress bar over the year, for the
// interactive CLI; batch callers pass false.
func Simulate(ctx context.Context, field domain.Field, year int, g Geometry, showProgress bool) ([]domain.ShadeRecord, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if year <= 0 {
		return nil, fmt.Errorf("%w: year %d", domain.ErrInvalidInput, year)
	}

	start := domain.Date{Year: year, Month: time.January, Day: 1}
	end := domain.Date{Year: year + 1, Month: time.January, Day: 1}
	totalDays := int(end.Time().Sub(start.Time()).Hours() / 24)

	var bar *uiprogress.Bar
	if showProgress {
		progress := uiprogress.New()
		progress.Start()
		defer progress.Stop()
		bar = progress.AddBar(totalDays).AppendCompleted().PrependElapsed()
	}

	records := make([]domain.ShadeRecord, 0, totalDays)
	for d := start; d.Before(end); d = d.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("shade simulation cancelled: %w", ctx.Err())
		default:
		}

		records = append(records, domain.ShadeRecord{
			FieldID:  field.ID,
			Date:     d,
			Fraction: dailyShade(field.Lat, field.Lon, d, g),
		})
		if bar != nil {
			bar.Incr()
		}
	}
	return records, nil
}

// dailyShade averages hourly ground coverage between sunrise and sunset.
// During polar night there is no radiance to block, so the shade is 0.
func dailyShade(lat, lon float64, d domain.Date, g Geometry) float64 {
	sunrise, sunset, ok := daylightWindow(lat, lon, d)
	if !ok {
		return 0
	}

	// Round sunrise up and sunset down to whole minutes so the sampled
	// instants always fall inside the daylight window.
	if trunc := sunrise.Truncate(time.Minute); !trunc.Equal(sunrise) {
		sunrise = trunc.Add(time.Minute)
	}
	sunset = sunset.Truncate(time.Minute)

	var total float64
	var n int
	for tm := sunrise; !tm.After(sunset); tm = tm.Add(time.Hour) {
		elev, az := position(lat, lon, tm)
		total += g.Coverage(apparentElevation(elev), az)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
