package suntracker

import (
	"math"
	"time"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

// sunriseZenithDeg is the solar zenith at sunrise/sunset: 90° plus
// refraction plus the solar disc radius.
const sunriseZenithDeg = 90.833

// daylightWindow returns sunrise and sunset (UTC) for a day at the given
// location. ok is false during polar night; during midnight sun the window
// spans the whole day.
func daylightWindow(lat, lon float64, d domain.Date) (sunrise, sunset time.Time, ok bool) {
	dayStart := d.Time()
	noonGuess := dayStart.Add(12 * time.Hour)
	decl, eqTime := solarBasis(noonGuess)

	cosHA := math.Cos(radians(sunriseZenithDeg))/(math.Cos(radians(lat))*math.Cos(radians(decl))) -
		math.Tan(radians(lat))*math.Tan(radians(decl))
	switch {
	case cosHA > 1:
		// Sun never rises.
		return time.Time{}, time.Time{}, false
	case cosHA < -1:
		// Sun never sets.
		return dayStart, dayStart.Add(24*time.Hour - time.Minute), true
	}

	haDeg := degrees(math.Acos(cosHA))
	noonMin := 720 - 4*lon - eqTime
	riseMin := noonMin - 4*haDeg
	setMin := noonMin + 4*haDeg

	sunrise = dayStart.Add(time.Duration(riseMin * float64(time.Minute)))
	sunset = dayStart.Add(time.Duration(setMin * float64(time.Minute)))
	return sunrise, sunset, true
}
