package suntracker

import (
	"math"
	"time"
)

// minElevationDeg floors the apparent solar elevation so shadow lengths
// stay finite as the sun touches the horizon.
const minElevationDeg = 1e-10

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// julianCentury converts a UTC instant to Julian centuries since J2000.0.
func julianCentury(t time.Time) float64 {
	jd := float64(t.UTC().Unix())/86400.0 + 2440587.5
	return (jd - 2451545.0) / 36525.0
}

// solarBasis returns the solar declination (degrees) and the equation of
// time (minutes) for an instant, following the NOAA solar calculator
// formulation.
func solarBasis(t time.Time) (declinationDeg, eqTimeMin float64) {
	jc := julianCentury(t)

	meanLong := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360)
	meanAnom := 357.52911 + jc*(35999.05029-0.0001537*jc)
	eccent := 0.016708634 - jc*(0.000042037+0.0000001267*jc)

	eqOfCenter := math.Sin(radians(meanAnom))*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(radians(2*meanAnom))*(0.019993-0.000101*jc) +
		math.Sin(radians(3*meanAnom))*0.000289

	trueLong := meanLong + eqOfCenter
	appLong := trueLong - 0.00569 - 0.00478*math.Sin(radians(125.04-1934.136*jc))

	meanObliq := 23 + (26+(21.448-jc*(46.815+jc*(0.00059-jc*0.001813)))/60)/60
	obliq := meanObliq + 0.00256*math.Cos(radians(125.04-1934.136*jc))

	declinationDeg = degrees(math.Asin(math.Sin(radians(obliq)) * math.Sin(radians(appLong))))

	varY := math.Tan(radians(obliq / 2))
	varY *= varY
	eqTimeMin = 4 * degrees(varY*math.Sin(2*radians(meanLong))-
		2*eccent*math.Sin(radians(meanAnom))+
		4*eccent*varY*math.Sin(radians(meanAnom))*math.Cos(2*radians(meanLong))-
		0.5*varY*varY*math.Sin(4*radians(meanLong))-
		1.25*eccent*eccent*math.Sin(2*radians(meanAnom)))
	return declinationDeg, eqTimeMin
}

// position returns the geometric solar elevation and azimuth (degrees,
// azimuth clockwise from north) for a UTC instant at the given location.
// Longitude is east-positive.
func position(lat, lon float64, t time.Time) (elevationDeg, azimuthDeg float64) {
	decl, eqTime := solarBasis(t)

	u := t.UTC()
	minutes := float64(u.Hour())*60 + float64(u.Minute()) + float64(u.Second())/60
	trueSolarTime := math.Mod(minutes+eqTime+4*lon, 1440)
	if trueSolarTime < 0 {
		trueSolarTime += 1440
	}
	hourAngle := trueSolarTime/4 - 180
	if hourAngle < -180 {
		hourAngle += 360
	}

	cosZenith := math.Sin(radians(lat))*math.Sin(radians(decl)) +
		math.Cos(radians(lat))*math.Cos(radians(decl))*math.Cos(radians(hourAngle))
	cosZenith = clamp(cosZenith, -1, 1)
	zenith := degrees(math.Acos(cosZenith))
	elevationDeg = 90 - zenith

	denom := math.Cos(radians(lat)) * math.Sin(radians(zenith))
	if denom == 0 {
		// Sun directly overhead or observer at a pole; azimuth is degenerate.
		return elevationDeg, 180
	}
	azArg := clamp((math.Sin(radians(lat))*math.Cos(radians(zenith))-math.Sin(radians(decl)))/denom, -1, 1)
	if hourAngle > 0 {
		azimuthDeg = math.Mod(degrees(math.Acos(azArg))+180, 360)
	} else {
		azimuthDeg = math.Mod(540-degrees(math.Acos(azArg)), 360)
	}
	return elevationDeg, azimuthDeg
}

// refractionArcsec returns the atmospheric refraction correction in
// arcseconds for a geometric elevation, using the NOAA piecewise fit.
func refractionArcsec(elevationDeg float64) float64 {
	switch {
	case elevationDeg > 85:
		return 0
	case elevationDeg > 5:
		tanE := math.Tan(radians(elevationDeg))
		return 58.1/tanE - 0.07/math.Pow(tanE, 3) + 0.000086/math.Pow(tanE, 5)
	case elevationDeg > -0.575:
		return 1735 + elevationDeg*(-518.2+elevationDeg*(103.4+elevationDeg*(-12.79+elevationDeg*0.711)))
	default:
		return -20.772 / math.Tan(radians(elevationDeg))
	}
}

// apparentElevation applies the refraction correction and floors the result
// at a small positive angle.
func apparentElevation(elevationDeg float64) float64 {
	return math.Max(minElevationDeg, elevationDeg+refractionArcsec(elevationDeg)/3600)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
