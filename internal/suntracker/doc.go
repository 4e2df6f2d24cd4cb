// Package suntracker simulates the daily shade cast on a field by a
// single-axis tracker ("blume") array.
//
// For each day of a year it walks hourly instants between sunrise and
// sunset, computes the apparent solar position (closed-form NOAA
// declination and hour angle, corrected for atmospheric refraction),
// projects the panel's shadow onto the ground footprint around one blume,
// and averages the hourly ground-coverage fractions into one shade value
// per day.
//
// The tracker rotates about its vertical axis to follow the solar azimuth,
// limited to ±MaxRotationDeg from south. Shadows from neighbouring blumes
// overlapping the footprint are not modelled, matching the stated
// one-significant-figure accuracy of the downstream adjustment.
package suntracker
