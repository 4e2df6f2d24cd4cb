// Package domain models agrivoltaic evapotranspiration (ET) adjustment.
//
// # Data Sources
//
// ET values come from the OpenET raster dataset, queried per field location
// as a daily point timeseries (Ensemble model, gridMET reference, mm units).
// The upstream collector publishes each daily sample as flat JSON to the
// Kafka source topic; batch runs fetch the same data directly from the
// OpenET API or read a CSV export.
//
// Shade fractions describe the portion of solar radiance blocked from a
// field location by overhead single-axis trackers ("blumes"). They are
// either supplied externally as a shade-table CSV or simulated from tracker
// geometry by the suntracker package.
//
// # Units and Ranges
//
//	et_mm          depth of water in millimetres per day, never negative.
//	shade_fraction dimensionless, 0 (open field) through 1 (full shade).
//	date           civil day in UTC, "2006-01-02". Daily is the finest
//	               period the upstream datasets provide.
//
// # Adjustment Model
//
// The adjustment is linear in shade:
//
//	adjusted_et = et_mm * (1 - shade_fraction)
//
// The model assumes ET varies linearly with incident radiance and that the
// field carried no shade before the panels went in. Reflected light and
// shade dispersion are not modelled; accuracy is bounded to one significant
// figure. Out-of-range shade fractions are rejected rather than clamped,
// because clamping would mask upstream tracker-geometry errors.
//
// # Matching Policy
//
// Every ET record consumed must have a shade record for the same field and
// day. A missing match is a data-completeness error, never a silent zero.
// The handling of a miss is an explicit [MissingPolicy]: reject (fail the
// record) or skip (drop and count it). Annual aggregation sums whatever
// days are present; absent days contribute nothing and are visible through
// [AnnualAdjustedET.PeriodCount]. No imputation is performed.
package domain
