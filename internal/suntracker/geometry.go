package suntracker

import (
	"fmt"
	"math"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

// Geometry describes one blume and the ground footprint it shades.
// Linear dimensions share one unit (the defaults are feet); only the
// shadow-to-footprint ratio matters.
type Geometry struct {
	PanelHeight    float64 // panel dimension along the tilt axis
	PanelWidth     float64 // panel dimension across the tilt axis
	TiltDeg        float64 // panel angle to horizontal
	MaxRotationDeg float64 // rotation limit about the vertical axis, from south
	NSSpacing      float64 // north-south distance between blume centres
	EWSpacing      float64 // east-west distance between blume centres
}

// DefaultGeometry matches the reference blume installation.
func DefaultGeometry() Geometry {
	return Geometry{
		PanelHeight:    22.3,
		PanelWidth:     18.3,
		TiltDeg:        35,
		MaxRotationDeg: 45,
		NSSpacing:      36,
		EWSpacing:      36,
	}
}

// GroundArea is the footprint around a single blume.
func (g Geometry) GroundArea() float64 { return g.NSSpacing * g.EWSpacing }

// Validate rejects dimensions that make the shadow projection meaningless.
func (g Geometry) Validate() error {
	if g.PanelHeight <= 0 || g.PanelWidth <= 0 {
		return fmt.Errorf("%w: panel dimensions %gx%g must be positive",
			domain.ErrInvalidInput, g.PanelHeight, g.PanelWidth)
	}
	if g.NSSpacing <= 0 || g.EWSpacing <= 0 {
		return fmt.Errorf("%w: blume spacing %gx%g must be positive",
			domain.ErrInvalidInput, g.NSSpacing, g.EWSpacing)
	}
	if g.TiltDeg < 0 || g.TiltDeg >= 90 {
		return fmt.Errorf("%w: tilt %g outside [0,90)", domain.ErrInvalidInput, g.TiltDeg)
	}
	if g.MaxRotationDeg < 0 || g.MaxRotationDeg > 180 {
		return fmt.Errorf("%w: max rotation %g outside [0,180]", domain.ErrInvalidInput, g.MaxRotationDeg)
	}
	return nil
}

// shadowArea projects the tilted panel along the sun direction.
// azimuthSouthDeg and blumeAzimuthDeg are measured from south; the tracker
// has already been rotated to blumeAzimuthDeg.
func (g Geometry) shadowArea(elevationDeg, azimuthSouthDeg, blumeAzimuthDeg float64) float64 {
	cosTilt := math.Cos(radians(g.TiltDeg))
	tanElev := math.Tan(radians(elevationDeg))

	heightBottom := g.PanelWidth - (g.PanelHeight/2)*cosTilt
	heightTop := g.PanelWidth + (g.PanelHeight/2)*cosTilt
	length := heightTop/tanElev - heightBottom/tanElev + g.PanelHeight*cosTilt
	width := g.PanelWidth * math.Cos(radians(blumeAzimuthDeg-azimuthSouthDeg))

	return length * width
}

// Coverage returns the fraction of the ground footprint shaded for a solar
// elevation and azimuth (degrees, azimuth clockwise from north). The result
// is capped to [0,1]: the shadow cannot cover more than the footprint, and
// a tracker lagging more than 90° behind the sun casts no shade into it.
func (g Geometry) Coverage(elevationDeg, azimuthDeg float64) float64 {
	azSouth := 180 - azimuthDeg
	blumeAz := clamp(azSouth, -g.MaxRotationDeg, g.MaxRotationDeg)

	area := g.shadowArea(elevationDeg, azSouth, blumeAz)
	return clamp(area/g.GroundArea(), 0, 1)
}
