package geometry

import (
	"math"

	"mindmaps/diagram"
)

// Sector is one of eight 45° direction buckets, centred on the cardinal and
// diagonal directions.
type Sector int

const (
	SectorEast Sector = iota
	SectorSouthEast
	SectorSouth
	SectorSouthWest
	SectorWest
	SectorNorthWest
	SectorNorth
	SectorNorthEast
)

// String returns the string representation of a Sector.
func (s Sector) String() string {
	switch s {
	case SectorEast:
		return "east"
	case SectorSouthEast:
		return "southeast"
	case SectorSouth:
		return "south"
	case SectorSouthWest:
		return "southwest"
	case SectorWest:
		return "west"
	case SectorNorthWest:
		return "northwest"
	case SectorNorth:
		return "north"
	case SectorNorthEast:
		return "northeast"
	default:
		return "unknown"
	}
}

// SectorOf classifies an angle in degrees.
func SectorOf(angle float64) Sector {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return Sector(int(math.Floor((a+22.5)/45)) % 8)
}

// Winding is the side a curve bows towards, seen along its travel direction.
type Winding int

const (
	Clockwise        Winding = 1
	CounterClockwise Winding = -1
)

// String returns the string representation of a Winding.
func (w Winding) String() string {
	if w == CounterClockwise {
		return "counterclockwise"
	}
	return "clockwise"
}

type sectorStyle struct {
	intensity float64
	winding   Winding
}

// Opposite sectors share an intensity and wind in opposite directions, so
// A→B and B→A bow to the same side of the line and never cross each other.
var sectorStyles = [8]sectorStyle{
	SectorEast:      {0.30, Clockwise},
	SectorSouthEast: {0.40, Clockwise},
	SectorSouth:     {0.25, Clockwise},
	SectorSouthWest: {0.45, Clockwise},
	SectorWest:      {0.30, CounterClockwise},
	SectorNorthWest: {0.40, CounterClockwise},
	SectorNorth:     {0.25, CounterClockwise},
	SectorNorthEast: {0.45, CounterClockwise},
}

// SectorDefaults returns the default curvature intensity and winding of a sector.
func SectorDefaults(s Sector) (float64, Winding) {
	st := sectorStyles[((s%8)+8)%8]
	return st.intensity, st.winding
}

// Resolve returns the curvature a connection is drawn with. Adaptive
// connections follow the sector defaults; the others use their explicit
// curvature and direction where set.
func Resolve(conn diagram.Connection, s Sector) (float64, Winding) {
	intensity, winding := SectorDefaults(s)
	if conn.IsAdaptive() {
		return intensity, winding
	}
	if conn.Curvature != nil && diagram.IsFinite(*conn.Curvature) {
		intensity = Clamp(*conn.Curvature, 0, 1)
	}
	switch conn.CurvatureDirection {
	case diagram.CurvatureClockwise:
		winding = Clockwise
	case diagram.CurvatureCounterClockwise:
		winding = CounterClockwise
	}
	return intensity, winding
}
