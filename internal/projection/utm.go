// Package projection converts geodetic WGS84 coordinates to a planar UTM grid
// so that proximity can be measured with Euclidean distance.
package projection

import (
	"math"

	"github.com/rotisserie/eris"
)

// WGS84 ellipsoid and UTM grid constants.
const (
	semiMajorAxis = 6378137.0
	eccSquared    = 0.00669438
	scaleFactor   = 0.9996

	falseEasting        = 500000.0
	falseNorthingSouth  = 10000000.0
	zoneWidthDegrees    = 6.0
	firstZoneWestDegree = -180.0
)

var (
	e2    = eccSquared * eccSquared
	e3    = e2 * eccSquared
	eP2   = eccSquared / (1 - eccSquared)
	mLat1 = 1 - eccSquared/4 - 3*e2/64 - 5*e3/256
	mLat2 = 3*eccSquared/8 + 3*e2/32 + 45*e3/1024
	mLat3 = 15*e2/256 + 45*e3/1024
	mLat4 = 35 * e3 / 3072
)

// PlanarPoint is a projected position in metres. It carries no identity.
type PlanarPoint struct {
	Northing float64
	Easting  float64
}

// DistanceSquared returns the squared Euclidean distance between two points.
func (p PlanarPoint) DistanceSquared(q PlanarPoint) float64 {
	dn := p.Northing - q.Northing
	de := p.Easting - q.Easting
	return dn*dn + de*de
}

// Projector projects into one fixed UTM zone. The zone is configuration for a
// deployment region and is never derived from the input point, so points just
// outside the zone stay on the same grid as their neighbours.
type Projector struct {
	zone         int
	south        bool
	centralMerid float64
}

// New returns a Projector for the given UTM zone (1..60). South selects the
// southern-hemisphere false northing.
func New(zone int, south bool) (*Projector, error) {
	if zone < 1 || zone > 60 {
		return nil, eris.Errorf("projection: zone %d out of range 1..60", zone)
	}
	central := float64(zone-1)*zoneWidthDegrees + firstZoneWestDegree + zoneWidthDegrees/2
	return &Projector{
		zone:         zone,
		south:        south,
		centralMerid: central * math.Pi / 180,
	}, nil
}

// Zone returns the configured UTM zone number.
func (p *Projector) Zone() int { return p.zone }

// Project converts a latitude/longitude in degrees to a planar point.
//
// Callers must pass lat in [-90, 90] and lon in [-180, 180]; other input is
// not checked. The result is a pure function of the input.
func (p *Projector) Project(lat, lon float64) PlanarPoint {
	latRad := lat * math.Pi / 180
	latSin := math.Sin(latRad)
	latCos := math.Cos(latRad)

	latTan := latSin / latCos
	latTan2 := latTan * latTan
	latTan4 := latTan2 * latTan2

	lonRad := lon * math.Pi / 180

	n := semiMajorAxis / math.Sqrt(1-eccSquared*latSin*latSin)
	c := eP2 * latCos * latCos

	a := latCos * normalizeRadians(lonRad-p.centralMerid)
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	m := semiMajorAxis * (mLat1*latRad -
		mLat2*math.Sin(2*latRad) +
		mLat3*math.Sin(4*latRad) -
		mLat4*math.Sin(6*latRad))

	easting := scaleFactor*n*(a+
		a3/6*(1-latTan2+c)+
		a5/120*(5-18*latTan2+latTan4+72*c-58*eP2)) + falseEasting

	northing := scaleFactor * (m + n*latTan*(a2/2+
		a4/24*(5-latTan2+9*c+4*c*c)+
		a6/720*(61-58*latTan2+latTan4+600*c-330*eP2)))

	if p.south {
		northing += falseNorthingSouth
	}

	return PlanarPoint{Northing: northing, Easting: easting}
}

// normalizeRadians wraps an angle into [-pi, pi).
func normalizeRadians(v float64) float64 {
	r := math.Mod(v+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}
