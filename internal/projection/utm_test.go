package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zone11(t *testing.T) *Projector {
	t.Helper()
	p, err := New(11, false)
	require.NoError(t, err)
	return p
}

func TestNew_ZoneBounds(t *testing.T) {
	_, err := New(0, false)
	assert.Error(t, err)

	_, err = New(61, false)
	assert.Error(t, err)

	p, err := New(60, false)
	require.NoError(t, err)
	assert.Equal(t, 60, p.Zone())
}

func TestProject_CentralMeridianAtEquator(t *testing.T) {
	p := zone11(t)
	pt := p.Project(0, -117)
	assert.InDelta(t, 500000.0, pt.Easting, 1e-6)
	assert.InDelta(t, 0.0, pt.Northing, 1e-6)
}

func TestProject_MountWhitney(t *testing.T) {
	p := zone11(t)
	pt := p.Project(36.5786, -118.2920)
	assert.InDelta(t, 4048903.5, pt.Northing, 1.0)
	assert.InDelta(t, 384408.8, pt.Easting, 1.0)
}

func TestProject_Deterministic(t *testing.T) {
	p := zone11(t)
	a := p.Project(37.7459, -119.5332)
	b := p.Project(37.7459, -119.5332)
	assert.Equal(t, a, b)
}

func TestProject_SymmetricAboutCentralMeridian(t *testing.T) {
	p := zone11(t)
	west := p.Project(36.0, -118.0)
	east := p.Project(36.0, -116.0)
	assert.InDelta(t, 500000-west.Easting, east.Easting-500000, 1e-6)
	assert.InDelta(t, west.Northing, east.Northing, 1e-6)
}

func TestProject_LocallyMetric(t *testing.T) {
	p := zone11(t)
	a := p.Project(36.5786, -118.2920)
	b := p.Project(36.5796, -118.2920)
	// 0.001 degrees of latitude is roughly 111 metres.
	assert.InDelta(t, 111.0, math.Sqrt(a.DistanceSquared(b)), 1.0)
}

func TestProject_FixedZoneOutsideNominalBounds(t *testing.T) {
	p := zone11(t)
	// -124 lies in zone 10 but is still projected onto the zone 11 grid.
	pt := p.Project(40.0, -124.0)
	assert.Less(t, pt.Easting, 500000.0)
	assert.False(t, math.IsNaN(pt.Easting))
}

func TestProject_SouthernHemisphere(t *testing.T) {
	p, err := New(19, true)
	require.NoError(t, err)
	pt := p.Project(-32.6532, -70.0109)
	assert.Greater(t, pt.Northing, 0.0)
	assert.Less(t, pt.Northing, 10000000.0)
}

func TestDistanceSquared(t *testing.T) {
	a := PlanarPoint{Northing: 0, Easting: 0}
	b := PlanarPoint{Northing: 3, Easting: 4}
	assert.InDelta(t, 25.0, a.DistanceSquared(b), 1e-9)
	assert.InDelta(t, 25.0, b.DistanceSquared(a), 1e-9)
}
