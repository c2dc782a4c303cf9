package osmdata

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func pointEWKB(t *testing.T, lon, lat float64) []byte {
	t.Helper()
	b, err := ewkb.Marshal(geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326), ewkb.NDR)
	require.NoError(t, err)
	return b
}

func TestLoadPostGIS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"osm_id", "tags", "way"}).
		AddRow(int64(358788711), `{"name":"Mount Whitney","natural":"peak","osm_version":"7","osm_user":"someone"}`, pointEWKB(t, -118.292, 36.5786)).
		AddRow(int64(358788712), `{"natural":"peak","ele":"4000","osm_version":"1"}`, pointEWKB(t, -118.3, 36.6))
	mock.ExpectQuery(`SELECT osm_id`).WillReturnRows(rows)

	nodes, err := LoadPostGIS(context.Background(), mock, "planet_osm_point")
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	n := nodes[0]
	assert.Equal(t, int64(358788711), n.ID)
	assert.Equal(t, 7, n.Version)
	assert.Equal(t, Tags{{Key: "name", Value: "Mount Whitney"}, {Key: "natural", Value: "peak"}}, n.Tags)
	lat, lon, ok := n.LatLon()
	require.True(t, ok)
	assert.InDelta(t, 36.5786, lat, 1e-9)
	assert.InDelta(t, -118.292, lon, 1e-9)

	assert.Equal(t, Tags{{Key: "ele", Value: "4000"}, {Key: "natural", Value: "peak"}}, nodes[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPostGIS_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "osm"."points"`).WillReturnError(errors.New("relation does not exist"))

	_, err = LoadPostGIS(context.Background(), mock, "osm.points")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeFromRow(t *testing.T) {
	n, err := nodeFromRow(3, `{"natural":"peak"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n.Version)
	_, _, ok := n.LatLon()
	assert.False(t, ok)

	_, err = nodeFromRow(3, `not json`, nil)
	assert.Error(t, err)

	_, err = nodeFromRow(3, `{"osm_version":"seven"}`, nil)
	assert.Error(t, err)

	line, err := ewkb.Marshal(geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}), ewkb.NDR)
	require.NoError(t, err)
	_, err = nodeFromRow(3, `{}`, line)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want point")
}
