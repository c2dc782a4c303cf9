package osmdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdata/peaks.osm.pbf holds one dense-node block:
//
//	1001 v3 peak   Mount Whitney (ele 4421)
//	1002 v1 saddle Whitney-Russell Pass
//	1003 v2 peak   Mount Russell (name tag first)
//	1004 v1 untagged
const testPBF = "testdata/peaks.osm.pbf"

func TestReadPBF(t *testing.T) {
	f, err := os.Open(testPBF)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	nodes, err := ReadPBF(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	whitney := nodes[0]
	assert.Equal(t, int64(1001), whitney.ID)
	assert.Equal(t, 3, whitney.Version)
	assert.Equal(t, Tags{
		{Key: "natural", Value: "peak"},
		{Key: "name", Value: "Mount Whitney"},
		{Key: "ele", Value: "4421"},
	}, whitney.Tags)
	lat, lon, ok := whitney.LatLon()
	require.True(t, ok)
	assert.InDelta(t, 36.5786, lat, 1e-7)
	assert.InDelta(t, -118.2920, lon, 1e-7)

	russell := nodes[1]
	assert.Equal(t, int64(1003), russell.ID)
	assert.Equal(t, 2, russell.Version)
	assert.Equal(t, Tags{
		{Key: "name", Value: "Mount Russell"},
		{Key: "natural", Value: "peak"},
	}, russell.Tags)
	lat, lon, ok = russell.LatLon()
	require.True(t, ok)
	assert.InDelta(t, 36.59, lat, 1e-7)
	assert.InDelta(t, -118.287, lon, 1e-7)
}

func TestLoadFile_PBF(t *testing.T) {
	format, err := DetectFormat(testPBF)
	require.NoError(t, err)
	assert.Equal(t, FormatPBF, format)

	nodes, err := LoadFile(context.Background(), testPBF, "")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Mount Whitney", nodes[0].Name())
	assert.Equal(t, "Mount Russell", nodes[1].Name())
}

func TestReadPBF_Truncated(t *testing.T) {
	b, err := os.ReadFile(testPBF)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "short.osm.pbf")
	require.NoError(t, os.WriteFile(path, b[:len(b)-20], 0o644))

	_, err = LoadFile(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan pbf")
}
