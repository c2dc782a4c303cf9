package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://download.geofabrik.de/north-america/us/california-latest.osm.pbf"))
	assert.True(t, IsRemote("HTTP://example.com/x"))
	assert.True(t, IsRemote("ftp://ftp.example.com/x.zip"))
	assert.False(t, IsRemote("/data/sierra.txt"))
	assert.False(t, IsRemote("sierra.txt"))
}

func TestSetFor(t *testing.T) {
	h := NewHTTPFetcher(HTTPOptions{})
	f := NewFTPFetcher(FTPOptions{})
	set := Set{HTTP: h, FTP: f}

	got, err := set.For("https://example.com/a")
	require.NoError(t, err)
	assert.Same(t, h, got)

	got, err = set.For("ftp://example.com/a")
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = set.For("s3://bucket/a")
	assert.Error(t, err)

	_, err = Set{}.For("https://example.com/a")
	assert.Error(t, err)
}
