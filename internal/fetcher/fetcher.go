// Package fetcher acquires remote survey and map sources over HTTP or FTP,
// unpacks ZIP archives, and streams delimited, spreadsheet and XML records.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether location is a URL that needs fetching rather
// than a local path.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ftp://")
}

// Set routes downloads to the fetcher matching the URL scheme.
type Set struct {
	HTTP Fetcher
	FTP  Fetcher
}

// For returns the fetcher for rawURL's scheme.
func (s Set) For(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if s.HTTP != nil {
			return s.HTTP, nil
		}
	case "ftp":
		if s.FTP != nil {
			return s.FTP, nil
		}
	}
	return nil, eris.Errorf("fetcher: no fetcher for scheme %q", u.Scheme)
}
