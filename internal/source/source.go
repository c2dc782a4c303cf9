// Package source turns a configured dataset location into a local file. A
// location is a local path or an http(s):// or ftp:// URL, and either may
// point at a ZIP archive.
package source

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/config"
	"github.com/sells-group/peaksync/internal/fetcher"
)

// Extensions accepted inside archives, per dataset.
var (
	SurveyExts = []string{".txt", ".psv", ".csv", ".dat", ".xlsx", ".shp"}
	MapExts    = []string{".pbf", ".osm", ".xml"}
)

// Resolver downloads and unpacks dataset locations into a working directory.
type Resolver struct {
	fetchers fetcher.Set
	tempDir  string

	// Refresh re-downloads remote files already present in tempDir.
	Refresh bool
}

// New returns a Resolver with HTTP and FTP fetchers configured from cfg.
func New(cfg config.FetchConfig) *Resolver {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	return NewWithFetchers(fetcher.Set{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.UserAgent,
			Timeout:      timeout,
			MaxRetries:   cfg.MaxRetries,
			RateLimiters: fetcher.DefaultRateLimiters(),
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout}),
	}, cfg.TempDir)
}

// NewWithFetchers returns a Resolver using the given fetchers.
func NewWithFetchers(fetchers fetcher.Set, tempDir string) *Resolver {
	return &Resolver{fetchers: fetchers, tempDir: tempDir}
}

// Resolve returns a local path for location. Remote files are downloaded into
// the working directory; archives are extracted and the first entry with one
// of exts is returned.
func (r *Resolver) Resolve(ctx context.Context, location string, exts []string) (string, error) {
	if location == "" {
		return "", eris.New("source: empty location")
	}

	local := location
	if fetcher.IsRemote(location) {
		downloaded, err := r.download(ctx, location)
		if err != nil {
			return "", err
		}
		local = downloaded
	} else if _, err := os.Stat(local); err != nil {
		return "", eris.Wrapf(err, "source: stat %s", local)
	}

	if !strings.EqualFold(filepath.Ext(local), ".zip") {
		return local, nil
	}
	return r.unpack(local, exts)
}

// Download fetches a remote location into the working directory and returns
// the local path. Local locations are returned unchanged.
func (r *Resolver) Download(ctx context.Context, location string) (string, error) {
	if !fetcher.IsRemote(location) {
		return location, nil
	}
	return r.download(ctx, location)
}

func (r *Resolver) download(ctx context.Context, location string) (string, error) {
	name, err := fileName(location)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "source: create %s", r.tempDir)
	}
	dest := filepath.Join(r.tempDir, name)

	if !r.Refresh {
		if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
			zap.L().Info("source: reusing download",
				zap.String("component", "source"),
				zap.String("url", location),
				zap.String("path", dest),
			)
			return dest, nil
		}
	}

	f, err := r.fetchers.For(location)
	if err != nil {
		return "", err
	}

	start := time.Now()
	n, err := f.DownloadToFile(ctx, location, dest)
	if err != nil {
		_ = os.Remove(dest)
		return "", eris.Wrapf(err, "source: download %s", location)
	}

	zap.L().Info("source: downloaded",
		zap.String("component", "source"),
		zap.String("url", location),
		zap.String("path", dest),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return dest, nil
}

func (r *Resolver) unpack(archive string, exts []string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(archive), filepath.Ext(archive))
	destDir := filepath.Join(r.tempDir, base)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "source: create %s", destDir)
	}

	files, err := fetcher.ExtractZIP(archive, destDir)
	if err != nil {
		return "", eris.Wrapf(err, "source: extract %s", archive)
	}
	found, err := fetcher.FindByExt(files, exts...)
	if err != nil {
		return "", eris.Wrapf(err, "source: %s", archive)
	}

	zap.L().Debug("source: extracted archive",
		zap.String("component", "source"),
		zap.String("archive", archive),
		zap.Int("files", len(files)),
		zap.String("selected", found),
	)
	return found, nil
}

// fileName derives a local file name from a URL path.
func fileName(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", eris.Wrap(err, "source: parse url")
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", eris.Errorf("source: cannot derive a file name from %q", location)
	}
	return name, nil
}
