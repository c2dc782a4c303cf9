// Package survey loads the authoritative peak list. Elevations are converted
// from feet to metres as each record is read.
package survey

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/peaksync/internal/fetcher"
)

// FeetToMeters converts survey elevations, which are published in feet.
const FeetToMeters = 0.3048

// ErrMalformedRow marks a survey row that cannot be turned into a Peak.
var ErrMalformedRow = eris.New("survey: malformed row")

// Peak is one survey record. Name is not guaranteed to be unique.
type Peak struct {
	Name      string
	Lat       float64
	Lon       float64
	Elevation float64 // metres
}

// RoundedElevation returns the elevation rounded to the nearest whole metre.
func (p Peak) RoundedElevation() int {
	return int(math.Round(p.Elevation))
}

// SortByName orders peaks by name, keeping input order among equal names so
// output is reproducible run to run.
func SortByName(peaks []Peak) {
	slices.SortStableFunc(peaks, func(a, b Peak) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// parseFields turns name, latitude, longitude and elevation-in-feet columns
// into a Peak. line is used for error reporting only.
func parseFields(line int, name, lat, lon, eleFeet string) (Peak, error) {
	latV, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: latitude %q", line, lat)
	}
	lonV, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: longitude %q", line, lon)
	}
	ele, err := strconv.ParseFloat(strings.TrimSpace(eleFeet), 64)
	if err != nil {
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: elevation %q", line, eleFeet)
	}
	return newPeak(line, name, latV, lonV, ele)
}

// newPeak validates a record and converts its elevation to metres.
func newPeak(line int, name string, lat, lon, eleFeet float64) (Peak, error) {
	switch {
	case name == "":
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: empty name", line)
	case math.IsNaN(lat) || lat < -90 || lat > 90:
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: latitude %v outside [-90, 90]", line, lat)
	case math.IsNaN(lon) || lon < -180 || lon > 180:
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: longitude %v outside [-180, 180]", line, lon)
	case math.IsNaN(eleFeet) || math.IsInf(eleFeet, 0):
		return Peak{}, eris.Wrapf(ErrMalformedRow, "line %d: elevation %v", line, eleFeet)
	}

	return Peak{
		Name:      name,
		Lat:       lat,
		Lon:       lon,
		Elevation: eleFeet * FeetToMeters,
	}, nil
}

// fromRecords parses name|lat|lon|ele rows.
func fromRecords(rows []fetcher.Record) ([]Peak, error) {
	peaks := make([]Peak, 0, len(rows))
	for _, row := range rows {
		if len(row.Fields) != 4 {
			return nil, eris.Wrapf(ErrMalformedRow, "line %d: want 4 columns, got %d", row.Line, len(row.Fields))
		}
		p, err := parseFields(row.Line, row.Fields[0], row.Fields[1], row.Fields[2], row.Fields[3])
		if err != nil {
			return nil, err
		}
		peaks = append(peaks, p)
	}
	return peaks, nil
}
