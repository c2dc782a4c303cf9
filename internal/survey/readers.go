package survey

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/fetcher"
)

// Survey file formats understood by LoadFile.
const (
	FormatDelimited = "delimited"
	FormatXLSX      = "xlsx"
	FormatShapefile = "shapefile"
)

// Options tunes the survey readers.
type Options struct {
	Format    string // empty = detect from extension
	Delimiter rune   // delimited text only; default '|'
	Sheet     string // xlsx only; empty = first sheet
}

// DetectFormat guesses the survey format from a file name.
func DetectFormat(path string) (string, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".psv"),
		strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".dat"):
		return FormatDelimited, nil
	case strings.HasSuffix(lower, ".xlsx"):
		return FormatXLSX, nil
	case strings.HasSuffix(lower, ".shp"):
		return FormatShapefile, nil
	default:
		return "", eris.Errorf("survey: cannot detect format of %q", path)
	}
}

// LoadFile reads every survey record from path and returns them sorted by
// name. Any malformed record fails the whole load.
func LoadFile(ctx context.Context, path string, opts Options) ([]Peak, error) {
	format := opts.Format
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	var (
		peaks []Peak
		err   error
	)
	switch format {
	case FormatDelimited:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "survey: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		peaks, err = ReadDelimited(ctx, f, opts.Delimiter)
	case FormatXLSX:
		peaks, err = ReadXLSX(path, opts.Sheet)
	case FormatShapefile:
		peaks, err = ReadShapefile(path)
	default:
		return nil, eris.Errorf("survey: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}

	SortByName(peaks)

	zap.L().Info("survey: loaded peaks",
		zap.String("component", "survey"),
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("peaks", len(peaks)),
	)

	return peaks, nil
}

// ReadDelimited parses header-less name|lat|lon|ele_ft text. A zero
// delimiter means '|'.
func ReadDelimited(ctx context.Context, r io.Reader, delimiter rune) ([]Peak, error) {
	if delimiter == 0 {
		delimiter = '|'
	}
	rows, err := fetcher.CollectCSV(fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		Delimiter:       delimiter,
		FieldsPerRecord: -1,
		LazyQuotes:      true,
	}))
	if err != nil {
		return nil, eris.Wrap(err, "survey: read delimited")
	}
	return fromRecords(rows)
}

// ReadXLSX parses a spreadsheet with the same four columns and no header.
func ReadXLSX(path, sheet string) ([]Peak, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheet})
	if err != nil {
		return nil, eris.Wrap(err, "survey: read xlsx")
	}
	return fromRecords(rows)
}

// Shapefile attribute names tried, in order, for the name and elevation columns.
var (
	shpNameFields = []string{"name", "feature_na", "feat_name"}
	shpElevFields = []string{"elev", "elev_ft", "elev_in_ft", "elevation"}
)

// ReadShapefile parses a point shapefile whose attributes carry the peak name
// and elevation in feet. Non-point shapes are rejected.
func ReadShapefile(path string) ([]Peak, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "survey: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	nameIdx := firstField(fieldIdx, shpNameFields)
	elevIdx := firstField(fieldIdx, shpElevFields)
	if nameIdx < 0 || elevIdx < 0 {
		return nil, eris.Errorf("survey: shapefile %s needs name and elevation fields", path)
	}

	var peaks []Peak
	for reader.Next() {
		n, shape := reader.Shape()
		line := n + 1

		pt, ok := shape.(*shp.Point)
		if !ok {
			return nil, eris.Wrapf(ErrMalformedRow, "record %d: shape %T is not a point", line, shape)
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		elev := strings.TrimSpace(strings.TrimRight(reader.Attribute(elevIdx), "\x00"))

		eleFeet, err := strconv.ParseFloat(elev, 64)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformedRow, "record %d: elevation %q", line, elev)
		}
		p, err := newPeak(line, name, pt.Y, pt.X, eleFeet)
		if err != nil {
			return nil, err
		}
		peaks = append(peaks, p)
	}

	return peaks, nil
}

func firstField(idx map[string]int, candidates []string) int {
	for _, c := range candidates {
		if i, ok := idx[c]; ok {
			return i
		}
	}
	return -1
}
