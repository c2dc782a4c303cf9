package osmdata

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// File formats understood by LoadFile.
const (
	FormatPBF = "pbf"
	FormatXML = "xml"
)

// DetectFormat guesses the map file format from its name.
func DetectFormat(path string) (string, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".pbf"):
		return FormatPBF, nil
	case strings.HasSuffix(lower, ".osm"), strings.HasSuffix(lower, ".xml"):
		return FormatXML, nil
	default:
		return "", eris.Errorf("osmdata: cannot detect map format of %q", path)
	}
}

// LoadFile reads peak nodes from a local map file and validates them. An
// empty format is detected from the file name.
func LoadFile(ctx context.Context, path, format string) ([]*Node, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "osmdata: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var nodes []*Node
	switch format {
	case FormatPBF:
		nodes, err = ReadPBF(ctx, f)
	case FormatXML:
		nodes, err = ReadXML(ctx, f)
	default:
		return nil, eris.Errorf("osmdata: unknown map format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(nodes); err != nil {
		return nil, err
	}

	zap.L().Info("osmdata: loaded map peaks",
		zap.String("component", "osmdata"),
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("peaks", len(nodes)),
	)

	return nodes, nil
}
