// Package report writes the human-facing outputs of a run: a GeoJSON layer of
// every decision for review in a GIS viewer and a YAML run summary.
package report

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/peaksync/internal/reconcile"
)

// Feature builds the GeoJSON feature for one decision. The geometry is the
// survey position; an Update also carries the matched node's position.
func Feature(d reconcile.Decision) *geojson.Feature {
	props := map[string]any{
		"name":        d.Peak.Name,
		"decision":    d.Kind.String(),
		"ordinal":     d.Ordinal,
		"elevation_m": d.Peak.RoundedElevation(),
		"candidates":  d.Candidates,
	}

	var g geom.T = geom.NewPointFlat(geom.XY, []float64{d.Peak.Lon, d.Peak.Lat})

	switch d.Kind {
	case reconcile.Create:
		props["id"] = d.ID
	case reconcile.Update:
		props["id"] = d.ID
		props["version"] = d.Version
		props["distance_m"] = d.Distance
	case reconcile.Skip:
		props["reason"] = d.Reason
	}

	if d.Node != nil {
		props["node_id"] = d.Node.ID
		if lat, lon, ok := d.Node.LatLon(); ok {
			g = geom.NewLineStringFlat(geom.XY, []float64{d.Peak.Lon, d.Peak.Lat, lon, lat})
		}
	}

	if len(d.Tags) > 0 {
		tags := make(map[string]string, len(d.Tags))
		for _, t := range d.Tags {
			tags[t.Key] = t.Value
		}
		props["tags"] = tags
	}

	return &geojson.Feature{
		ID:         strconv.Itoa(d.Ordinal),
		Geometry:   g,
		Properties: props,
	}
}

// WriteGeoJSON writes decisions as a FeatureCollection in input order.
func WriteGeoJSON(w io.Writer, decisions []reconcile.Decision) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(decisions))}
	for _, d := range decisions {
		fc.Features = append(fc.Features, Feature(d))
	}

	b, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "report: marshal geojson")
	}
	if _, err := w.Write(b); err != nil {
		return eris.Wrap(err, "report: write geojson")
	}
	return nil
}
