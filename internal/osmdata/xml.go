package osmdata

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/fetcher"
)

type xmlTag struct {
	Key   string `xml:"k,attr"`
	Value string `xml:"v,attr"`
}

type xmlNode struct {
	ID      int64    `xml:"id,attr"`
	Version int      `xml:"version,attr"`
	Lat     *float64 `xml:"lat,attr"`
	Lon     *float64 `xml:"lon,attr"`
	Action  string   `xml:"action,attr"`
	Visible string   `xml:"visible,attr"`
	Tags    []xmlTag `xml:"tag"`
}

// ReadXML decodes an OSM XML document (.osm) and returns its peak nodes in
// document order. Nodes marked deleted are dropped; nodes without lat/lon are
// kept with no position.
func ReadXML(ctx context.Context, r io.Reader) ([]*Node, error) {
	nodeCh, errCh := fetcher.StreamXML[xmlNode](ctx, r, "node")

	var (
		nodes   []*Node
		scanned int
	)
	for xn := range nodeCh {
		scanned++
		if xn.Action == "delete" || xn.Visible == "false" {
			continue
		}

		tags := make(Tags, 0, len(xn.Tags))
		for _, t := range xn.Tags {
			tags = append(tags, Tag{Key: t.Key, Value: t.Value})
		}
		if !tags.IsPeak() {
			continue
		}

		n := &Node{ID: xn.ID, Version: xn.Version, Tags: tags}
		if xn.Lat != nil && xn.Lon != nil {
			n = NewNode(xn.ID, xn.Version, *xn.Lat, *xn.Lon, tags)
		}
		nodes = append(nodes, n)
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrap(err, "osmdata: read xml")
		}
	}

	zap.L().Debug("osmdata: read xml",
		zap.String("component", "osmdata"),
		zap.Int("scanned", scanned),
		zap.Int("peaks", len(nodes)),
	)

	return nodes, nil
}
