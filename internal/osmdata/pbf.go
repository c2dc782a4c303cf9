package osmdata

import (
	"context"
	"io"
	"runtime"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadPBF decodes an OSM PBF extract and returns its peak nodes in file order.
// Ways and relations are skipped.
func ReadPBF(ctx context.Context, r io.Reader) ([]*Node, error) {
	scanner := osmpbf.New(ctx, r, runtime.GOMAXPROCS(-1))
	defer scanner.Close() //nolint:errcheck

	scanner.SkipWays = true
	scanner.SkipRelations = true

	var (
		nodes   []*Node
		scanned int
	)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		scanned++
		if n.Tags.Find(TagNatural) != ValuePeak {
			continue
		}
		nodes = append(nodes, fromOSMNode(n))
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "osmdata: scan pbf")
	}

	zap.L().Debug("osmdata: read pbf",
		zap.String("component", "osmdata"),
		zap.Int("scanned", scanned),
		zap.Int("peaks", len(nodes)),
	)

	return nodes, nil
}

// fromOSMNode copies a decoded node into the local model, preserving tag order.
func fromOSMNode(n *osm.Node) *Node {
	tags := make(Tags, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, Tag{Key: t.Key, Value: t.Value})
	}
	return NewNode(int64(n.ID), n.Version, n.Lat, n.Lon, tags)
}
