// Package osmdata holds the crowd-sourced map model and the loaders that read
// peak nodes from PBF extracts, OSM XML files and osm2pgsql databases.
package osmdata

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Well-known tag keys and values.
const (
	TagName      = "name"
	TagElevation = "ele"
	TagNatural   = "natural"
	ValuePeak    = "peak"
)

// Load validation sentinels.
var (
	ErrInvalidID      = eris.New("osmdata: node id must be positive")
	ErrMissingVersion = eris.New("osmdata: node has no version")
	ErrDuplicateTag   = eris.New("osmdata: duplicate tag key")
)

// Tag is a single key/value attribute.
type Tag struct {
	Key   string
	Value string
}

// Tags is an ordered tag set. Keys are unique once a node passes Validate.
type Tags []Tag

// Find returns the value for key and whether it was present.
func (t Tags) Find(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (t Tags) Has(key string) bool {
	_, ok := t.Find(key)
	return ok
}

// Clone returns a copy that can be extended without touching t.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t), len(t)+1)
	copy(out, t)
	return out
}

// IsPeak reports whether the tags classify a feature as a peak.
func (t Tags) IsPeak() bool {
	v, ok := t.Find(TagNatural)
	return ok && v == ValuePeak
}

// Node is a map-database point feature. Nodes are shared read-only between
// the spatial index and the resolver and are never mutated after loading.
type Node struct {
	ID      int64
	Version int
	Tags    Tags

	// Position is nil when the source carried no coordinates. Layout is XY
	// with X = longitude and Y = latitude.
	Position *geom.Point
}

// NewNode builds a node with a known position.
func NewNode(id int64, version int, lat, lon float64, tags Tags) *Node {
	return &Node{
		ID:       id,
		Version:  version,
		Tags:     tags,
		Position: geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326),
	}
}

// LatLon returns the node's coordinates, or ok=false when it has none.
func (n *Node) LatLon() (lat, lon float64, ok bool) {
	if n.Position == nil || len(n.Position.FlatCoords()) < 2 {
		return 0, 0, false
	}
	return n.Position.Y(), n.Position.X(), true
}

// Name returns the node's name tag, or "" when absent.
func (n *Node) Name() string {
	v, _ := n.Tags.Find(TagName)
	return v
}

// Validate checks preconditions the resolver relies on, so that a bad input
// fails the load instead of the match. Non-positive ids belong to unsaved
// editor nodes and would collide with the ids given to created peaks.
func Validate(nodes []*Node) error {
	for _, n := range nodes {
		if n.ID <= 0 {
			return eris.Wrapf(ErrInvalidID, "node %d", n.ID)
		}
		if n.Version <= 0 {
			return eris.Wrapf(ErrMissingVersion, "node %d", n.ID)
		}
		seen := make(map[string]struct{}, len(n.Tags))
		for _, tag := range n.Tags {
			if _, dup := seen[tag.Key]; dup {
				return eris.Wrapf(ErrDuplicateTag, "node %d key %q", n.ID, tag.Key)
			}
			seen[tag.Key] = struct{}{}
		}
	}
	return nil
}

// Stats summarises a loaded map dataset.
type Stats struct {
	Nodes         int
	WithPosition  int
	WithElevation int
}

// Summarize counts nodes by the attributes the resolver cares about.
func Summarize(nodes []*Node) Stats {
	s := Stats{Nodes: len(nodes)}
	for _, n := range nodes {
		if _, _, ok := n.LatLon(); ok {
			s.WithPosition++
		}
		if n.Tags.Has(TagElevation) {
			s.WithElevation++
		}
	}
	return s
}
