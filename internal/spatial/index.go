// Package spatial indexes map nodes by projected position for radius queries.
//
// An index is built in one phase and queried in another. A Builder collects
// entries; Build seals it and returns a read-only Index that may be shared
// with the resolver without locking.
package spatial

import (
	"cmp"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/projection"
)

// R-tree branching factors.
const (
	minChildren = 25
	maxChildren = 50
)

// pointTol gives indexed points a non-degenerate bounding box.
const pointTol = 1e-6

// Index errors. Both are fatal to a run.
var (
	ErrNonFinite = eris.New("spatial: non-finite planar point")
	ErrSealed    = eris.New("spatial: insert after build")
)

// entry is the rtreego.Spatial stored in the tree.
type entry struct {
	point projection.PlanarPoint
	node  *osmdata.Node
}

func (e *entry) Bounds() rtreego.Rect {
	return rtreego.Point{e.point.Northing, e.point.Easting}.ToRect(pointTol)
}

// Candidate is a node returned by a radius query with its exact squared
// planar distance from the query point.
type Candidate struct {
	DistSq float64
	Node   *osmdata.Node
}

// Distance returns the planar distance.
func (c Candidate) Distance() float64 {
	return math.Sqrt(c.DistSq)
}

// Builder accumulates entries for a new Index.
type Builder struct {
	entries []rtreego.Spatial
	sealed  bool
}

// NewBuilder returns a builder sized for capacity entries.
func NewBuilder(capacity int) *Builder {
	return &Builder{entries: make([]rtreego.Spatial, 0, max(capacity, 0))}
}

// Insert adds node at point. Two nodes at the same point are both kept.
func (b *Builder) Insert(point projection.PlanarPoint, node *osmdata.Node) error {
	if b.sealed {
		return ErrSealed
	}
	if !finite(point.Northing) || !finite(point.Easting) {
		return eris.Wrapf(ErrNonFinite, "node %d at (%v, %v)", node.ID, point.Northing, point.Easting)
	}
	b.entries = append(b.entries, &entry{point: point, node: node})
	return nil
}

// Len returns the number of entries inserted so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build bulk-loads the collected entries and seals the builder.
func (b *Builder) Build() *Index {
	b.sealed = true
	idx := &Index{
		tree: rtreego.NewTree(2, minChildren, maxChildren, b.entries...),
		size: len(b.entries),
	}
	b.entries = nil
	return idx
}

// Index is a read-only R-tree over planar points.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// Len returns the number of indexed nodes.
func (i *Index) Len() int {
	return i.size
}

// QueryWithin returns every indexed node whose squared distance to p is at
// most radiusSq. Results are ordered by distance, then node ID.
func (i *Index) QueryWithin(p projection.PlanarPoint, radiusSq float64) []Candidate {
	if i.size == 0 || radiusSq < 0 || math.IsNaN(radiusSq) {
		return nil
	}

	r := max(math.Sqrt(radiusSq), pointTol)
	box := rtreego.Point{p.Northing, p.Easting}.ToRect(r)

	var out []Candidate
	for _, s := range i.tree.SearchIntersect(box) {
		e := s.(*entry)
		d := p.DistanceSquared(e.point)
		if d <= radiusSq {
			out = append(out, Candidate{DistSq: d, Node: e.node})
		}
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(a.DistSq, b.DistSq); c != 0 {
			return c
		}
		return cmp.Compare(a.Node.ID, b.Node.ID)
	})
	return out
}

// FromNodes projects every node that has coordinates and builds an index over
// them. Nodes without a position are skipped and counted in the log.
func FromNodes(proj *projection.Projector, nodes []*osmdata.Node) (*Index, error) {
	located := 0
	for _, n := range nodes {
		if _, _, ok := n.LatLon(); ok {
			located++
		}
	}

	b := NewBuilder(located)
	for _, n := range nodes {
		lat, lon, ok := n.LatLon()
		if !ok {
			continue
		}
		if err := b.Insert(proj.Project(lat, lon), n); err != nil {
			return nil, err
		}
	}

	zap.L().Info("spatial: index built",
		zap.String("component", "spatial"),
		zap.Int("indexed", b.Len()),
		zap.Int("without_position", len(nodes)-located),
		zap.Int("zone", proj.Zone()),
	)

	return b.Build(), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
