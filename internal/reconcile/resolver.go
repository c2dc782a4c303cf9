// Package reconcile classifies each survey peak against the indexed map
// peaks as a create, an update or a skip.
package reconcile

import (
	"iter"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/projection"
	"github.com/sells-group/peaksync/internal/spatial"
	"github.com/sells-group/peaksync/internal/survey"
)

// Options holds the matching policy.
type Options struct {
	// Radius is the search radius in planar metres.
	Radius float64

	// MinDistance turns a unique match closer than this into a Skip. Zero
	// disables the check.
	MinDistance float64

	// Match compares names. Nil means ExactName.
	Match NameMatcher
}

// Resolver applies the matching policy against a built index. It holds no
// mutable state and is safe to share.
type Resolver struct {
	index       *spatial.Index
	proj        *projection.Projector
	radiusSq    float64
	minDistance float64
	match       NameMatcher
}

// NewResolver validates opts and returns a Resolver.
func NewResolver(index *spatial.Index, proj *projection.Projector, opts Options) (*Resolver, error) {
	if index == nil || proj == nil {
		return nil, eris.New("reconcile: index and projector are required")
	}
	if !(opts.Radius > 0) || math.IsInf(opts.Radius, 0) {
		return nil, eris.Errorf("reconcile: radius must be a positive number, got %v", opts.Radius)
	}
	if !(opts.MinDistance >= 0) {
		return nil, eris.Errorf("reconcile: min distance must be >= 0, got %v", opts.MinDistance)
	}
	match := opts.Match
	if match == nil {
		match = ExactName
	}
	return &Resolver{
		index:       index,
		proj:        proj,
		radiusSq:    opts.Radius * opts.Radius,
		minDistance: opts.MinDistance,
		match:       match,
	}, nil
}

// Resolve classifies one survey record. ordinal is its position in the run's
// survey sequence and determines the synthetic id of a Create.
func (r *Resolver) Resolve(ordinal int, p survey.Peak) Decision {
	d := Decision{Ordinal: ordinal, Peak: p}

	var matched []spatial.Candidate
	for _, c := range r.index.QueryWithin(r.proj.Project(p.Lat, p.Lon), r.radiusSq) {
		if r.match(p.Name, c.Node.Name()) {
			matched = append(matched, c)
		}
	}
	d.Candidates = len(matched)

	switch len(matched) {
	case 0:
		d.Kind = Create
		d.ID = SyntheticID(ordinal)
		d.Tags = osmdata.Tags{
			{Key: osmdata.TagName, Value: p.Name},
			{Key: osmdata.TagElevation, Value: strconv.Itoa(p.RoundedElevation())},
			{Key: osmdata.TagNatural, Value: osmdata.ValuePeak},
		}
	case 1:
		c := matched[0]
		d.Node = c.Node
		d.Distance = c.Distance()
		if r.minDistance > 0 && d.Distance < r.minDistance {
			d.Kind = Skip
			d.Reason = ReasonInPlace
			return d
		}
		d.Kind = Update
		d.ID = c.Node.ID
		d.Version = c.Node.Version
		d.Tags = c.Node.Tags.Clone()
		if !d.Tags.Has(osmdata.TagElevation) {
			d.Tags = append(d.Tags, osmdata.Tag{Key: osmdata.TagElevation, Value: strconv.Itoa(p.RoundedElevation())})
		}
	default:
		d.Kind = Skip
		d.Reason = ReasonAmbiguous
	}
	return d
}

// Decisions lazily resolves peaks in order, yielding exactly one Decision per
// record.
func (r *Resolver) Decisions(peaks []survey.Peak) iter.Seq[Decision] {
	return func(yield func(Decision) bool) {
		for i, p := range peaks {
			d := r.Resolve(i, p)
			if d.Kind == Skip {
				zap.L().Info("reconcile: skipping peak",
					zap.String("component", "reconcile"),
					zap.String("name", p.Name),
					zap.String("reason", d.Reason),
					zap.Int("candidates", d.Candidates),
				)
			} else {
				zap.L().Debug("reconcile: decision",
					zap.String("component", "reconcile"),
					zap.String("name", p.Name),
					zap.Stringer("kind", d.Kind),
					zap.Int64("id", d.ID),
					zap.Float64("distance", d.Distance),
				)
			}
			if !yield(d) {
				return
			}
		}
	}
}

// ResolveAll collects every decision.
func (r *Resolver) ResolveAll(peaks []survey.Peak) []Decision {
	out := make([]Decision, 0, len(peaks))
	for d := range r.Decisions(peaks) {
		out = append(out, d)
	}
	return out
}
