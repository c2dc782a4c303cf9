package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/projection"
	"github.com/sells-group/peaksync/internal/spatial"
	"github.com/sells-group/peaksync/internal/survey"
)

const defaultRadius = 300.0

func peakNode(id int64, version int, lat, lon float64, tags ...osmdata.Tag) *osmdata.Node {
	return osmdata.NewNode(id, version, lat, lon, osmdata.Tags(tags))
}

func tag(k, v string) osmdata.Tag {
	return osmdata.Tag{Key: k, Value: v}
}

func newTestResolver(t *testing.T, nodes []*osmdata.Node, opts Options) *Resolver {
	t.Helper()
	proj, err := projection.New(11, false)
	require.NoError(t, err)
	idx, err := spatial.FromNodes(proj, nodes)
	require.NoError(t, err)
	if opts.Radius == 0 {
		opts.Radius = defaultRadius
	}
	r, err := NewResolver(idx, proj, opts)
	require.NoError(t, err)
	return r
}

func TestResolve_WhitneyUpdateInjectsElevation(t *testing.T) {
	node := peakNode(358788711, 7, 36.5786, -118.2920,
		tag("name", "Mount Whitney"),
		tag("natural", "peak"),
		tag("wikidata", "Q49140"),
	)
	r := newTestResolver(t, []*osmdata.Node{node}, Options{})

	d := r.Resolve(0, survey.Peak{Name: "Mount Whitney", Lat: 36.5786, Lon: -118.2920, Elevation: 14505 * survey.FeetToMeters})
	require.Equal(t, Update, d.Kind)
	assert.Equal(t, int64(358788711), d.ID)
	assert.Equal(t, 7, d.Version)
	assert.Same(t, node, d.Node)
	assert.InDelta(t, 0, d.Distance, 1e-6)
	assert.Equal(t, osmdata.Tags{
		tag("name", "Mount Whitney"),
		tag("natural", "peak"),
		tag("wikidata", "Q49140"),
		tag("ele", "4421"),
	}, d.Tags)

	// The loaded node is untouched.
	assert.Len(t, node.Tags, 3)
}

func TestResolve_UpdateNeverOverwritesElevation(t *testing.T) {
	node := peakNode(10, 2, 37.0, -118.5, tag("natural", "peak"), tag("ele", "4400"), tag("name", "Mount X"))
	r := newTestResolver(t, []*osmdata.Node{node}, Options{})

	d := r.Resolve(0, survey.Peak{Name: "Mount X", Lat: 37.0005, Lon: -118.5, Elevation: 1350})
	require.Equal(t, Update, d.Kind)
	v, ok := d.Tags.Find("ele")
	require.True(t, ok)
	assert.Equal(t, "4400", v)
	assert.Len(t, d.Tags, 3)
	assert.InDelta(t, 55.5, d.Distance, 1.0)
}

func TestResolve_AmbiguousSkip(t *testing.T) {
	nodes := []*osmdata.Node{
		peakNode(1, 1, 37.0000, -118.5000, tag("name", "Mount X")),
		peakNode(2, 1, 37.0010, -118.5000, tag("name", "Mount X")),
	}
	r := newTestResolver(t, nodes, Options{})

	d := r.Resolve(4, survey.Peak{Name: "Mount X", Lat: 37.0005, Lon: -118.5})
	assert.Equal(t, Skip, d.Kind)
	assert.Equal(t, ReasonAmbiguous, d.Reason)
	assert.Equal(t, 2, d.Candidates)
	assert.Nil(t, d.Tags)
	assert.Zero(t, d.ID)
}

func TestResolve_NameFilter(t *testing.T) {
	nodes := []*osmdata.Node{
		peakNode(1, 1, 37.0000, -118.5000, tag("name", "Mount X")),
		peakNode(2, 1, 37.0001, -118.5000, tag("name", "Mount Y")),
		peakNode(3, 1, 37.0002, -118.5000),
	}
	r := newTestResolver(t, nodes, Options{})

	d := r.Resolve(0, survey.Peak{Name: "Mount X", Lat: 37.0, Lon: -118.5})
	require.Equal(t, Update, d.Kind)
	assert.Equal(t, int64(1), d.ID)

	// Case differs, so no match under exact comparison.
	d = r.Resolve(1, survey.Peak{Name: "mount x", Lat: 37.0, Lon: -118.5, Elevation: 1000})
	require.Equal(t, Create, d.Kind)
	assert.Equal(t, int64(-2), d.ID)
}

func TestResolve_CreateFreshTags(t *testing.T) {
	far := peakNode(1, 1, 37.0100, -118.5000, tag("name", "Lone Peak"))
	r := newTestResolver(t, []*osmdata.Node{far}, Options{})

	d := r.Resolve(0, survey.Peak{Name: "Lone Peak", Lat: 37.0, Lon: -118.5, Elevation: 2999.5})
	require.Equal(t, Create, d.Kind)
	assert.Equal(t, int64(-1), d.ID)
	assert.Nil(t, d.Node)
	assert.Equal(t, osmdata.Tags{
		tag("name", "Lone Peak"),
		tag("ele", "3000"),
		tag("natural", "peak"),
	}, d.Tags)
}

func TestResolve_RadiusIsConfigurable(t *testing.T) {
	// Roughly 222 m north of the survey point.
	node := peakNode(1, 1, 37.0020, -118.5, tag("name", "Mount X"))
	p := survey.Peak{Name: "Mount X", Lat: 37.0, Lon: -118.5}

	r := newTestResolver(t, []*osmdata.Node{node}, Options{Radius: 300})
	assert.Equal(t, Update, r.Resolve(0, p).Kind)

	r = newTestResolver(t, []*osmdata.Node{node}, Options{Radius: 100})
	assert.Equal(t, Create, r.Resolve(0, p).Kind)
}

func TestResolve_MinDistance(t *testing.T) {
	node := peakNode(1, 1, 37.0, -118.5, tag("name", "Mount X"))
	p := survey.Peak{Name: "Mount X", Lat: 37.0, Lon: -118.5}

	r := newTestResolver(t, []*osmdata.Node{node}, Options{MinDistance: 75})
	d := r.Resolve(0, p)
	assert.Equal(t, Skip, d.Kind)
	assert.Equal(t, ReasonInPlace, d.Reason)
	assert.Same(t, node, d.Node)

	p.Lat = 37.001
	d = r.Resolve(0, p)
	assert.Equal(t, Update, d.Kind)
}

func TestResolve_FoldedNames(t *testing.T) {
	node := peakNode(1, 1, 37.0, -118.5, tag("name", "Cerro  Piños"))
	r := newTestResolver(t, []*osmdata.Node{node}, Options{Match: FoldedName})

	d := r.Resolve(0, survey.Peak{Name: "cerro pinos", Lat: 37.0, Lon: -118.5})
	assert.Equal(t, Update, d.Kind)
}

func TestResolve_NodesWithoutPositionNeverMatch(t *testing.T) {
	nowhere := &osmdata.Node{ID: 9, Version: 1, Tags: osmdata.Tags{tag("name", "Ghost Peak")}}
	r := newTestResolver(t, []*osmdata.Node{nowhere}, Options{})

	d := r.Resolve(0, survey.Peak{Name: "Ghost Peak", Lat: 0, Lon: -117})
	assert.Equal(t, Create, d.Kind)
}

func TestDecisions_OnePerRecordDistinctIDs(t *testing.T) {
	nodes := []*osmdata.Node{
		peakNode(100, 3, 37.0, -118.5, tag("name", "B")),
		peakNode(101, 1, 37.1, -118.5, tag("name", "D")),
		peakNode(102, 1, 37.1001, -118.5, tag("name", "D")),
	}
	r := newTestResolver(t, nodes, Options{})

	peaks := []survey.Peak{
		{Name: "A", Lat: 36.0, Lon: -118.0},
		{Name: "B", Lat: 37.0, Lon: -118.5},
		{Name: "C", Lat: 36.1, Lon: -118.0},
		{Name: "D", Lat: 37.1, Lon: -118.5},
		{Name: "E", Lat: 36.2, Lon: -118.0},
		{Name: "E", Lat: 36.2, Lon: -118.0},
	}
	decisions := r.ResolveAll(peaks)
	require.Len(t, decisions, len(peaks))

	seen := map[int64]bool{}
	for i, d := range decisions {
		assert.Equal(t, i, d.Ordinal)
		assert.Equal(t, peaks[i], d.Peak)
		if d.Kind == Create {
			assert.Negative(t, d.ID)
			assert.False(t, seen[d.ID], "duplicate synthetic id %d", d.ID)
			seen[d.ID] = true
		}
	}
	assert.Equal(t, []Kind{Create, Update, Create, Skip, Create, Create},
		[]Kind{decisions[0].Kind, decisions[1].Kind, decisions[2].Kind, decisions[3].Kind, decisions[4].Kind, decisions[5].Kind})

	stats := Tally(decisions)
	assert.Equal(t, Stats{Total: 6, Created: 4, Updated: 1, Skipped: 1, Ambiguous: 1, EleInjected: 1}, stats)
}

func TestDecisions_LogsSkipWithComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	nodes := []*osmdata.Node{
		peakNode(1, 1, 37.0000, -118.5000, tag("name", "Mount X")),
		peakNode(2, 1, 37.0010, -118.5000, tag("name", "Mount X")),
	}
	r := newTestResolver(t, nodes, Options{})
	r.ResolveAll([]survey.Peak{{Name: "Mount X", Lat: 37.0005, Lon: -118.5, Elevation: 1}})

	skips := logs.FilterMessage("reconcile: skipping peak").All()
	require.Len(t, skips, 1)
	assert.Equal(t, zapcore.InfoLevel, skips[0].Level)
	fields := skips[0].ContextMap()
	assert.Equal(t, "reconcile", fields["component"])
	assert.Equal(t, "Mount X", fields["name"])
	assert.Equal(t, int64(2), fields["candidates"])

	built := logs.FilterMessage("spatial: index built").All()
	require.Len(t, built, 1)
	assert.Equal(t, "spatial", built[0].ContextMap()["component"])
}

func TestDecisions_StopsEarly(t *testing.T) {
	r := newTestResolver(t, nil, Options{})
	peaks := []survey.Peak{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	n := 0
	for range r.Decisions(peaks) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestNewResolver_Validation(t *testing.T) {
	proj, err := projection.New(11, false)
	require.NoError(t, err)
	idx := spatial.NewBuilder(0).Build()

	_, err = NewResolver(idx, proj, Options{Radius: 0})
	assert.Error(t, err)
	_, err = NewResolver(idx, proj, Options{Radius: -5})
	assert.Error(t, err)
	_, err = NewResolver(idx, proj, Options{Radius: 300, MinDistance: -1})
	assert.Error(t, err)
	_, err = NewResolver(nil, proj, Options{Radius: 300})
	assert.Error(t, err)
	_, err = NewResolver(idx, proj, Options{Radius: 300})
	assert.NoError(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "create", Create.String())
	assert.Equal(t, "update", Update.String())
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
