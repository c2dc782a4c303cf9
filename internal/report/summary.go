package report

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/reconcile"
)

// Summary describes one reconcile run.
type Summary struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	DurationMs int64     `yaml:"duration_ms"`
	DryRun     bool      `yaml:"dry_run"`

	Inputs Inputs `yaml:"inputs"`
	Policy Policy `yaml:"policy"`

	Survey    int             `yaml:"survey_peaks"`
	Map       MapCounts       `yaml:"map"`
	Decisions reconcile.Stats `yaml:"decisions"`
	Output    string          `yaml:"output,omitempty"`
}

// Inputs records where the data came from.
type Inputs struct {
	Survey string `yaml:"survey"`
	Map    string `yaml:"map"`
}

// Policy records the matching parameters in effect.
type Policy struct {
	Zone        int     `yaml:"zone"`
	South       bool    `yaml:"south,omitempty"`
	Radius      float64 `yaml:"radius"`
	NameCompare string  `yaml:"name_compare"`
	MinDistance float64 `yaml:"min_distance,omitempty"`
}

// MapCounts is the YAML form of osmdata.Stats.
type MapCounts struct {
	Nodes         int `yaml:"nodes"`
	WithPosition  int `yaml:"with_position"`
	WithElevation int `yaml:"with_elevation"`
}

// NewMapCounts converts loader stats.
func NewMapCounts(s osmdata.Stats) MapCounts {
	return MapCounts{Nodes: s.Nodes, WithPosition: s.WithPosition, WithElevation: s.WithElevation}
}

// WriteSummary encodes s as YAML.
func WriteSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "report: encode summary")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "report: close summary encoder")
	}
	return nil
}
