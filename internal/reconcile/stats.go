package reconcile

import "go.uber.org/zap"

// Stats counts decisions by outcome.
type Stats struct {
	Total     int `yaml:"total"`
	Created   int `yaml:"created"`
	Updated   int `yaml:"updated"`
	Skipped   int `yaml:"skipped"`
	Ambiguous int `yaml:"ambiguous"`
	InPlace   int `yaml:"in_place"`

	// EleInjected counts updates that gained an ele tag.
	EleInjected int `yaml:"ele_injected"`
}

// Add records one decision.
func (s *Stats) Add(d Decision) {
	s.Total++
	switch d.Kind {
	case Create:
		s.Created++
	case Update:
		s.Updated++
		if d.Node != nil && len(d.Tags) > len(d.Node.Tags) {
			s.EleInjected++
		}
	case Skip:
		s.Skipped++
		switch d.Reason {
		case ReasonAmbiguous:
			s.Ambiguous++
		case ReasonInPlace:
			s.InPlace++
		}
	}
}

// Tally returns the stats for a slice of decisions.
func Tally(decisions []Decision) Stats {
	var s Stats
	for _, d := range decisions {
		s.Add(d)
	}
	return s
}

// Fields renders the stats as log fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("total", s.Total),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("skipped", s.Skipped),
		zap.Int("ambiguous", s.Ambiguous),
		zap.Int("in_place", s.InPlace),
		zap.Int("ele_injected", s.EleInjected),
	}
}
