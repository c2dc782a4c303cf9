package reconcile

import (
	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/survey"
)

// Kind classifies a Decision.
type Kind int

// Decision kinds.
const (
	Create Kind = iota
	Update
	Skip
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Skip reasons.
const (
	ReasonAmbiguous = "ambiguous: multiple same-named peaks within search radius"
	ReasonInPlace   = "already in place: matched peak is within the minimum distance"
)

// Decision is the outcome for one survey record.
type Decision struct {
	Kind    Kind
	Ordinal int // position in the name-sorted survey sequence
	Peak    survey.Peak

	// ID is the synthetic negative id for Create and the node id for Update.
	ID int64

	// Version is the node's current version (Update only).
	Version int

	// Node is the matched map node for Update, and for an in-place Skip.
	Node *osmdata.Node

	// Distance is the planar distance to Node in metres.
	Distance float64

	// Tags is the output tag set for Create and Update. It never aliases
	// Node.Tags.
	Tags osmdata.Tags

	// Reason explains a Skip.
	Reason string

	// Candidates is the number of nearby nodes whose name matched.
	Candidates int
}

// SyntheticID returns the placeholder id for the ordinal-th survey record.
func SyntheticID(ordinal int) int64 {
	return -int64(ordinal) - 1
}
