package reconcile

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/peaksync/internal/config"
)

// NameMatcher decides whether a map node's name identifies the same feature
// as a survey record's name.
type NameMatcher func(surveyName, mapName string) bool

// ExactName is case-sensitive byte equality.
func ExactName(surveyName, mapName string) bool {
	return surveyName == mapName
}

// FoldedName compares names ignoring case, diacritics and runs of whitespace,
// so "Mount Pinos" matches "mount  piños".
func FoldedName(surveyName, mapName string) bool {
	return foldName(surveyName) == foldName(mapName)
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// MatcherFor returns the matcher configured by match.name_compare.
func MatcherFor(mode string) (NameMatcher, error) {
	switch mode {
	case "", config.NameCompareExact:
		return ExactName, nil
	case config.NameCompareFolded:
		return FoldedName, nil
	default:
		return nil, eris.Errorf("reconcile: unknown name comparison %q", mode)
	}
}
