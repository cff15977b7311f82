package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldLabel reduces a label to a comparison form: case folded, accents
// stripped, punctuation dropped and whitespace collapsed. "Barva " and "barva"
// fold to the same value; so do "Velikost/Size" and "velikost size".
func FoldLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, label)
	if err != nil {
		stripped = label
	}
	folded := cases.Fold().String(stripped)
	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// LabelSet is a set of folded labels.
type LabelSet map[string]struct{}

func NewLabelSet(labels ...string) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

func (s LabelSet) Add(label string) {
	if f := FoldLabel(label); f != "" {
		s[f] = struct{}{}
	}
}

// Contains reports whether label folds to a member of the set.
func (s LabelSet) Contains(label string) bool {
	f := FoldLabel(label)
	if f == "" {
		return false
	}
	_, ok := s[f]
	return ok
}
