package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldLabel(t *testing.T) {
	cases := map[string]string{
		"Barva ":         "barva",
		"ČERVENÁ":        "cervena",
		"Velikost/Size":  "velikost size",
		"  a -- b  ":     "a b",
		"!!!":            "",
		"Model 3 (2024)": "model 3 2024",
	}
	for in, want := range cases {
		require.Equal(t, want, FoldLabel(in), "FoldLabel(%q)", in)
	}
}

func TestLabelSet(t *testing.T) {
	s := NewLabelSet("Color", "", "  ")
	require.Len(t, s, 1)
	require.True(t, s.Contains("COLOR"))
	require.True(t, s.Contains(" colór "))
	require.False(t, s.Contains("colour"))
	require.False(t, s.Contains("?"))
}
