package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobToRegexp(t *testing.T) {
	for _, test := range []struct {
		in, out, error string
	}{
		{"", `(^|/)$`, ""},
		{"potato", `(^|/)potato$`, ""},
		{"/potato", `^potato$`, ""},
		{"potato?sausage", `(^|/)potato[^/]sausage$`, ""},
		{"potat[oa]", `(^|/)potat[oa]$`, ""},
		{"potat[a-z]or", `(^|/)potat[a-z]or$`, ""},
		{"potat[[:alpha:]]or", `(^|/)potat[[:alpha:]]or$`, ""},
		{"*.jpg", `(^|/)[^/]*\.jpg$`, ""},
		{"a{b,c,d}e", `(^|/)a(b|c|d)e$`, ""},
		{"potato**", `(^|/)potato.*$`, ""},
		{"potato**sausage", `(^|/)potato.*sausage$`, ""},
		{"*.p[lm]", `(^|/)[^/]*\.p[lm]$`, ""},
		{`[\[\]]`, `(^|/)[\[\]]$`, ""},
		{"***potato", "", "too many stars"},
		{"***", "", "too many stars"},
		{"ab]c", "", "mismatched ']'"},
		{"ab[c", "", "mismatched '[' and ']'"},
		{"ab{{cd", "", "can't nest"},
		{"ab{}}cd", "", "mismatched '{' and '}'"},
		{"ab}c", "", "mismatched '{' and '}'"},
		{"ab{c", "", "mismatched '{' and '}'"},
		{"*.{jpg,png,gif}", `(^|/)[^/]*\.(jpg|png|gif)$`, ""},
		{"a\\*b", `(^|/)a\*b$`, ""},
		{"a\\\\b", `(^|/)a\\b$`, ""},
		{"potato,sausage", `(^|/)potato,sausage$`, ""},
		{".", `(^|/)\.$`, ""},
		{"+", `(^|/)\+$`, ""},
		{"(", `(^|/)\($`, ""},
		{")", `(^|/)\)$`, ""},
		{"|", `(^|/)\|$`, ""},
		{"^", `(^|/)\^$`, ""},
		{"$", `(^|/)\$$`, ""},
	} {
		got, err := GlobToRegexp(test.in, false)
		if test.error != "" {
			require.Error(t, err, test.in)
			assert.Contains(t, err.Error(), test.error, test.in)
			assert.Nil(t, got, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.NotNil(t, got)
		assert.Equal(t, test.out, got.String(), test.in)
	}
}

func TestGlobToRegexpBadBracketRange(t *testing.T) {
	got, err := GlobToRegexp("[a--b]", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad glob pattern")
	assert.Nil(t, got)
}

func TestGlobToRegexpIgnoreCase(t *testing.T) {
	re, err := GlobToRegexp("*.JS", true)
	require.NoError(t, err)
	assert.True(t, re.MatchString("main.js"))
	assert.True(t, re.MatchString("main.JS"))
}

func TestMatcherIncludedExcluded(t *testing.T) {
	m, err := NewMatcher([]string{"*.js", "*.css"}, []string{"*.map"})
	require.NoError(t, err)

	assert.True(t, m.Included("main.dart.js"))
	assert.True(t, m.Included("style.css"))
	assert.False(t, m.Included("main.dart.js.map"), "excluded wins over included")
	assert.False(t, m.Included("readme.txt"), "not in include list")

	assert.True(t, m.Excluded("app.js.map"))
	assert.False(t, m.Excluded("app.js"))
}
