package minify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSShrinksWhitespaceAndComments(t *testing.T) {
	src := []byte("function add(a, b) {\n  // sum two numbers\n  return a + b;\n}\n")
	out, err := JS(src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
}

func TestCSSShrinksWhitespace(t *testing.T) {
	src := []byte("body {\n  color:   red;\n  margin: 0px;\n}\n")
	out, err := CSS(src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
}

func TestHTMLShrinksWhitespace(t *testing.T) {
	src := []byte("<html>\n  <body>\n    <p>hi</p>\n  </body>\n</html>\n")
	out, err := HTML(src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
}

func TestJSONShrinksWhitespace(t *testing.T) {
	src := []byte(`{ "a" :  1,   "b" :  [1, 2, 3] }`)
	out, err := JSON(src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
}

func TestJSRejectsInvalidSyntax(t *testing.T) {
	_, err := JS([]byte("function (} {"))
	assert.Error(t, err)
}
