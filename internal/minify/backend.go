// Package minify adapts github.com/tdewolff/minify's per-language minifiers
// behind a single narrow function type so the minify stage's dispatch stays
// backend-agnostic.
package minify

import (
	"bytes"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
)

// Backend is a pure byte-in/byte-out minifier for one language.
type Backend func(content []byte) ([]byte, error)

var m = newMinifier()

func newMinifier() *minify.M {
	mm := minify.New()
	mm.AddFunc("text/javascript", js.Minify)
	mm.AddFunc("text/css", css.Minify)
	mm.AddFunc("text/html", html.Minify)
	mm.AddFunc("application/json", json.Minify)
	return mm
}

// JS minifies JavaScript source.
func JS(content []byte) ([]byte, error) { return run("text/javascript", content) }

// CSS minifies stylesheet source.
func CSS(content []byte) ([]byte, error) { return run("text/css", content) }

// HTML minifies markup source.
func HTML(content []byte) ([]byte, error) { return run("text/html", content) }

// JSON minifies structured-data source.
func JSON(content []byte) ([]byte, error) { return run("application/json", content) }

func run(mediatype string, content []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := m.Minify(mediatype, &out, bytes.NewReader(content)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
