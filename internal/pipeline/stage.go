// Package pipeline drives the fixed-order stage sequence (minify, chunk,
// hash, inject) over a build.Context.
package pipeline

import "github.com/chrysalis-build/chrysalis/internal/build"

// Stage is one pluggable phase of the pipeline. Implementations hold
// exclusive access to ctx for the duration of Run and must leave it in a
// consistent state even on error (Run returning an error aborts the whole
// driver run).
type Stage interface {
	// Name identifies the stage in logs and in State transition reporting.
	Name() string
	// Run executes the stage against ctx.
	Run(ctx *build.Context) error
}
