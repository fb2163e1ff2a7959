package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/chrysalis-build/chrysalis/internal/build"
)

// State is a point in the pipeline's state machine.
type State int

const (
	// StateScanned is the state immediately after the scanner populates ctx.
	StateScanned State = iota
	StateMinifying
	StateChunking
	StateHashing
	StateInjecting
	// StateReported is reached once every enabled stage has returned
	// successfully.
	StateReported
	// StateAborted is reached the moment any stage returns an error; stats
	// accumulated up to that point remain readable.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateScanned:
		return "Scanned"
	case StateMinifying:
		return "Minifying"
	case StateChunking:
		return "Chunking"
	case StateHashing:
		return "Hashing"
	case StateInjecting:
		return "Injecting"
	case StateReported:
		return "Reported"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Driver runs stages in the fixed order minify -> chunk -> hash -> inject,
// skipping any stage whose own Enabled flag is false, and aborting on the
// first error without retry.
type Driver struct {
	stages []Stage
	log    *logrus.Entry

	state State
}

// NewDriver builds a driver over the fixed minify/chunk/hash/inject
// sequence. Pass nil for a stage to skip it outright (as opposed to a stage
// whose own Enabled flag is false, which still runs and no-ops; both are
// supported so callers can omit a stage whose prerequisites weren't met,
// e.g. inject without chunk).
func NewDriver(log *logrus.Logger, minifyStage, chunkStage, hashStage, injectStage Stage) *Driver {
	var stages []Stage
	for _, st := range []Stage{minifyStage, chunkStage, hashStage, injectStage} {
		if st != nil {
			stages = append(stages, st)
		}
	}
	return &Driver{stages: stages, log: log.WithField("component", "driver"), state: StateScanned}
}

// State returns the driver's current position in the state machine.
func (d *Driver) State() State { return d.state }

var stageState = map[string]State{
	"minify": StateMinifying,
	"chunk":  StateChunking,
	"hash":   StateHashing,
	"inject": StateInjecting,
}

// Run executes every configured stage in order against ctx, stopping at the
// first error. The returned error, if any, is already a *build.Error with a
// Kind identifying which category of failure occurred.
func (d *Driver) Run(ctx *build.Context) error {
	for _, stage := range d.stages {
		if next, ok := stageState[stage.Name()]; ok {
			d.state = next
		}
		d.log.WithField("stage", stage.Name()).Debug("running stage")

		if err := stage.Run(ctx); err != nil {
			d.state = StateAborted
			d.log.WithField("stage", stage.Name()).WithError(err).Error("stage failed, aborting")
			return err
		}
	}

	ctx.Stats().TotalFiles = len(ctx.Files())
	d.state = StateReported
	d.log.WithField("summary", ctx.Stats().Summary()).Info("pipeline complete")
	return nil
}
