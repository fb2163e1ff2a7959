// Package cli holds setup helpers shared by the cobra front-end, kept out
// of package main so they stay testable.
package cli

import "github.com/sirupsen/logrus"

// NewLogger builds a logrus.Logger: warn by default, info under --verbose,
// debug under --debug.
func NewLogger(verbose, debug bool) *logrus.Logger {
	log := logrus.New()
	switch {
	case debug:
		log.SetLevel(logrus.DebugLevel)
	case verbose:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
