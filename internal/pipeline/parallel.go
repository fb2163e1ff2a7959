package pipeline

import "runtime"

// parallelLimit resolves the build.parallel_jobs config knob: 0 means "use
// every available core".
func parallelLimit(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}
