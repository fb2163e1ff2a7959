package build

// Framework-protected files carry semantic meaning to the upstream runtime
// and must survive the pipeline with their original names untouched: never
// renamed, never chunked, never a key in the rename map or the chunk graph.
const (
	ProtectedServiceWorker = "flutter_service_worker.js"
	ProtectedManifest      = "manifest.json"
	ProtectedVersion       = "version.json"

	// EntryPoint is the markup entry point. It is protected against chunking
	// unconditionally, and against minification only when the inject stage
	// also runs (inject performs the final minify pass itself).
	EntryPoint = "index.html"
)

var protectedNames = map[string]struct{}{
	ProtectedServiceWorker: {},
	ProtectedManifest:      {},
	ProtectedVersion:       {},
}

// IsProtected reports whether name is one of the fixed framework-protected
// filenames (service worker, manifest, version file). index.html is
// deliberately excluded here: it has narrower, stage-dependent protection
// handled by the chunk stage's eligibility check and the minify stage's
// SkipEntryPoint setting rather than a blanket rename guard.
func IsProtected(name string) bool {
	_, ok := protectedNames[name]
	return ok
}
