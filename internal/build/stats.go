package build

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Stats accumulates counters across every stage of a single pipeline run.
// All mutators are safe for concurrent use so the minify and hash stages can
// record per-file results from within a parallel errgroup.
type Stats struct {
	mu sync.Mutex

	started time.Time

	// BuildID identifies a single pipeline run; it is printed at the start of
	// Summary's output. Generated once per NewStats call.
	BuildID string

	TotalFiles    int
	MinifiedFiles int
	HashedFiles   int
	ChunkedFiles  int
	TotalChunks   int

	BytesSaved   uint64
	OriginalSize uint64
	FinalSize    uint64
}

// NewStats returns a Stats with its clock started and a fresh BuildID.
func NewStats() *Stats {
	return &Stats{started: time.Now(), BuildID: uuid.NewString()}
}

// Elapsed returns the time since NewStats was called.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.started)
}

// RecordMinification records one file shrinking from original to minified
// bytes, bumping MinifiedFiles and BytesSaved.
func (s *Stats) RecordMinification(original, minified int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MinifiedFiles++
	if original > minified {
		s.BytesSaved += uint64(original - minified)
	}
}

// RecordHash records one file having been renamed with an embedded digest.
func (s *Stats) RecordHash() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HashedFiles++
}

// RecordChunk records one file having been split into numChunks chunks.
func (s *Stats) RecordChunk(numChunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ChunkedFiles++
	s.TotalChunks += numChunks
}

// CompressionRatio returns the percentage of OriginalSize removed by the
// time FinalSize was recorded. Returns 0 when OriginalSize is 0.
func (s *Stats) CompressionRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compressionRatioLocked()
}

// Summary renders a one-line human-readable report suitable for CLI output.
func (s *Stats) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf(
		"[%s] %d files (%d minified, %d hashed, %d chunked into %d parts), saved %s (%.1f%%) in %s",
		s.BuildID, s.TotalFiles, s.MinifiedFiles, s.HashedFiles, s.ChunkedFiles, s.TotalChunks,
		humanize.Bytes(s.BytesSaved), s.compressionRatioLocked(), s.Elapsed().Round(time.Millisecond),
	)
}

func (s *Stats) compressionRatioLocked() float64 {
	if s.OriginalSize == 0 {
		return 0
	}
	var saved uint64
	if s.FinalSize < s.OriginalSize {
		saved = s.OriginalSize - s.FinalSize
	}
	return float64(saved) / float64(s.OriginalSize) * 100
}
