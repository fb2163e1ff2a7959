package build

import (
	"regexp"
	"strconv"
	"strings"
)

// hexHashRe matches a dot-segment that is exactly n lowercase-hex characters.
func hexHashRe(n int) *regexp.Regexp {
	return regexp.MustCompile(`^[0-9a-f]{` + strconv.Itoa(n) + `}$`)
}

// chunkSuffixRe matches a trailing ".chunkN" segment for any decimal N.
var chunkSuffixRe = regexp.MustCompile(`\.chunk[0-9]+$`)

// AddHash inserts hash as a dot-segment before the extension:
// "stem.ext" -> "stem.hash.ext". A name with no extension gets the hash
// appended directly: "stem" -> "stem.hash". A name carrying a ".chunkN"
// segment keeps that segment last: "stem.chunk0.ext" ->
// "stem.hash.chunk0.ext", so a hashed chunk file still round-trips through
// GetOriginal (which strips ".chunkN" first, then the hash).
func AddHash(name, hash string) string {
	stem, ext := splitExt(name)
	if suffix := chunkSuffixRe.FindString(stem); suffix != "" {
		base := strings.TrimSuffix(stem, suffix)
		return base + "." + hash + suffix + ext
	}
	if ext == "" {
		return stem + "." + hash
	}
	return stem + "." + hash + ext
}

// AddChunkSuffix inserts ".chunkN" immediately before the extension:
// "stem.ext" -> "stem.chunkN.ext".
func AddChunkSuffix(name string, index int) string {
	stem, ext := splitExt(name)
	return stem + ".chunk" + strconv.Itoa(index) + ext
}

// ExtractHash returns the hash embedded in name if its penultimate
// dot-segment is exactly hashLength lowercase-hex characters, and ok=false
// otherwise. hashLength must match the configured hash_length consistently
// with the rest of the pipeline; callers that don't know the expected length
// ahead of time should use HasAnyHash instead.
func ExtractHash(name string, hashLength int) (hash string, ok bool) {
	stem, _ := splitExt(name)
	stem = chunkSuffixRe.ReplaceAllString(stem, "")
	parts := strings.Split(stem, ".")
	if len(parts) < 2 {
		return "", false
	}
	last := parts[len(parts)-1]
	if hexHashRe(hashLength).MatchString(last) {
		return last, true
	}
	return "", false
}

// HasAnyHash reports whether name carries an embedded hex hash of any length
// from 1 to 32, without requiring the caller to know the exact configured
// length.
func HasAnyHash(name string) bool {
	stem, _ := splitExt(name)
	stem = chunkSuffixRe.ReplaceAllString(stem, "")
	parts := strings.Split(stem, ".")
	if len(parts) < 2 {
		return false
	}
	last := parts[len(parts)-1]
	return hexHashRe(len(last)).MatchString(last) && len(last) >= 1 && len(last) <= 32
}

// GetOriginal strips a trailing ".chunkN" segment (if present) and then a
// trailing hex-hash segment of hashLength (if present), returning the name
// as it would have appeared before the pipeline touched it.
func GetOriginal(name string, hashLength int) string {
	stem, ext := splitExt(name)
	stem = chunkSuffixRe.ReplaceAllString(stem, "")

	parts := strings.Split(stem, ".")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if hexHashRe(hashLength).MatchString(last) {
			stem = strings.Join(parts[:len(parts)-1], ".")
		}
	}
	return stem + ext
}

// splitExt splits name into its stem and its final extension (including the
// leading dot), treating everything before the last dot as the stem. A name
// with no dot has an empty extension.
func splitExt(name string) (stem, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
