// Package loader renders the two halves of the chunk-loading runtime: the
// stub that replaces a chunked script and the loader fragment spliced into
// the markup entry point by the inject stage. Both are plain Go string
// templates; neither has anything conditional enough to justify
// text/template.
package loader

import (
	"fmt"
	"strings"
)

// fileNameQuote is the exact quote character the stub's literal constant is
// generated with. PatchStubFileName relies on this being stable across a
// single build so the inject stage's substitution is a single string.Replace
// rather than a regexp.
const fileNameQuote = '\''

// Stub renders the loader-stub script that replaces a chunked script file.
// fileName is the stub's own current name, embedded as the single literal
// constant the inject stage later patches to the hashed parent name in one
// textual substitution.
func Stub(fileName string) string {
	return fmt.Sprintf(stubTemplate, fileNameDecl(fileName))
}

// fileNameDecl renders the literal declaration line alone, so both Stub and
// PatchStubFileName agree on its exact shape.
func fileNameDecl(fileName string) string {
	return fmt.Sprintf("const fileName = %c%s%c;", fileNameQuote, fileName, fileNameQuote)
}

// PatchStubFileName replaces the fileName literal inside a previously
// rendered stub, from oldName to newName. It returns the patched content and
// whether a substitution actually occurred (the caller treats "no match" as
// a warning, not a fatal error, since a hand-edited or already-patched stub
// shouldn't abort the pipeline).
func PatchStubFileName(stub, oldName, newName string) (patched string, changed bool) {
	oldDecl := fileNameDecl(oldName)
	newDecl := fileNameDecl(newName)
	patched = strings.ReplaceAll(stub, oldDecl, newDecl)
	return patched, patched != stub
}

const stubTemplate = `// Chrysalis chunked file stub
(async function() {
  %s
  const maxRetries = 3;
  let retryCount = 0;

  async function loadWithRetry() {
    try {
      if (!window.ChunkLoader || !window.ChunkLoader.manifest) {
        if (retryCount < maxRetries) {
          retryCount++;
          await new Promise(resolve => setTimeout(resolve, 100));
          return loadWithRetry();
        }
        throw new Error('ChunkLoader not available after ' + maxRetries + ' retries');
      }

      const chunks = window.ChunkLoader.manifest[fileName];
      if (!chunks || chunks.length === 0) {
        throw new Error('No chunks found in manifest for: ' + fileName);
      }

      const chunkData = await Promise.all(chunks.map(chunk => window.ChunkLoader.loadChunk(chunk)));

      const totalLength = chunkData.reduce((sum, data) => sum + data.length, 0);
      const merged = new Uint8Array(totalLength);
      let offset = 0;
      for (const data of chunkData) {
        merged.set(data, offset);
        offset += data.length;
      }

      const text = new TextDecoder().decode(merged);
      const script = document.createElement('script');
      script.textContent = text;
      document.head.appendChild(script);
    } catch (e) {
      console.error('[Chrysalis] Failed to load chunked file:', e);
      throw e;
    }
  }

  await loadWithRetry();
})();
`
