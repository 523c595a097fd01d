package tram

import (
	"os"
	"path/filepath"
	"testing"
)

// stubBinaries writes fake external tools into a dir and prepends it
// to PATH, so dispatcher and assembler tests run without BLAST+ or an
// assembler installed.
func stubBinaries(t *testing.T, scripts map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, script := range scripts {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
			t.Fatalf("failed to write stub %s: %v", name, err)
		}
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	return dir
}

// argScan is sourced by stubs that need the -query/-out/-db flag
// values.
const argScan = `
query=""; out=""; db=""
while [ $# -gt 0 ]; do
  case "$1" in
    -query) query="$2"; shift ;;
    -out) out="$2"; shift ;;
    -db) db="$2"; shift ;;
    -in) query="$2"; shift ;;
  esac
  shift
done
`
