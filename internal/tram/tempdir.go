package tram

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// makeTempDir creates a uniquely named working directory under where
// (or the system temp dir). The cleanup func removes it unless keep is
// set; retained directories are logged so intermediate files can be
// inspected, but no later run depends on them.
func makeTempDir(where, prefix string, keep bool) (string, func(), error) {
	if where == "" {
		where = os.TempDir()
	}

	dir := filepath.Join(where, prefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir %s: %v", dir, err)
	}

	cleanup := func() {
		if keep {
			logger.Printf("keeping temporary files in %s", dir)
			return
		}
		os.RemoveAll(dir)
	}

	return dir, cleanup, nil
}
