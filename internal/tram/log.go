package tram

import (
	"io"
	"log"
	"os"
)

// logger writes the per-phase log lines. It goes to stderr by default;
// a run tees it into the run's log file as well.
var logger = log.New(os.Stderr, "", log.LstdFlags)

// teeLog sends log output to stderr and w. The returned func restores
// plain stderr logging.
func teeLog(w io.Writer) func() {
	logger.SetOutput(io.MultiWriter(os.Stderr, w))

	return func() { logger.SetOutput(os.Stderr) }
}
