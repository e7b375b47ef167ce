package provisioning

import (
	"log"
	"os"
)

// Logger is the diagnostic output sink threaded through the run.
type Logger interface {
	Printf(format string, v ...interface{})
}

// DefaultLogger returns a logger writing to stderr. Stdout is reserved for
// the final machine-readable record, so diagnostics must never go there.
func DefaultLogger() Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}
