package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures the root logger all components derive from.
func SetupLogger(level string, debug bool) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if debug {
		lvl = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
}
