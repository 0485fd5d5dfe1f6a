// Package logging provides the shared console logger.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a leveled console logger writing to stderr. Unknown
// level strings fall back to info.
func New(level string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           parseLevel(level),
		ReportTimestamp: true,
		Prefix:          "planner",
	})
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
