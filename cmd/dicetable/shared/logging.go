package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger builds the root logger. format is text, json or logfmt.
func SetupLogger(w io.Writer, debug bool, format string) (*log.Logger, error) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	var formatter log.Formatter
	switch format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
	}), nil
}

// ParseLevel maps a config log level onto the logger, keeping --debug in
// charge when set.
func ParseLevel(logger *log.Logger, level string, debug bool) error {
	if debug || level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return nil
}

// StderrLogger is SetupLogger writing to stderr.
func StderrLogger(debug bool, format string) (*log.Logger, error) {
	return SetupLogger(os.Stderr, debug, format)
}
