// Package logging builds the structured logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a logger.
type Options struct {
	Level   string    // debug, info, warn, error
	Verbose bool      // Forces debug level
	File    string    // Optional: rotate logs into this file instead of Writer
	Writer  io.Writer // Defaults to os.Stderr
}

// Rotation limits for file output.
const (
	maxSizeMB  = 20
	maxBackups = 5
	maxAgeDays = 28
)

// New creates a logger from opts. The returned closer releases the log file,
// if any, and is always safe to call.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = log.DebugLevel
	}

	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		w = rotator
		closer = rotator
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: opts.File != "",
		Prefix:          "pcdnban",
	})

	return logger, closer, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
