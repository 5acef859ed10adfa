// Package logging maps the command-line verbosity onto a log/slog logger.
//
//	verbosity  level
//	   -1      nothing (quiet)
//	    0      errors
//	    1      warnings
//	    2      info
//	   3+      debug
package logging

import (
	"io"
	"log/slog"
)

// LevelSilent is above every level the application emits
const LevelSilent = slog.Level(16)

// Level returns the minimum slog level shown at the given verbosity
func Level(verbosity int) slog.Level {
	switch {
	case verbosity < 0:
		return LevelSilent
	case verbosity == 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelWarn
	case verbosity == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Verbosity combines the repeatable -v and -q counts. Any -q wins.
func Verbosity(verbose, quiet int) int {
	if quiet > 0 {
		return -1
	}
	return verbose
}

// New creates a text logger writing to w at the given verbosity
func New(verbosity int, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: Level(verbosity),
	}

	// Timestamps are noise for a command that runs for milliseconds
	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
