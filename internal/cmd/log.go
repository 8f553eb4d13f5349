package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger returns a new logger writing to the file from c or to stdout.  rot
// is not nil if the output is a rotated file.  verbose enables debug logging
// regardless of c.
func newLogger(c *logConfig, verbose bool) (l *slog.Logger, rot *lumberjack.Logger) {
	var output io.Writer = os.Stdout
	if c.File != "" {
		rot = &lumberjack.Logger{
			Filename:   c.File,
			Compress:   c.Compress,
			LocalTime:  c.LocalTime,
			MaxBackups: c.MaxBackups,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
		}

		output = rot
	}

	lvl := slog.LevelInfo
	if verbose || c.Verbose {
		lvl = slog.LevelDebug
	}

	return slogutil.New(&slogutil.Config{
		Output:       output,
		Format:       slogutil.FormatAdGuardLegacy,
		Level:        lvl,
		AddTimestamp: true,
	}), rot
}
