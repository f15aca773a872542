// Package obs provides the logging surface shared by every command in
// cmd/sysk: a small Logger interface (satisfied directly by
// *log.Logger) backed by a rotating file via lumberjack, with an
// optional mirror to stderr for interactive use.
package obs

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the minimal logging surface every package in this module
// accepts. *log.Logger satisfies it without adaptation.
type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

// Options configures New.
type Options struct {
	// Path is the log file to write to. Empty disables file logging.
	Path string
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to retain.
	MaxBackups int
	// MaxAgeDays is how long to retain rotated files.
	MaxAgeDays int
	// AlsoStderr mirrors every line to os.Stderr in addition to Path.
	AlsoStderr bool
	// Prefix is prepended to every log line, e.g. "sysk: ".
	Prefix string
}

// New builds a Logger. With Path empty, it falls back to stderr so a
// caller that never configured logging still sees output.
func New(opts Options) Logger {
	var writers []io.Writer
	if opts.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		})
	}
	if opts.AlsoStderr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer
	if len(writers) == 1 {
		out = writers[0]
	} else {
		out = io.MultiWriter(writers...)
	}
	return log.New(out, opts.Prefix, log.LstdFlags|log.Lmicroseconds)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
