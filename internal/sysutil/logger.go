package sysutil

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures the process-wide zerolog logger.
type LogOptions struct {
	Level     string // see SetLogLevel
	Pretty    bool   // human-readable console output on the terminal writer
	File      string // optional rotating JSON log file
	MaxSizeMB int    // rotation threshold for File
}

// ConfigureLogging installs the global zerolog logger. Output goes to term
// (console-formatted when Pretty) and, when File is set, also to a rotating
// JSON file. The returned closer releases the file; it is a no-op otherwise.
func ConfigureLogging(opts LogOptions, term io.Writer) (io.Closer, error) {
	SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if term == nil {
		term = os.Stderr
	}
	out := term
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: term, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		fw := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, fw)
		closer = fw
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
