// Package logging builds the zerolog loggers used across the client and the
// bridge API.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how verbosely to log. An empty File logs to
// Writer, or stderr when Writer is nil.
type Options struct {
	Level      string
	File       string
	Writer     io.Writer
	Location   *time.Location
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger and the closer of its rotating file, if any.
func New(opts Options) (zerolog.Logger, io.Closer) {
	var (
		w      = opts.Writer
		closer io.Closer
	)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		w, closer = lj, lj
	}
	if w == nil {
		w = os.Stderr
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := zerolog.New(zerolog.SyncWriter(w)).
		Level(ParseLevel(opts.Level)).
		Hook(locationHook{loc: loc})
	if closer == nil {
		closer = nopCloser{}
	}
	return logger, closer
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// locationHook stamps each event with the wall time in loc.
type locationHook struct {
	loc *time.Location
}

func (h locationHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("ts", time.Now().In(h.loc).Format(time.RFC3339Nano))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
