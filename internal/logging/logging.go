// Package logging sets up the zerolog logger shared by all commands.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log events go.
type Options struct {
	Verbose    bool
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Console    io.Writer
}

type logKey struct{}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("MSTPKIT_DEBUG") != "")
	}
}

// New builds a logger writing colored lines to the console and, when a file
// is configured, JSON lines to a rotating log file.
func New(opts Options) (zerolog.Logger, io.Closer) {
	var console io.Writer
	switch c := opts.Console.(type) {
	case *ConsoleWriter:
		console = c
	case nil:
		console = NewConsoleWriter(os.Stderr)
	default:
		console = NewConsoleWriter(c)
	}
	writers := []io.Writer{console}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		writers = append(writers, lj)
		closer = lj
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(opts.Level, opts.Verbose)).
		With().Timestamp().Logger()
	return logger, closer
}

func parseLevel(level string, verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithLogger attaches the given logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// FromContext returns the logger attached to ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(logKey{}).(*zerolog.Logger); ok && l != nil {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
