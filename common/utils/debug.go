package utils

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}).With().Timestamp().Logger()

// Logger exposes the process logger for callers needing typed fields
func Logger() *zerolog.Logger {
	return &logger
}

// SetLogOutput replaces the log sink; JSON lines are written as-is
func SetLogOutput(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Logger()
}

func SetLogLevel(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}

	zerolog.SetGlobalLevel(parsed)
	return nil
}

func Debug(service string, message string) {
	logger.Debug().Str("service", service).Msg(message)
}

func Info(service string, message string) {
	logger.Info().Str("service", service).Msg(message)
}

func Warn(service string, message string) {
	logger.Warn().Str("service", service).Msg(message)
}
