package env

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger writes the engine's informational log.
type Logger interface {
	Logf(format string, args ...any)
	Close() error
}

type fileLogger struct {
	file   *os.File
	logger zerolog.Logger
}

// NewLogger creates name, truncating any previous log, and returns a
// Logger writing timestamped lines to it. The log is always a filesystem
// file.
func (e *Env) NewLogger(name string) (Logger, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, ioError("create", name, err)
	}
	return &fileLogger{
		file:   f,
		logger: zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

func (l *fileLogger) Logf(format string, args ...any) {
	l.logger.Log().Msgf(format, args...)
}

func (l *fileLogger) Close() error {
	return l.file.Close()
}
