package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Init sets the global log level and routes the global logger to stderr with
// caller information. Only the first call has any effect.
func Init(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	once.Do(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()
		log.Debug().Str("level", lvl.String()).Msg("logger initialized")
	})
	return nil
}

// ParseLevel maps DEBUG, INFO, WARN, ERROR, FATAL, PANIC and DISABLED to
// zerolog levels. An empty string means WARN.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "", "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "FATAL":
		return zerolog.FatalLevel, nil
	case "PANIC":
		return zerolog.PanicLevel, nil
	case "DISABLED":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("logging: incorrect log level %q", level)
	}
}
