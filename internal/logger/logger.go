// Package logger provides structured logging using zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Init initializes the global logger. Level is a zerolog level name; an
// empty or unknown level falls back to info. When logFile is non-empty,
// output is duplicated to that file in append mode.
func Init(level string, logFile string) {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	const callerWidth = 30
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	var output io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: milliTimeFormat,
	}

	if logFile != "" {
		f, ferr := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if ferr == nil {
			output = io.MultiWriter(output, f)
		}
	}

	log.Logger = log.Output(output).With().Caller().Logger()

	log.Info().Str("level", parsed.String()).Msg("Logger initialized")
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// ForBattle returns a logger enriched with the battle tag.
func ForBattle(tag string) zerolog.Logger {
	if tag == "" {
		return log.Logger
	}
	return log.Logger.With().Str("battle", tag).Logger()
}
