package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
)

// ZerologLogger adapts zerolog to the LoggerPort. Events are short
// dot-separated keys ("router.cache.read_failed"), context travels in
// structured fields.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger writes human-readable console output when pretty is
// set and JSON lines otherwise.
func NewZerologLogger(pretty bool) *ZerologLogger {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return &ZerologLogger{
		log: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (l *ZerologLogger) Debug(event string, fields out.LogFields) {
	l.log.Debug().Fields(map[string]interface{}(fields)).Msg(event)
}

func (l *ZerologLogger) Info(event string, fields out.LogFields) {
	l.log.Info().Fields(map[string]interface{}(fields)).Msg(event)
}

func (l *ZerologLogger) Warn(event string, fields out.LogFields) {
	l.log.Warn().Fields(map[string]interface{}(fields)).Msg(event)
}

func (l *ZerologLogger) Error(event string, fields out.LogFields) {
	l.log.Error().Fields(map[string]interface{}(fields)).Msg(event)
}

func (l *ZerologLogger) WithFields(fields out.LogFields) out.LoggerPort {
	return &ZerologLogger{log: l.log.With().Fields(map[string]interface{}(fields)).Logger()}
}

func (l *ZerologLogger) WithModule(module string) out.LoggerPort {
	return &ZerologLogger{log: l.log.With().Str("module", module).Logger()}
}
