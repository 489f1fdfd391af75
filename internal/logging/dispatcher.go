package logging

import "github.com/rs/zerolog"

// CommandLogger writes dispatcher events to zerolog, tagged with the
// dispatcher component.
type CommandLogger struct {
	log zerolog.Logger
}

// NewCommandLogger returns a dispatcher.Logger backed by log.
func NewCommandLogger(log zerolog.Logger) *CommandLogger {
	return &CommandLogger{log: log.With().Str("component", "dispatcher").Logger()}
}

func (l *CommandLogger) Debug(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *CommandLogger) Info(msg string, keysAndValues ...any) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l *CommandLogger) Error(msg string, keysAndValues ...any) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}
