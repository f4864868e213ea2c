// Package logging builds the arbor logger used across logtranslator.
package logging

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// New returns a console logger filtered at level ("debug", "info", "warn", "error").
func New(level string) arbor.ILogger {
	if level == "" {
		level = "warn"
	}
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	}).WithLevelFromString(level)
}

// Discard returns a logger with no writers attached.
func Discard() arbor.ILogger {
	return arbor.NewLogger()
}

// ForRun tags every event from the returned logger with the run id.
func ForRun(logger arbor.ILogger, runID string) arbor.ILogger {
	if runID == "" {
		return logger
	}
	return logger.WithCorrelationId(runID)
}
