package commands

import (
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// logAdapter adapts a charmbracelet logger to rest.Logger.
type logAdapter struct {
	logger *log.Logger
}

var _ rest.Logger = (*logAdapter)(nil)

func newLogger(writer io.Writer, verbose bool) *logAdapter {
	logger := log.NewWithOptions(writer, log.Options{
		ReportTimestamp: verbose,
		Prefix:          "compose",
	})

	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return &logAdapter{logger: logger}
}

func (l *logAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, keyvals(fields)...)
}

func (l *logAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, keyvals(fields)...)
}

func (l *logAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, keyvals(fields)...)
}

func (l *logAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, keyvals(fields)...)
}

// keyvals flattens fields in key order.
func keyvals(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		out = append(out, key, fields[key])
	}

	return out
}
