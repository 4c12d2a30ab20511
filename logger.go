package sessionmiddleware

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewLogrusLogger returns a Logger adapter for logrus.FieldLogger. Key/value
// argument pairs become logrus fields.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (a *logrusLoggerAdapter) Debug(msg string, args ...any) { a.with(args).Debug(msg) }
func (a *logrusLoggerAdapter) Info(msg string, args ...any)  { a.with(args).Info(msg) }
func (a *logrusLoggerAdapter) Warn(msg string, args ...any)  { a.with(args).Warn(msg) }
func (a *logrusLoggerAdapter) Error(msg string, args ...any) { a.with(args).Error(msg) }

func (a *logrusLoggerAdapter) with(args []any) logrus.FieldLogger {
	if len(args) == 0 {
		return a.l
	}
	fields := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		if err, ok := args[i+1].(error); ok {
			fields[key] = err.Error()
			continue
		}
		fields[key] = args[i+1]
	}
	return a.l.WithFields(fields)
}
