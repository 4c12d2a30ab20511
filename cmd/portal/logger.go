package main

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/medistream/go-session-middleware/internal/config"
)

// newLogger builds the process logger. An explicit LOG_LEVEL wins; otherwise
// production logs at info and everything else at debug.
func newLogger(cfg *config.Config, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch {
	case cfg.LogLevel != "":
		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.SetLevel(logrus.InfoLevel)
			log.WithField("log_level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		} else {
			log.SetLevel(lvl)
		}
	case cfg.IsProduction():
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}
