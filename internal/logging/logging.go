// Package logging builds the process logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to stdout. Unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logger.WithField("level", level).Warn("Unknown log level, using info")
	}
	logger.SetLevel(lvl)
	return logger
}
