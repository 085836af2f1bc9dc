// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup sets level and formatter on the standard logger. Unknown levels fall
// back to info; format is "json" or anything else for text.
func Setup(level, format string) *logrus.Logger {
	logger := logrus.StandardLogger()
	Configure(logger, level, format)
	return logger
}

func Configure(logger *logrus.Logger, level, format string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
		return
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
