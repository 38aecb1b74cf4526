package config

import (
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. JSON output, debug level when
// DEBUG is set.
func NewLogger(cfg *AppConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if cfg != nil && cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
