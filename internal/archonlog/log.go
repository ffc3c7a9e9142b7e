// Package archonlog adapts logrus to the Logger shape archonservice.Service
// expects, the way the teacher's cmd/cli wires logrus.SetLevel from viper.
package archonlog

import "github.com/sirupsen/logrus"

// New builds a logrus.Logger at the given level (falling back to info on an
// unparseable level) writing structured fields for every message.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	logger.SetLevel(lv)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// Adapt wraps a logrus.Logger into the func(message, level string) shape
// archonservice.Service.Config.Logger expects.
func Adapt(logger *logrus.Logger) func(message, level string) {
	return func(message, level string) {
		entry := logger.WithField("component", "cl-hive-archon")
		switch level {
		case "debug":
			entry.Debug(message)
		case "warn", "warning":
			entry.Warn(message)
		case "error":
			entry.Error(message)
		default:
			entry.Info(message)
		}
	}
}
