package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a JSON logrus logger writing to stdout at level.
// Unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
