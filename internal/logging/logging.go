// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Formats accepted by Setup.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup configures the standard logger. An empty level means info and an
// empty format means text.
func Setup(level, format string) (*logrus.Logger, error) {
	return configure(logrus.StandardLogger(), os.Stderr, level, format)
}

// New returns a separate logger writing to w.
func New(w io.Writer, level, format string) (*logrus.Logger, error) {
	return configure(logrus.New(), w, level, format)
}

func configure(log *logrus.Logger, w io.Writer, level, format string) (*logrus.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	switch format {
	case "", FormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	log.SetLevel(lvl)
	log.SetOutput(w)
	return log, nil
}
