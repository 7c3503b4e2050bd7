package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

// Setup configures the process-wide logger. Unknown levels fall back to info.
func Setup(level, format string) {
	base.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
		})
		return
	}
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// New returns a logger tagged with the given component name.
func New(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// Logger exposes the underlying logger for libraries that want a *logrus.Logger.
func Logger() *logrus.Logger {
	return base
}
