// Package logging holds the process-wide logger. One capture cycle is one
// process, so a package-level logger is sufficient.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger is the shared application logger.
var Logger = logrus.New()

// Init configures the logger's formatter and level. Unknown level names fall
// back to info.
func Init(level string) {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)
}
