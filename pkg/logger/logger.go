package logger

import "github.com/sirupsen/logrus"

func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	return log
}

// New builds a logger at the named level, falling back to debug when the
// level is empty or unknown.
func New(level string) *logrus.Logger {
	log := NewLogger()
	if level == "" {
		return log
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using debug", level)
		return log
	}
	log.SetLevel(lvl)
	return log
}
