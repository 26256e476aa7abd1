package hemesh

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var loggerPtr atomic.Pointer[logrus.FieldLogger]

func init() {
	SetLogger(nil)
}

func newNopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger sets the logger used by the package. The package is silent by
// default; nil restores that.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(&l)
}

// Logger returns the current package logger.
func Logger() logrus.FieldLogger {
	return *loggerPtr.Load()
}
