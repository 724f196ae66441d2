//go:build windows || plan9

package cliframe

import (
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newSyslogLogger(progname string, level zapcore.Level) (*zap.Logger, func(), error) {
	return nil, nil, errors.New("syslog logging is not supported on this platform")
}
