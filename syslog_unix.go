//go:build !windows && !plan9

package cliframe

import (
	"fmt"
	"log/syslog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newSyslogLogger builds a logger that writes to the system log.
func newSyslogLogger(progname string, level zapcore.Level) (*zap.Logger, func(), error) {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, progname)
	if err != nil {
		return nil, nil, fmt.Errorf("open syslog: %w", err)
	}
	core := zapcore.NewCore(newLogEncoder(), zapcore.AddSync(w), level)
	logger := zap.New(core)
	return logger, func() {
		_ = logger.Sync()
		_ = w.Close()
	}, nil
}
