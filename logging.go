package cliframe

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging builds the application logger from the --log, --log-level,
// --log-max, --log-keep and --log-mode settings. The returned close
// function flushes and releases the log sink.
func (a *Application) setupLogging() (*zap.Logger, func(), error) {
	target := a.Settings.String("log")
	level := zapLevel(a.Settings.String("log-level"))

	switch target {
	case "", "none":
		return zap.NewNop(), func() {}, nil
	case "stderr":
		core := zapcore.NewCore(newLogEncoder(), zapcore.AddSync(a.stderr), level)
		logger := zap.New(core)
		return logger, func() { _ = logger.Sync() }, nil
	case "syslog":
		return newSyslogLogger(a.progname, level)
	default:
		return a.newFileLogger(target, level)
	}
}

func (a *Application) newFileLogger(path string, level zapcore.Level) (*zap.Logger, func(), error) {
	maxSize := a.Settings.Size("log-max")

	if maxSize > 0 {
		sink := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    megabytes(maxSize),
			MaxBackups: int(a.Settings.Int("log-keep")),
		}
		core := zapcore.NewCore(newLogEncoder(), zapcore.AddSync(sink), level)
		logger := zap.New(core)
		return logger, func() {
			_ = logger.Sync()
			_ = sink.Close()
		}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	if mode, err := strconv.ParseUint(a.Settings.String("log-mode"), 8, 32); err == nil {
		_ = os.Chmod(path, fs.FileMode(mode))
	}
	core := zapcore.NewCore(newLogEncoder(), zapcore.AddSync(f), level)
	logger := zap.New(core)
	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}, nil
}

// newLogEncoder returns the JSON encoder used for all log sinks.
func newLogEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// zapLevel maps a --log-level name onto a zap level threshold. Unknown
// names fall back to info.
func zapLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "critical":
		return zapcore.DPanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// megabytes converts a byte count to whole mebibytes, rounding up, for
// the rotation threshold.
func megabytes(n int64) int {
	const mib = 1 << 20
	mb := (n + mib - 1) / mib
	if mb < 1 {
		mb = 1
	}
	return int(mb)
}
