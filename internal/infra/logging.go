package infra

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewDaemonLogger builds the daemon's JSON file logger. The daemon is
// long-lived and unattended, so the log rotates instead of growing
// without bound.
func NewDaemonLogger(path string, level zapcore.Level) *zap.Logger {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(rotator),
		level,
	)
	return zap.New(core)
}

// NewCLILogger builds a terse console logger for CLI commands.
func NewCLILogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}
