package utils

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the process logger. When LOG_FILE is set, entries are
// written both to stdout and to a size-rotated file.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		logger = NewLogger(os.Getenv("LOG_FILE"))
	})
	return logger
}

func NewLogger(logFile string) *zap.Logger {
	if logFile == "" {
		l, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop()
		}
		return l
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		l, _ := zap.NewProduction()
		return l
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	lvl := zapcore.InfoLevel
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(rotator), lvl)
	consoleCore := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)
	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller())
}
