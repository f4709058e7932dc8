package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log files rotate at 5 MB and keep two backups.
const (
	fileMaxSizeMB  = 5
	fileMaxBackups = 2
)

// New builds a SugaredLogger with the given log level.
// Output always goes to stdout; every extra path is a rotating log file.
func New(level string, outputPaths ...string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	for _, path := range outputPaths {
		sinks = append(sinks, zapcore.AddSync(newFileWriter(path)))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.NewMultiWriteSyncer(sinks...),
		zap.NewAtomicLevelAt(lvl),
	)
	// same sampling as zap.NewProductionConfig
	core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger.Sugar(), nil
}

func newFileWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
	}
}

// NewNop returns a logger that discards everything. Used where no logger is configured.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
