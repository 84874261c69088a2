package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Init builds the process logger. "production" gets JSON output at info level,
// everything else a console encoder at debug level.
func Init(env string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zapcore.DebugLevel,
		))
	}

	SetCore(l)
}

// SetCore replaces the underlying zap logger. Used by tests with zaptest/observer.
func SetCore(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l.Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

func Debug(msg string, keyvals ...any) {
	current().Debugw(msg, fields(keyvals)...)
}

func Info(msg string, keyvals ...any) {
	current().Infow(msg, fields(keyvals)...)
}

func Warn(msg string, keyvals ...any) {
	current().Warnw(msg, fields(keyvals)...)
}

func Error(msg string, keyvals ...any) {
	current().Errorw(msg, fields(keyvals)...)
}

func Fatal(msg string, keyvals ...any) {
	current().Fatalw(msg, fields(keyvals)...)
}

// fields turns loose arguments into zap key/value pairs. A trailing value
// without a key, as in logger.Error("save failed", err), is logged as "error".
func fields(keyvals []any) []any {
	if len(keyvals)%2 == 0 {
		return keyvals
	}

	out := make([]any, 0, len(keyvals)+1)
	out = append(out, keyvals[:len(keyvals)-1]...)
	return append(out, "error", keyvals[len(keyvals)-1])
}
