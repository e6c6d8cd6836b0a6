// Package logger is the process-wide leveled logger. Call sites use
// printf-style helpers; output goes through zap.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging severity.
type Level = zapcore.Level

// TraceLevel sits below zap's debug level.
const TraceLevel Level = zapcore.DebugLevel - 1

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(InfoLevel)
	base  = newZap(os.Stderr)
)

func newZap(w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.CallerKey = ""
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = encodeLevel
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == TraceLevel {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(l, enc)
}

// ParseLevel parses trace, debug, info, warn, error, fatal or panic.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "trace":
		return TraceLevel, nil
	case "warning":
		return WarnLevel, nil
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return InfoLevel, fmt.Errorf("invalid log level %q: use trace, debug, info, warn, error, fatal or panic", s)
	}
	return l, nil
}

// SetLevel changes the minimum level written.
func SetLevel(l Level) {
	level.SetLevel(l)
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return level.Level()
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	base = newZap(w)
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

func logf(l Level, format string, args ...any) {
	if !level.Enabled(l) {
		return
	}
	mu.RLock()
	z := base
	mu.RUnlock()
	if ce := z.Check(l, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func Trace(format string, args ...any) { logf(TraceLevel, format, args...) }
func Debug(format string, args ...any) { logf(DebugLevel, format, args...) }
func Info(format string, args ...any)  { logf(InfoLevel, format, args...) }
func Warn(format string, args ...any)  { logf(WarnLevel, format, args...) }
func Error(format string, args ...any) { logf(ErrorLevel, format, args...) }
