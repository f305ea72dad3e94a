// Package logging wraps a zap.SugaredLogger behind the small leveled
// interface this codebase's services expect, so call sites read
// logging.Info("msg", "key", value) regardless of the backend.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the leveled logger used throughout the gateway.
type Logger struct {
	sugar *zap.SugaredLogger
}

// Config selects the logger's level and output encoding.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

var std = New(Config{Level: "info", Format: "console"})

// New builds a Logger from Config. Falls back to sane defaults on bad input.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), level)
	zl := zap.New(core, zap.AddCaller())
	return &Logger{sugar: zl.Sugar()}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) { std = l }

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }
func (l *Logger) Sync() error                         { return l.sugar.Sync() }

// Package-level convenience functions wrapping a shared default Logger.
func Debug(msg string, kv ...interface{}) { std.Debug(msg, kv...) }
func Info(msg string, kv ...interface{})  { std.Info(msg, kv...) }
func Warn(msg string, kv ...interface{})  { std.Warn(msg, kv...) }
func Error(msg string, kv ...interface{}) { std.Error(msg, kv...) }
func Sync() error                         { return std.Sync() }
