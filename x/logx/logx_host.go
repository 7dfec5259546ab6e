//go:build !(rp2040 || rp2350)

// Package logx is the one logging surface for both build targets. Host
// builds route through slog with a tint handler; MCU builds print
// plain lines. Messages carry a bracketed service tag, keys follow in
// pairs: logx.Info("[panel] transition", "screen", s).
package logx

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var logger = newDefault()

func newDefault() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// SetLogger replaces the package logger; binaries that build their own
// handler call this at startup.
func SetLogger(l *slog.Logger) { logger = l }

func Debug(msg string, args ...any) { logger.Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Error(msg, args...) }
