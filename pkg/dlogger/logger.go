// Copyright © 2018 One Concern

// Package dlogger exposes a simple zap logger, with log levels and encodings
package dlogger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"

	// EncodingConsole produces human readable lines, as expected in the container log
	EncodingConsole = "console"

	// EncodingJSON produces structured JSON lines
	EncodingJSON = "json"
)

// GetLogger returns a zap logger with the specified level, using the console encoding
func GetLogger(logLevel string) (*zap.Logger, error) {
	return GetLoggerWithEncoding(logLevel, EncodingConsole)
}

// GetLoggerWithEncoding returns a zap logger with the specified level and encoding
func GetLoggerWithEncoding(logLevel, encoding string) (*zap.Logger, error) {
	if logLevel == LogLevelNone {
		return zap.NewNop(), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	switch encoding {
	case EncodingJSON, "":
	case EncodingConsole:
		zapConfig.Encoding = EncodingConsole
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapConfig.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", encoding)
	}
	// boot logs are collected from stdout by the container runtime
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.Sampling = nil
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	return zapConfig.Build()
}
