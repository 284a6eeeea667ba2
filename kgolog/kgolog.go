// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package kgolog adapts structured loggers to kgo.Logger, the logger
// interface kafkadelivery.Config and the franz-go client share.
package kgolog

import (
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zap returns a kgo.Logger writing to l.  Key/value pairs become fields.
func Zap(l *zap.Logger) kgo.Logger {
	return &zapLogger{l: l.Sugar()}
}

type zapLogger struct {
	l *zap.SugaredLogger
}

func (z *zapLogger) Level() kgo.LogLevel {
	core := z.l.Desugar().Core()
	switch {
	case core.Enabled(zapcore.DebugLevel):
		return kgo.LogLevelDebug
	case core.Enabled(zapcore.InfoLevel):
		return kgo.LogLevelInfo
	case core.Enabled(zapcore.WarnLevel):
		return kgo.LogLevelWarn
	case core.Enabled(zapcore.ErrorLevel):
		return kgo.LogLevelError
	}
	return kgo.LogLevelNone
}

func (z *zapLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	switch level {
	case kgo.LogLevelError:
		z.l.Errorw(msg, keyvals...)
	case kgo.LogLevelWarn:
		z.l.Warnw(msg, keyvals...)
	case kgo.LogLevelInfo:
		z.l.Infow(msg, keyvals...)
	case kgo.LogLevelDebug:
		z.l.Debugw(msg, keyvals...)
	}
}

// Zerolog returns a kgo.Logger writing to l.
func Zerolog(l zerolog.Logger) kgo.Logger {
	return &zeroLogger{l: l}
}

type zeroLogger struct {
	l zerolog.Logger
}

func (z *zeroLogger) Level() kgo.LogLevel {
	switch z.l.GetLevel() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return kgo.LogLevelDebug
	case zerolog.InfoLevel:
		return kgo.LogLevelInfo
	case zerolog.WarnLevel:
		return kgo.LogLevelWarn
	case zerolog.ErrorLevel:
		return kgo.LogLevelError
	}
	return kgo.LogLevelNone
}

var zerologLevels = map[kgo.LogLevel]zerolog.Level{
	kgo.LogLevelError: zerolog.ErrorLevel,
	kgo.LogLevelWarn:  zerolog.WarnLevel,
	kgo.LogLevelInfo:  zerolog.InfoLevel,
	kgo.LogLevelDebug: zerolog.DebugLevel,
}

func (z *zeroLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	lvl, ok := zerologLevels[level]
	if !ok {
		return
	}
	z.l.WithLevel(lvl).Fields(keyvals).Msg(msg)
}
