// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import "github.com/twmb/franz-go/pkg/kgo"

// nopLogger, the default logger, drops everything.
type nopLogger struct{}

func (*nopLogger) Level() kgo.LogLevel { return kgo.LogLevelNone }
func (*nopLogger) Log(kgo.LogLevel, string, ...any) {
}

// logAt logs only when the logger is enabled for the level, so callers can
// pass key/values without paying for them on a quiet logger.
func logAt(l kgo.Logger, level kgo.LogLevel, msg string, keyvals ...any) {
	if l.Level() < level {
		return
	}
	l.Log(level, msg, keyvals...)
}
