// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"
)

// captureLogger records every message at or below its level.
type captureLogger struct {
	level kgo.LogLevel

	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Level() kgo.LogLevel { return l.level }

func (l *captureLogger) Log(_ kgo.LogLevel, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *captureLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.msgs...)
}

func TestLogAt(t *testing.T) {
	t.Parallel()
	l := &captureLogger{level: kgo.LogLevelInfo}

	logAt(l, kgo.LogLevelError, "error")
	logAt(l, kgo.LogLevelInfo, "info")
	logAt(l, kgo.LogLevelDebug, "debug")

	assert.Equal(t, []string{"error", "info"}, l.messages())

	// The default logger drops everything.
	logAt(&nopLogger{}, kgo.LogLevelError, "dropped")
}

func TestProducerLogsLifecycle(t *testing.T) {
	t.Parallel()
	l := &captureLogger{level: kgo.LogLevelInfo}
	p, _ := newTestProducer[int](t, Config{Logger: l}, &recorder[int]{})
	p.Close(context.Background())

	assert.Equal(t, []string{
		"producer started",
		"closing producer, flushing buffered messages",
		"producer closed",
	}, l.messages())
}
