/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) SetLevel(LogLevel) {}
func (l *recordingLogger) Debug(msg string, fields ...interface{}) {}
func (l *recordingLogger) Info(msg string, fields ...interface{}) {}
func (l *recordingLogger) Warn(msg string, fields ...interface{}) { l.warnings = append(l.warnings, msg) }
func (l *recordingLogger) Error(msg string, fields ...interface{}) {}

func TestQueryHook(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	newHook := func(buf *bytes.Buffer) *QueryHook {
		h := NewQueryHook(buf, false)
		h.now = func() time.Time { return start.Add(1500 * time.Microsecond) }
		return h
	}

	t.Run("echoes statement", func(t *testing.T) {
		var buf bytes.Buffer
		newHook(&buf).AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start})
		out := buf.String()
		assert.Contains(t, out, "2025-01-02 03:04:05.001 [BUN]")
		assert.Contains(t, out, "1.5ms")
		assert.Contains(t, out, "SELECT 1\n")
	})

	t.Run("failed statement gets a badge", func(t *testing.T) {
		var buf bytes.Buffer
		newHook(&buf).AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT x", StartTime: start, Err: errors.New("boom")})
		assert.Contains(t, buf.String(), "*errors.errorString: boom")
	})

	t.Run("no rows is not a failure", func(t *testing.T) {
		var buf bytes.Buffer
		newHook(&buf).AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start, Err: sql.ErrNoRows})
		assert.NotContains(t, buf.String(), "ErrNoRows")
		assert.NotContains(t, buf.String(), "no rows")
	})

	t.Run("finished transactions are skipped", func(t *testing.T) {
		var buf bytes.Buffer
		newHook(&buf).AfterQuery(context.Background(), &bun.QueryEvent{Query: "COMMIT", StartTime: start, Err: sql.ErrTxDone})
		assert.Empty(t, buf.String())
	})

	t.Run("silenced", func(t *testing.T) {
		var buf bytes.Buffer
		h := newHook(&buf)
		h.Silence(true)
		h.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start})
		assert.Empty(t, buf.String())

		h.Silence(false)
		h.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start})
		assert.NotEmpty(t, buf.String())
	})
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	h := NewSlowQueryHook(time.Millisecond, logger)

	h.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Empty(t, logger.warnings)

	h.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now().Add(-time.Second)})
	assert.Equal(t, []string{"Database slow query detected"}, logger.warnings)

	h.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now().Add(-time.Second), Err: errors.New("boom")})
	assert.Len(t, logger.warnings, 1)
}
