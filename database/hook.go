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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorWrap(s, code string) string { return fmt.Sprintf("%s%s%s", code, s, ansiReset) }

// QueryHook echoes every executed statement to a writer, coloured by
// operation. Failed statements get a red badge with the error type.
type QueryHook struct {
	writer  io.Writer
	colored bool
	silent  atomic.Bool
	now     func() time.Time
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(w io.Writer, colored bool) *QueryHook {
	return &QueryHook{writer: w, colored: colored, now: time.Now}
}

// Silence suppresses output until called again with false. Migrations run
// silenced.
func (h *QueryHook) Silence(b bool) {
	h.silent.Store(b)
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if h.silent.Load() || h.writer == nil {
		return
	}
	if errors.Is(event.Err, sql.ErrTxDone) {
		return
	}

	now := h.now()
	dur := now.Sub(event.StartTime)

	query := event.Query
	if h.colored {
		query = formatOperationColor(event)
	}
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		"[BUN]",
		fmt.Sprintf("%12s", dur.Round(time.Microsecond)),
		" ", query,
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		badge := fmt.Sprintf(" %s: %s ", reflect.TypeOf(event.Err).String(), event.Err.Error())
		if h.colored {
			badge = color.New(color.BgRed).Sprint(badge)
		}
		args = append(args, "\t", badge)
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func formatOperationColor(event *bun.QueryEvent) string {
	switch event.Operation() {
	case "SELECT":
		return colorWrap(event.Query, ansiGreen)
	case "INSERT":
		return colorWrap(event.Query, ansiBlue)
	case "UPDATE":
		return colorWrap(event.Query, ansiYellow)
	case "DELETE":
		return colorWrap(event.Query, ansiMagenta)
	case "CREATE TABLE", "CREATE INDEX":
		return colorWrap(event.Query, ansiCyan)
	default:
		return colorWrap(event.Query, ansiRed)
	}
}

// SlowQueryHook logs statements that take longer than slowTime.
type SlowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(slowTime time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{slowTime: slowTime, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.slowTime {
		h.logger.Warn("Database slow query detected",
			"duration", duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
