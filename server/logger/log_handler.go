// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/huaylab/errs"
)

// enum LogMode
type LogMode uint8

const (
	ModeDev     LogMode = iota // text, debug, stderr
	ModeProd                   // json, info, stdout
	ModeSilence                // 全丟
)

var modeNames = map[string]LogMode{
	"dev":     ModeDev,
	"prod":    ModeProd,
	"silence": ModeSilence,
}

func (m LogMode) String() string {
	for k, v := range modeNames {
		if v == m {
			return k
		}
	}
	return "unknown"
}

// ParseMode 從 flag / 環境變數（HUAY_LOG_MODE）解析模式；空字串為 dev。
func ParseMode(s string) (LogMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeDev, nil
	}
	m, ok := modeNames[s]
	if !ok {
		return ModeDev, errs.Warnf("unknown log mode: %q (dev|prod|silence)", s)
	}
	return m, nil
}

// NewWriterLogger 同步 logger，輸出到 w（測試寫到 buffer）。
func NewWriterLogger(w io.Writer, mode LogMode) *slog.Logger {
	return slog.New(handlerFor(w, mode))
}

// NewAsync server 用的預設 logger：依 mode 組 handler 再包一層 AsyncHandler。
// 呼叫端在關機時要 Close()，把佇列內的紀錄寫完。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(handlerFor(defaultWriter(mode), mode), buf)
	return slog.New(ah), ah
}

func defaultWriter(mode LogMode) io.Writer {
	if mode == ModeProd {
		return os.Stdout
	}
	return os.Stderr
}

func handlerFor(w io.Writer, mode LogMode) slog.Handler {
	switch mode {
	case ModeProd:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.DiscardHandler
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// =========================================================
// AsyncHandler
// =========================================================

// DefaultWarnWait 佇列滿時 Warn 以上的紀錄最多等這麼久才丟棄。
const DefaultWarnWait = 20 * time.Millisecond

// AsyncHandler 把寫出移到背景 goroutine，請求路徑只做 enqueue。
//   - Debug / Info：佇列滿就丟棄。
//   - Warn 以上（送單失敗、panic）：最多等 warnWait。
//   - Close 之後的紀錄計入丟棄數。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type queue struct {
	mu       sync.RWMutex // 讀鎖：enqueue；寫鎖：關閉 ch
	ch       chan item
	closed   bool
	done     chan struct{}
	warnWait time.Duration

	dropped     atomic.Uint64
	droppedWarn atomic.Uint64
}

type item struct {
	ctx context.Context
	rec slog.Record
	h   slog.Handler
}

type AsyncOption func(*queue)

// WithWarnWait 設定 Warn 以上紀錄的等待上限；0 表示與一般紀錄相同（立即丟棄）。
func WithWarnWait(d time.Duration) AsyncOption {
	return func(q *queue) { q.warnWait = max(0, d) }
}

// NewAsyncHandler buf <= 0 時用 1024。
func NewAsyncHandler(next slog.Handler, buf int, opts ...AsyncOption) *AsyncHandler {
	if next == nil {
		next = handlerFor(os.Stderr, ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{ch: make(chan item, buf), done: make(chan struct{}), warnWait: DefaultWarnWait}
	for _, opt := range opts {
		opt(q)
	}
	go q.run()
	return &AsyncHandler{next: next, q: q}
}

func (q *queue) run() {
	defer close(q.done)
	for it := range q.ch {
		_ = it.h.Handle(it.ctx, it.rec)
	}
}

func (q *queue) push(it item) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(it.rec.Level)
		return
	}
	select {
	case q.ch <- it:
		return
	default:
	}
	if it.rec.Level < slog.LevelWarn || q.warnWait == 0 {
		q.drop(it.rec.Level)
		return
	}
	t := time.NewTimer(q.warnWait)
	defer t.Stop()
	select {
	case q.ch <- it:
	case <-t.C:
		q.drop(it.rec.Level)
	}
}

func (q *queue) drop(lv slog.Level) {
	q.dropped.Add(1)
	if lv >= slog.LevelWarn {
		q.droppedWarn.Add(1)
	}
}

func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil
}

// Dropped 全部丟棄筆數。
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// DroppedWarn 其中 Warn 以上的筆數；不為 0 代表佇列太小。
func (h *AsyncHandler) DroppedWarn() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.droppedWarn.Load()
}

// Close 停止收件並等佇列寫完。可重複呼叫。
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.q.mu.Lock()
	if !h.q.closed {
		h.q.closed = true
		close(h.q.ch)
	}
	h.q.mu.Unlock()
	<-h.q.done
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	// Record 內的 attr 可能被呼叫端重用，跨 goroutine 前先 Clone
	h.q.push(item{ctx: ctx, rec: r.Clone(), h: h.next})
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}
