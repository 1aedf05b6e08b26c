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

package huaylab

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/session"
)

const (
	DefaultMaxSessions = 4096
	DefaultIdleTimeout = 30 * time.Minute
)

// RuntimeOptions SessionRuntime 的行為設定。零值套用預設。
type RuntimeOptions struct {
	MaxSessions int
	IdleTimeout time.Duration
	SweepEvery  time.Duration // 0 時取 IdleTimeout/4
}

// RuntimeStats 觀測用計數。
type RuntimeStats struct {
	Active  int   `json:"active"`
	Opened  int64 `json:"opened"`
	Expired int64 `json:"expired"`
	Panics  int64 `json:"panics"`
}

type slot struct {
	s     *session.Session
	round string
	last  atomic.Int64 // unix nano
}

func (sl *slot) touch(now time.Time) { sl.last.Store(now.UnixNano()) }

// SessionRuntime 持有所有開啟中的輸入面板，依 session id 轉送操作。
//
// 同一個 session 的操作由 session 內部 mutex 序列化；runtime 只負責
// 查找、閒置回收與生命週期。實作 app.Component，可直接掛到 server。
type SessionRuntime struct {
	lab *HuayLab
	opt RuntimeOptions
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*slot

	opened  atomic.Int64
	expired atomic.Int64
	panics  atomic.Int64

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// NewRuntime 建立執行階段的面板容器。catalog 必須已經 Freeze。
func (h *HuayLab) NewRuntime(opt RuntimeOptions) (*SessionRuntime, error) {
	if !h.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if opt.MaxSessions <= 0 {
		opt.MaxSessions = DefaultMaxSessions
	}
	if opt.IdleTimeout <= 0 {
		opt.IdleTimeout = DefaultIdleTimeout
	}
	if opt.SweepEvery <= 0 {
		opt.SweepEvery = opt.IdleTimeout / 4
	}
	return &SessionRuntime{
		lab:      h,
		opt:      opt,
		now:      time.Now,
		sessions: make(map[string]*slot),
		done:     make(chan struct{}),
	}, nil
}

func (rt *SessionRuntime) Lab() *HuayLab { return rt.lab }

func (rt *SessionRuntime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "session runtime: canceled")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("session runtime closed: " + rt.ClosedReason())
	default:
	}
	return nil
}

// Open 依 round 開啟新面板。edit 非 nil 時為修改單。
func (rt *SessionRuntime) Open(ctx context.Context, round string, edit *session.EditTarget) (*session.Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	rt.mu.RLock()
	n := len(rt.sessions)
	rt.mu.RUnlock()
	if n >= rt.opt.MaxSessions {
		// 滿了先試著回收一次
		rt.Sweep()
	}

	s, err := rt.lab.NewSession(round, edit)
	if err != nil {
		return nil, err
	}
	sl := &slot{s: s, round: round}
	sl.touch(rt.now())

	rt.mu.Lock()
	if len(rt.sessions) >= rt.opt.MaxSessions {
		rt.mu.Unlock()
		s.Close()
		return nil, errs.Warnf("too many open sessions (max %d)", rt.opt.MaxSessions)
	}
	rt.sessions[s.ID()] = sl
	rt.mu.Unlock()

	rt.opened.Add(1)
	rt.lab.Log().Info("session open", slog.String("session", s.ID()), slog.String("round", round))
	return s, nil
}

func (rt *SessionRuntime) lookup(id string) (*slot, error) {
	rt.mu.RLock()
	sl, ok := rt.sessions[id]
	rt.mu.RUnlock()
	if !ok {
		return nil, errs.Codedf(errs.CodeNotFound, "session not found: %s", id)
	}
	return sl, nil
}

// Get 取得面板並刷新閒置時間。
func (rt *SessionRuntime) Get(id string) (*session.Session, error) {
	sl, err := rt.lookup(id)
	if err != nil {
		return nil, err
	}
	sl.touch(rt.now())
	return sl.s, nil
}

// Do 對指定面板執行 fn。fn panic 時該面板會被關閉並回傳 Fatal，runtime 本身不受影響。
func (rt *SessionRuntime) Do(ctx context.Context, id string, fn func(*session.Session) error) (err error) {
	if err := rt.check(ctx); err != nil {
		return err
	}
	sl, err := rt.lookup(id)
	if err != nil {
		return err
	}
	sl.touch(rt.now())

	defer func() {
		if r := recover(); r != nil {
			rt.panics.Add(1)
			rt.lab.Log().Error("session panic",
				slog.String("session", id),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			rt.remove(id)
			err = errs.NewFatal(fmt.Sprintf("session %s panicked: %v", id, r))
		}
	}()
	return fn(sl.s)
}

func (rt *SessionRuntime) remove(id string) bool {
	rt.mu.Lock()
	sl, ok := rt.sessions[id]
	if ok {
		delete(rt.sessions, id)
	}
	rt.mu.Unlock()
	if ok {
		sl.s.Close()
	}
	return ok
}

// CloseSession 關閉並移除面板。不存在時回傳 CodeNotFound。
func (rt *SessionRuntime) CloseSession(id string) error {
	if !rt.remove(id) {
		return errs.Codedf(errs.CodeNotFound, "session not found: %s", id)
	}
	rt.lab.Log().Info("session close", slog.String("session", id))
	return nil
}

// Sweep 回收超過 IdleTimeout 未操作的面板（送單中的不動），回傳回收數量。
func (rt *SessionRuntime) Sweep() int {
	limit := rt.now().Add(-rt.opt.IdleTimeout).UnixNano()
	var stale []*slot

	rt.mu.Lock()
	for id, sl := range rt.sessions {
		if sl.last.Load() < limit && !sl.s.Submitting() {
			stale = append(stale, sl)
			delete(rt.sessions, id)
		}
	}
	rt.mu.Unlock()

	for _, sl := range stale {
		sl.s.Close()
		rt.lab.Log().Debug("session expired", slog.String("session", sl.s.ID()), slog.String("round", sl.round))
	}
	rt.expired.Add(int64(len(stale)))
	return len(stale)
}

func (rt *SessionRuntime) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.sessions)
}

func (rt *SessionRuntime) Stats() RuntimeStats {
	return RuntimeStats{
		Active:  rt.Len(),
		Opened:  rt.opened.Load(),
		Expired: rt.expired.Load(),
		Panics:  rt.panics.Load(),
	}
}

// Run 定期回收閒置面板直到 runtime 關閉（app.Component）。
func (rt *SessionRuntime) Run() error {
	tk := time.NewTicker(rt.opt.SweepEvery)
	defer tk.Stop()
	for {
		select {
		case <-rt.done:
			return nil
		case <-tk.C:
			rt.Sweep()
		}
	}
}

// Shutdown 關閉 runtime 與所有面板（app.Component）。
func (rt *SessionRuntime) Shutdown(ctx context.Context) error {
	rt.closeWithReason("shutdown")

	rt.mu.Lock()
	all := rt.sessions
	rt.sessions = make(map[string]*slot)
	rt.mu.Unlock()

	for _, sl := range all {
		sl.s.Close()
	}
	return ctx.Err()
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *SessionRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *SessionRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *SessionRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *SessionRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
