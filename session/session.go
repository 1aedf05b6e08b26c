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

// Package session 實作下注輸入面板的狀態機（一次開啟面板 = 一個 Session）。
//
// Session 持有：
//   - 已確認的輸入行（lines）
//   - 正在組字的緩衝（buffer），由數字鍵 / '=' / '*' / 退格 / Enter / 玩法按鈕驅動
//   - 編輯游標（正在修改第幾行，-1 表示沒有）
//   - 上/下切換、鎖定金額
//
// 所有狀態轉換都是同步的；唯一的非同步邊界是 Submit 呼叫外部 Sink。
// 預設玩法偏好透過 DefaultTypeStore 注入，本包不持有任何全域狀態。
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/prefs"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/sdk/parse"
)

const DefaultLongPress = 800 * time.Millisecond

// DefaultTypeStore 各位數的預設玩法（按鈕值）。
type DefaultTypeStore interface {
	Get(digits int) (string, bool)
	Set(digits int, value string) error
}

// Sink 送單的外部協作者（持久化、額度檢查都在另一側）。
// 回傳的 error 訊息會直接顯示給使用者。
type Sink interface {
	Submit(ctx context.Context, b Bill) error
	EditSubmit(ctx context.Context, b EditBill) error
}

// Bill 一張單的送出內容。
type Bill struct {
	Entries  []bet.Entry `json:"entries"`
	BillNote string      `json:"bill_note"`
	RawLines []string    `json:"raw_lines"`
}

// EditBill 修改既有單據時的送出內容。
type EditBill struct {
	Bill
	OriginalBillID string      `json:"original_bill_id"`
	OriginalItems  []bet.Entry `json:"original_items"`
}

// EditTarget 以既有單據開啟面板時的種子資料。
type EditTarget struct {
	BillID string
	Lines  []string
	Items  []bet.Entry
}

// Options 建立 Session 的設定。
type Options struct {
	Lottery    bet.LotteryType
	SetPrice   int
	AutoSubmit bool          // 玩法按鈕點下後直接確認該行
	LongPress  time.Duration // 長按多久視為「設為預設」，0 用 DefaultLongPress

	Defaults map[int]string // 設定檔提供的預設玩法（偏好沒有時使用）
	Store    DefaultTypeStore
	Sink     Sink
	Clock    Clock
	NewID    func() string
	Log      *slog.Logger
	Edit     *EditTarget
}

func (o *Options) norm() error {
	if o.Lottery == "" {
		o.Lottery = bet.Thai
	}
	if !o.Lottery.Valid() {
		return errs.Warnf("invalid lottery type: %s", o.Lottery)
	}
	if o.SetPrice <= 0 {
		o.SetPrice = expand.DefaultSetPrice
	}
	if o.LongPress <= 0 {
		o.LongPress = DefaultLongPress
	}
	if o.Store == nil {
		o.Store = prefs.NewMemStore()
	}
	if o.Clock == nil {
		o.Clock = RealClock{}
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Log == nil {
		o.Log = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Session 單一輸入面板的狀態。可被多個 goroutine 呼叫（內部以 mutex 序列化）。
type Session struct {
	mu  sync.Mutex
	id  string
	opt Options

	lines   []string
	buf     string
	editIdx int
	side    bet.Side
	locked  string
	edit    *EditTarget
	press   *press

	submitting atomic.Bool
}

func New(opt Options) (*Session, error) {
	if err := opt.norm(); err != nil {
		return nil, err
	}
	s := &Session{
		id:      opt.NewID(),
		opt:     opt,
		editIdx: -1,
		side:    bet.SideTop,
		edit:    opt.Edit,
	}
	if opt.Edit != nil {
		for _, l := range opt.Edit.Lines {
			if l = parse.Canonical(l); l != "" {
				s.lines = append(s.lines, l)
			}
		}
	}
	s.log().Debug("session opened", slog.Int("lines", len(s.lines)))
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Lottery() bet.LotteryType { return s.opt.Lottery }

func (s *Session) log() *slog.Logger {
	return s.opt.Log.With(slog.String("session", s.id))
}

func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

func (s *Session) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

func (s *Session) EditIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editIdx
}

func (s *Session) Locked() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

func (s *Session) Side() bet.Side {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.side
}

func (s *Session) Submitting() bool { return s.submitting.Load() }

// Clear 清空組字緩衝（不影響已確認的行）。
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = ""
}

// Close 關閉面板：停止長按計時並清空所有狀態。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPressLocked()
	s.resetLocked()
	s.log().Debug("session closed")
}

func (s *Session) resetLocked() {
	s.lines = nil
	s.buf = ""
	s.editIdx = -1
	s.locked = ""
	s.edit = nil
}
