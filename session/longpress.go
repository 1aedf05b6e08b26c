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

package session

import (
	"log/slog"
	"time"
)

// Clock 產生可取消的延遲任務。測試可注入假的時鐘。
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type Stopper interface {
	Stop() bool
}

type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// press 一次按鈕按壓。fired 表示已達長按門檻並記錄了預設玩法。
type press struct {
	value  string
	digits int
	timer  Stopper
	fired  bool
}

// PressStart 按下玩法按鈕：啟動長按計時。
// 計時到期時，把此按鈕設為目前位數的預設玩法（寫入 DefaultTypeStore）。
func (s *Session) PressStart(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPressLocked()
	p := &press{value: value, digits: decompose(s.buf).digits()}
	s.press = p
	p.timer = s.opt.Clock.AfterFunc(s.opt.LongPress, func() { s.longPressed(p) })
}

func (s *Session) longPressed(p *press) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.press != p {
		// 已放開或移出按鈕
		return
	}
	p.fired = true
	if p.digits == 0 {
		return
	}
	if err := s.opt.Store.Set(p.digits, p.value); err != nil {
		s.log().Warn("save default bet type failed", slog.Int("digits", p.digits), slog.Any("err", err))
		return
	}
	s.log().Info("default bet type saved", slog.Int("digits", p.digits), slog.String("value", p.value))
}

// PressEnd 放開按鈕。未達長按門檻時視為一般點擊（ClickType）；已觸發長按則不再點擊。
// 回傳是否為長按。
func (s *Session) PressEnd() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.press
	if p == nil {
		return false, nil
	}
	s.cancelPressLocked()
	if p.fired {
		return true, nil
	}
	return false, s.clickLocked(p.value)
}

// PressLeave 游標/手指移出按鈕：取消計時，不點擊。
func (s *Session) PressLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPressLocked()
}

func (s *Session) cancelPressLocked() {
	if s.press == nil {
		return
	}
	if s.press.timer != nil {
		s.press.timer.Stop()
	}
	s.press = nil
}
