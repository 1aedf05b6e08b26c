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
	"strconv"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/perm"
)

// Button 面板上的一個玩法按鈕。
type Button struct {
	Label      string          `json:"label"`
	Value      string          `json:"value"`
	BetType    bet.BetType     `json:"bet_type"`
	Special    bet.SpecialType `json:"special_type,omitempty"`
	AutoSubmit bool            `json:"auto_submit"`
	IsDefault  bool            `json:"is_default"`
}

// Candidates 依目前緩衝（位數、是否有第二金額）、上/下切換與彩種列出可點的玩法按鈕。
// 緩衝沒有號碼時回傳 nil。
func (s *Session) Candidates() []Button {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidatesLocked()
}

func (s *Session) candidatesLocked() []Button {
	c := decompose(s.buf)
	n := c.digits()
	if n == 0 {
		return nil
	}
	labels := bet.Candidates(n, c.hasSecond(), s.side, s.opt.Lottery)
	def, _ := s.defaultLabelLocked(n, c.hasSecond())
	out := make([]Button, 0, len(labels))
	for _, l := range labels {
		out = append(out, Button{
			Label:      l.Text,
			Value:      l.Value(),
			BetType:    l.BetType,
			Special:    l.Special,
			AutoSubmit: s.opt.AutoSubmit,
			IsDefault:  l.Value() == def.Value(),
		})
	}
	return out
}

// ClickType 點選玩法按鈕：把緩衝改寫為 "號碼=金額1[*金額2] 玩法"。
//
//   - กลับ / เต็งโต๊ด 沒有第二金額時沿用主金額。
//   - 3 位數 คูณชุด 的第二金額固定為排列數（不是使用者金額）。
//   - 緩衝只有號碼但已鎖定金額時，使用鎖定金額。
//   - AutoSubmit 時直接確認該行；失敗則緩衝不變。
func (s *Session) ClickType(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clickLocked(value)
}

func (s *Session) clickLocked(value string) error {
	c := decompose(s.buf)
	n := c.digits()
	if n == 0 {
		return errs.Coded(errs.CodeComposition, "enter numbers first")
	}

	l, ok := pick(bet.Candidates(n, c.hasSecond(), s.side, s.opt.Lottery), value)
	if !ok {
		return errs.Codedf(errs.CodeCapability, "bet type %q is not available for %d digits", value, n)
	}

	a1, a2 := c.amount1, c.amount2
	if !c.hasSecond() {
		a2 = ""
	}
	if a1 == "" && s.locked != "" {
		lc := decompose(c.numbers + "=" + s.lockFor(n))
		a1, a2 = lc.amount1, lc.amount2
	}
	if a1 == "" {
		return errs.Coded(errs.CodeComposition, "enter amount first")
	}

	if l.NeedsSecondAmount() {
		switch l.Special {
		case bet.SpecialSet:
			a2 = strconv.Itoa(perm.Count(c.numbers))
		default:
			if a2 == "" {
				a2 = a1
			}
		}
	}
	if !pairDigits(n) {
		a2 = ""
	}

	text := c.numbers + "=" + a1
	if a2 != "" {
		text += "*" + a2
	}
	text += " " + l.Text

	if s.opt.AutoSubmit {
		return s.pushLocked(text)
	}
	s.buf = text
	return nil
}
