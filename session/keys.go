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
	"strings"
	"unicode/utf8"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/parse"
)

// 按鍵名稱（HTTP / 鍵盤對應使用）
const (
	KeyEqual     = "="
	KeyStar      = "*"
	KeyBackspace = "backspace"
	KeyEnter     = "enter"
	KeyCommit    = "commit"
	KeyClear     = "clear"
	KeySide      = "side"
	KeyLock      = "lock"
)

// Key 依按鍵名稱分派。數字鍵為 "0"~"9"。
func (s *Session) Key(k string) error {
	switch k {
	case KeyEqual:
		return s.Equal()
	case KeyStar:
		return s.Star()
	case KeyBackspace:
		s.Backspace()
		return nil
	case KeyEnter:
		return s.Enter()
	case KeyCommit:
		return s.Commit()
	case KeyClear:
		s.Clear()
		return nil
	case KeySide:
		s.ToggleTopBottom()
		return nil
	case KeyLock:
		return s.ToggleLock()
	}
	if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		return s.Digit(rune(k[0]))
	}
	return errs.Codedf(errs.CodeComposition, "unknown key: %q", k)
}

// Digit 追加一個數字。
//
// 拒絕（緩衝不變）：已有玩法字、號碼超過 5 位、金額第一位為 0。
func (s *Session) Digit(d rune) error {
	if d < '0' || d > '9' {
		return errs.Codedf(errs.CodeComposition, "not a digit: %q", d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := decompose(s.buf)
	switch {
	case c.typeText != "":
		return errs.Coded(errs.CodeComposition, "cannot add digits after bet type")
	case !c.hasEq:
		if len(c.numbers) >= parse.MaxDigits {
			return errs.Codedf(errs.CodeCapability, "numbers must be %d-%d digits", parse.MinDigits, parse.MaxDigits)
		}
	case !c.hasStar:
		if c.amount1 == "" && d == '0' {
			return errs.Coded(errs.CodeComposition, "amount cannot start with 0")
		}
	default:
		if c.amount2 == "" && d == '0' {
			return errs.Coded(errs.CodeComposition, "amount cannot start with 0")
		}
	}
	s.buf += string(d)
	return nil
}

// Equal 號碼後接 '='。鎖定金額時直接帶入鎖定的金額。
func (s *Session) Equal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := decompose(s.buf)
	if c.hasEq || c.typeText != "" {
		return errs.Coded(errs.CodeComposition, "'=' already entered")
	}
	if c.digits() == 0 {
		return errs.Coded(errs.CodeComposition, "enter numbers before '='")
	}
	if s.locked != "" {
		s.buf = c.numbers + "=" + s.lockFor(c.digits())
		return nil
	}
	s.buf += "="
	return nil
}

// Star 主金額後接 '*'，開始輸入第二金額。只有 2、3 位數可用。
func (s *Session) Star() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := decompose(s.buf)
	switch {
	case c.typeText != "":
		return errs.Coded(errs.CodeComposition, "cannot add '*' after bet type")
	case !c.hasEq:
		return errs.Coded(errs.CodeComposition, "'*' requires '=' first")
	case c.hasStar:
		return errs.Coded(errs.CodeComposition, "'*' already entered")
	case !parse.IsDigits(c.amount1):
		return errs.Coded(errs.CodeComposition, "enter amount before '*'")
	case !pairDigits(c.digits()):
		return errs.Codedf(errs.CodeCapability, "%d-digit numbers cannot take a second amount", c.digits())
	}
	s.buf += "*"
	return nil
}

// Backspace 若結尾是「空白 + 玩法字」整段刪除，否則刪一個字元。
func (s *Session) Backspace() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf == "" {
		return
	}
	if label, ok := bet.TrailingLabel(s.buf); ok {
		s.buf = s.buf[:len(s.buf)-len(label)-1]
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.buf)
	s.buf = s.buf[:len(s.buf)-size]
}

// ToggleTopBottom 切換上/下偏向，影響可選按鈕與預設玩法。
func (s *Session) ToggleTopBottom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.side == bet.SideBottom {
		s.side = bet.SideTop
	} else {
		s.side = bet.SideBottom
	}
}

// ToggleLock 鎖定目前緩衝的金額段（"50" 或 "50*30"）；已鎖定時解除。
func (s *Session) ToggleLock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked != "" {
		s.locked = ""
		return nil
	}
	c := decompose(s.buf)
	if !parse.IsDigits(c.amount1) {
		return errs.Coded(errs.CodeComposition, "enter an amount to lock")
	}
	s.locked = c.amounts()
	return nil
}

// lockFor 依位數取鎖定金額：不能下兩個金額的位數只取主金額。
func (s *Session) lockFor(digits int) string {
	if pairDigits(digits) {
		return s.locked
	}
	a1, _, _ := strings.Cut(s.locked, "*")
	return a1
}
