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

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/parse"
)

// Enter 依緩衝狀態做「自動補完」，補不下去才確認該行。優先序：
//
//  1. 緩衝空 + 已有行：把最後一行的號碼與金額（去掉玩法字）帶回緩衝，讓使用者改選玩法。
//  2. 只有號碼、未鎖定金額：補 '='。
//  3. "號碼=金額"（2、3 位數）：補 '*'。
//  4. "號碼=金額*"（2、3 位數）：第二金額沿用主金額。
//  5~7. 同 Commit。
func (s *Session) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := decompose(s.buf)
	n := c.digits()
	switch {
	case s.buf == "":
		if len(s.lines) == 0 {
			return nil
		}
		s.buf = parse.StripType(s.lines[len(s.lines)-1])
		return nil
	case c.bareDigits() && s.locked == "":
		s.buf += "="
		return nil
	case c.typeText == "" && c.hasEq && parse.IsDigits(c.amount1) && !c.hasStar && pairDigits(n):
		s.buf += "*"
		return nil
	case c.typeText == "" && c.hasStar && c.amount2 == "" && parse.IsDigits(c.amount1) && pairDigits(n):
		s.buf += c.amount1
		return nil
	}
	return s.commitLocked()
}

// Commit 確認目前緩衝（「加入」鍵），不做 Enter 的 1~4 補完：
//
//  5. 鎖定金額 + 只有號碼：帶入鎖定金額與預設玩法。
//  6. "號碼=金額[...]" 沒有玩法字：補上預設玩法（使用者長按設定的，或依位數/上下推算）。
//  7. 其餘直接解析；成功則新增一行（或覆寫編輯中的行）並清空緩衝，失敗則緩衝不變。
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Session) commitLocked() error {
	text, err := s.completeLocked(s.buf)
	if err != nil {
		return err
	}
	return s.pushLocked(text)
}

// completeLocked 依規則 5、6 補完，回傳準備解析的文字（不改動緩衝）。
func (s *Session) completeLocked(buf string) (string, error) {
	c := decompose(buf)
	n := c.digits()

	if c.bareDigits() && s.locked != "" {
		c = decompose(c.numbers + "=" + s.lockFor(n))
	}
	if c.typeText == "" && c.hasEq && parse.IsDigits(c.amount1) {
		if c.hasStar && c.amount2 == "" {
			c.hasStar = false
		}
		l, err := s.defaultLabelLocked(n, c.hasSecond())
		if err != nil {
			return "", err
		}
		return c.numbers + "=" + c.amounts() + " " + l.Text, nil
	}
	return buf, nil
}

// pushLocked 解析並確認一行。
func (s *Session) pushLocked(text string) error {
	p, err := s.validate(text)
	if err != nil {
		return err
	}
	if p == nil {
		return errs.Coded(errs.CodeComposition, "nothing to commit")
	}
	if s.editIdx >= 0 && s.submitting.Load() {
		return errSubmitting
	}
	if s.editIdx >= 0 && s.editIdx < len(s.lines) {
		s.lines[s.editIdx] = text
		s.log().Debug("line revised", slog.Int("index", s.editIdx), slog.String("line", text))
	} else {
		s.lines = append(s.lines, text)
		s.log().Debug("line committed", slog.Int("index", len(s.lines)-1), slog.String("line", text))
	}
	s.editIdx = -1
	s.buf = ""
	return nil
}

// validate 解析一行並檢查位數/彩種能力。空行回傳 (nil, nil)。
func (s *Session) validate(text string) (*bet.ParsedBet, error) {
	p, err := parse.Parse(text)
	if err != nil || p == nil {
		return p, err
	}
	if p.ReverseAmount != nil && !pairDigits(len(p.Numbers)) {
		return nil, errs.Codedf(errs.CodeCapability, "%d-digit numbers cannot take a second amount", len(p.Numbers))
	}
	if p.BetType == bet.ThreeBottom && !labelAvailable(3, bet.ThreeBottom, s.opt.Lottery) {
		return nil, errs.Codedf(errs.CodeCapability, "3 ตัวล่าง is not available for %s", s.opt.Lottery)
	}
	if p.BetType == bet.FourSet && !labelAvailable(4, bet.FourSet, s.opt.Lottery) {
		return nil, errs.Codedf(errs.CodeCapability, "4 ตัวชุด is not available for %s", s.opt.Lottery)
	}
	return p, nil
}

func labelAvailable(digits int, bt bet.BetType, lt bet.LotteryType) bool {
	for _, l := range bet.LabelsFor(digits) {
		if l.BetType == bt && l.AvailableFor(lt) {
			return true
		}
	}
	return false
}

// defaultLabelLocked 決定某位數的預設玩法：偏好 → 設定檔 → 目前可選按鈕的第一個。
// 偏好或設定檔的值必須落在目前可選的按鈕中才採用。
func (s *Session) defaultLabelLocked(digits int, hasSecond bool) (bet.Label, error) {
	cands := bet.Candidates(digits, hasSecond, s.side, s.opt.Lottery)
	if len(cands) == 0 {
		return bet.Label{}, errs.Codedf(errs.CodeCapability, "no bet type available for %d digits", digits)
	}
	if v, ok := s.opt.Store.Get(digits); ok {
		if l, ok := pick(cands, v); ok {
			return l, nil
		}
	}
	if v, ok := s.opt.Defaults[digits]; ok {
		if l, ok := pick(cands, v); ok {
			return l, nil
		}
	}
	return cands[0], nil
}

func pick(cands []bet.Label, value string) (bet.Label, bool) {
	for _, l := range cands {
		if l.Value() == value {
			return l, true
		}
	}
	return bet.Label{}, false
}
