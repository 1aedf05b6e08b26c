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

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/sdk/parse"
)

// EditLine 把第 i 行帶回緩衝進入編輯；下一次確認會覆寫該行。
// 送單途中不能改動已確認的行（新增可以）。
func (s *Session) EditLine(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting.Load() {
		return errSubmitting
	}
	if i < 0 || i >= len(s.lines) {
		return errs.Codedf(errs.CodeComposition, "line %d does not exist", i)
	}
	s.editIdx = i
	s.buf = parse.Canonical(s.lines[i])
	return nil
}

// CancelEdit 離開編輯並清空緩衝。
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editIdx = -1
	s.buf = ""
}

// DeleteLine 刪除第 i 行。
//   - 刪的是編輯中的行：離開編輯並清空緩衝。
//   - 刪完沒有任何行：同時解除鎖定金額。
func (s *Session) DeleteLine(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting.Load() {
		return errSubmitting
	}
	if i < 0 || i >= len(s.lines) {
		return errs.Codedf(errs.CodeComposition, "line %d does not exist", i)
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	switch {
	case i == s.editIdx:
		s.editIdx = -1
		s.buf = ""
	case i < s.editIdx:
		s.editIdx--
	}
	if len(s.lines) == 0 {
		s.locked = ""
	}
	return nil
}

// AddText 貼上多行文字：每一行各自補完預設玩法後解析，成功的行加入，失敗的行回報行號。
func (s *Session) AddText(text string) (int, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	var failed []error
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		full, err := s.completeLocked(parse.Canonical(line))
		if err == nil {
			_, err = s.validate(full)
		}
		if err != nil {
			failed = append(failed, errs.Codedf(errs.CodeOf(err), "line %d: %s", i+1, errs.UserMessage(err)))
			continue
		}
		s.lines = append(s.lines, full)
		added++
	}
	return added, failed
}

// Preview 即時預覽目前緩衝展開後的注單（不確認）。
// 沒有玩法字時以預設玩法預覽。
func (s *Session) Preview() ([]bet.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := s.completeLocked(s.buf)
	if err != nil {
		return nil, err
	}
	p, err := s.validate(text)
	if err != nil || p == nil {
		return nil, err
	}
	return expand.Expand(p, "", text, s.expandOptions()), nil
}

// Totals 已確認各行的統計。
type Totals struct {
	Lines   int `json:"lines"`
	Entries int `json:"entries"`
	Amount  int `json:"amount"`
}

func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

func (s *Session) totalsLocked() Totals {
	t := Totals{Lines: len(s.lines)}
	for _, line := range s.lines {
		es := s.expandLine(line, "")
		t.Entries += len(es)
		t.Amount += expand.DisplayAmount(es)
	}
	return t
}

// expandLine 解析並展開一行；解析失敗回傳 nil（已確認的行理論上不會失敗）。
func (s *Session) expandLine(line, entryID string) []bet.Entry {
	p, err := parse.Parse(line)
	if err != nil || p == nil {
		return nil
	}
	return expand.Expand(p, entryID, line, s.expandOptions())
}

func (s *Session) expandOptions() expand.Options {
	return expand.Options{SetPrice: s.opt.SetPrice, Lottery: s.opt.Lottery}
}

// Snapshot 面板目前的完整狀態（給 UI / API 顯示）。
type Snapshot struct {
	ID         string   `json:"id"`
	Lottery    string   `json:"lottery"`
	Buffer     string   `json:"buffer"`
	State      string   `json:"state"`
	Lines      []string `json:"lines"`
	EditIndex  int      `json:"edit_index"`
	Side       string   `json:"side"`
	Locked     string   `json:"locked,omitempty"`
	Editing    string   `json:"editing_bill,omitempty"`
	Submitting bool     `json:"submitting"`
	Candidates []Button `json:"candidates"`
	Totals     Totals   `json:"totals"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	side := "top"
	if s.side == bet.SideBottom {
		side = "bottom"
	}
	snap := Snapshot{
		ID:         s.id,
		Lottery:    string(s.opt.Lottery),
		Buffer:     s.buf,
		State:      decompose(s.buf).state().String(),
		Lines:      append([]string{}, s.lines...),
		EditIndex:  s.editIdx,
		Side:       side,
		Locked:     s.locked,
		Submitting: s.submitting.Load(),
		Candidates: s.candidatesLocked(),
		Totals:     s.totalsLocked(),
	}
	if s.edit != nil {
		snap.Editing = s.edit.BillID
	}
	return snap
}
