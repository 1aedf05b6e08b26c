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
	"context"
	"log/slog"
	"slices"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
)

var errSubmitting = errs.Coded(errs.CodeComposition, "submit already in progress")

// Submit 展開所有已確認的行並交給 Sink。
//
//   - 送出期間再次呼叫會直接被拒絕（submitting 旗標）。
//   - 無法解析的行略過，不會讓整張單失敗。
//   - 成功：清掉送出的行與編輯、鎖定狀態，但不關閉，可立即開新單；送單途中新增的行留到下一張單。
//   - 失敗：錯誤以 CodeSubmit 回傳，已確認的行保持不變，使用者可再送一次。
func (s *Session) Submit(ctx context.Context, note string) (*Bill, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return nil, errSubmitting
	}
	defer s.submitting.Store(false)

	if s.opt.Sink == nil {
		return nil, errs.NewFatal("submit sink is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.WrapCode(err, errs.CodeSubmit, "submit canceled")
	}

	s.mu.Lock()
	lines := slices.Clone(s.lines)
	buf := s.buf
	edit := s.edit
	s.mu.Unlock()

	if len(lines) == 0 {
		return nil, errs.Coded(errs.CodeComposition, "no lines to submit")
	}

	bill := Bill{
		Entries:  s.entries(lines),
		BillNote: note,
		RawLines: lines,
	}

	var err error
	if edit != nil {
		err = s.opt.Sink.EditSubmit(ctx, EditBill{
			Bill:           bill,
			OriginalBillID: edit.BillID,
			OriginalItems:  edit.Items,
		})
	} else {
		err = s.opt.Sink.Submit(ctx, bill)
	}
	if err != nil {
		s.log().Warn("submit failed", slog.Int("lines", len(lines)), slog.Any("err", err))
		return nil, errs.WrapCode(err, errs.CodeSubmit, "submit failed")
	}

	s.mu.Lock()
	s.cancelPressLocked()
	kept := s.settleLocked(len(lines), buf)
	s.mu.Unlock()

	s.log().Info("bill submitted",
		slog.Int("lines", len(lines)),
		slog.Int("entries", len(bill.Entries)),
		slog.Int("amount", bet.SumAmount(bill.Entries)),
		slog.Int("kept", kept),
	)
	return &bill, nil
}

// settleLocked 送單成功後只移除已送出的前 n 行；送單途中新增的行與改過的緩衝留著。
// 送單期間 EditLine/DeleteLine 被拒，所以前 n 行不會變動。回傳留下的行數。
func (s *Session) settleLocked(n int, buf string) int {
	rest := slices.Clone(s.lines[min(n, len(s.lines)):])
	cur := s.buf
	s.resetLocked()
	if len(rest) > 0 {
		s.lines = rest
	}
	if cur != buf {
		s.buf = cur
	}
	return len(rest)
}

// entries 每行一個 EntryID，依行序串接所有展開結果。
func (s *Session) entries(lines []string) []bet.Entry {
	out := make([]bet.Entry, 0, len(lines)*2)
	for _, line := range lines {
		es := s.expandLine(line, s.opt.NewID())
		if es == nil {
			s.log().Debug("skip unparsable line", slog.String("line", line))
			continue
		}
		out = append(out, es...)
	}
	return out
}
