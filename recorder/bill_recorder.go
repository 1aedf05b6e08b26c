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

package recorder

import (
	"context"
	"slices"
	"sync"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/session"
	"github.com/zintix-labs/huaylab/stats"
)

// BillRecorder 注單紀錄員
//
// 實作 session.Sink：把送出的單據留在記憶體，並透過 Done 輸出統計報表。
// 修改單（EditSubmit）會取代同一張原單的紀錄。
type BillRecorder struct {
	mu    sync.Mutex
	Title string
	Basic *BasicRecord
	Type  map[bet.BetType]*TypeRecord
	Dist  *DistRecord
	bills []session.Bill
}

// BasicRecord 基本紀錄
type BasicRecord struct {
	Bills       int
	Lines       int
	Skipped     int
	Entries     int
	TotalAmount int
	MaxEntry    int
}

// TypeRecord 單一玩法的累計
type TypeRecord struct {
	Entries int
	Amount  int
}

// DistRecord 單筆金額區間落點
type DistRecord struct {
	EntryCollect  []int
	AmountCollect []int
}

func NewBillRecorder(title string) *BillRecorder {
	return &BillRecorder{
		Title: title,
		Basic: new(BasicRecord),
		Type:  make(map[bet.BetType]*TypeRecord, len(bet.AllBetTypes)),
		Dist:  newDistRecord(),
	}
}

func newDistRecord() *DistRecord {
	return &DistRecord{
		EntryCollect:  make([]int, stats.AmountBuckets.Len()),
		AmountCollect: make([]int, stats.AmountBuckets.Len()),
	}
}

func MergeBillRecorder(title string, r []*BillRecorder) (*BillRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge bill record err : no recorder")
	}
	s := NewBillRecorder(title)
	for _, v := range r {
		v.mu.Lock()
		s.Basic.Bills += v.Basic.Bills
		s.Basic.Lines += v.Basic.Lines
		s.Basic.Skipped += v.Basic.Skipped
		s.Basic.Entries += v.Basic.Entries
		s.Basic.TotalAmount += v.Basic.TotalAmount
		s.Basic.MaxEntry = max(s.Basic.MaxEntry, v.Basic.MaxEntry)
		for bt, tr := range v.Type {
			s.typeRecord(bt).Entries += tr.Entries
			s.typeRecord(bt).Amount += tr.Amount
		}
		for i := range v.Dist.EntryCollect {
			s.Dist.EntryCollect[i] += v.Dist.EntryCollect[i]
			s.Dist.AmountCollect[i] += v.Dist.AmountCollect[i]
		}
		s.bills = append(s.bills, v.bills...)
		v.mu.Unlock()
	}
	return s, nil
}

// Submit session.Sink
func (s *BillRecorder) Submit(ctx context.Context, b session.Bill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(b)
	s.bills = append(s.bills, b)
	return nil
}

// EditSubmit session.Sink：原單的數量從統計中扣除後再記錄新單。
func (s *BillRecorder) EditSubmit(ctx context.Context, b session.EditBill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unrecordEntries(b.OriginalItems)
	s.record(b.Bill)
	s.bills = append(s.bills, b.Bill)
	return nil
}

// Record 直接記錄一張單（離線批次使用）。skipped 為無法解析而略過的行數。
func (s *BillRecorder) Record(b session.Bill, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(b)
	s.Basic.Skipped += skipped
	s.bills = append(s.bills, b)
}

// Bills 已記錄的單據（複本）。
func (s *BillRecorder) Bills() []session.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bills)
}

func (s *BillRecorder) Done() *stats.BillReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &stats.BillReport{
		Summary: &stats.SummaryReport{
			Title:       s.Title,
			Bills:       s.Basic.Bills,
			Lines:       s.Basic.Lines,
			Skipped:     s.Basic.Skipped,
			Entries:     s.Basic.Entries,
			TotalAmount: s.Basic.TotalAmount,
			MaxEntry:    s.Basic.MaxEntry,
		},
		Dist: &stats.DistReport{
			AmountBucket:  stats.AmountBuckets.Labels(),
			EntryCollect:  slices.Clone(s.Dist.EntryCollect),
			AmountCollect: slices.Clone(s.Dist.AmountCollect),
		},
	}
	// 依玩法表順序輸出，沒有注單的玩法不列
	for _, bt := range bet.AllBetTypes {
		tr, ok := s.Type[bt]
		if !ok || tr.Entries == 0 {
			continue
		}
		report.ByType = append(report.ByType, stats.TypeReport{
			BetType: bt,
			Entries: tr.Entries,
			Amount:  tr.Amount,
		})
	}
	report.Done()
	return report
}

func (s *BillRecorder) record(b session.Bill) {
	s.Basic.Bills++
	s.Basic.Lines += len(b.RawLines)
	for _, e := range b.Entries {
		s.Basic.Entries++
		s.Basic.TotalAmount += e.Amount
		if e.Amount > s.Basic.MaxEntry {
			s.Basic.MaxEntry = e.Amount
		}
		tr := s.typeRecord(e.BetType)
		tr.Entries++
		tr.Amount += e.Amount

		idx := stats.AmountBuckets.Index(e.Amount)
		s.Dist.EntryCollect[idx]++
		s.Dist.AmountCollect[idx] += e.Amount
	}
}

// unrecordEntries 修改單：扣掉原單的注單（MaxEntry 不回退）。
func (s *BillRecorder) unrecordEntries(es []bet.Entry) {
	for _, e := range es {
		s.Basic.Entries--
		s.Basic.TotalAmount -= e.Amount
		tr := s.typeRecord(e.BetType)
		tr.Entries--
		tr.Amount -= e.Amount

		idx := stats.AmountBuckets.Index(e.Amount)
		s.Dist.EntryCollect[idx]--
		s.Dist.AmountCollect[idx] -= e.Amount
	}
	if len(es) > 0 {
		s.Basic.Bills--
	}
}

func (s *BillRecorder) typeRecord(bt bet.BetType) *TypeRecord {
	tr, ok := s.Type[bt]
	if !ok {
		tr = new(TypeRecord)
		s.Type[bt] = tr
	}
	return tr
}
