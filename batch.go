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
	"io"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/recorder"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/session"
	"github.com/zintix-labs/huaylab/stats"
)

// BillText 一張單據的原始文字（一行一注）。
type BillText struct {
	Name string
	Text string
}

// SplitBills 以空白行切分多張單據，名稱為 "<name>#<n>"（n 從 1 起算）。
func SplitBills(name, text string) []BillText {
	var out []BillText
	var cur []string
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, BillText{Name: fmt.Sprintf("%s#%d", name, len(out)+1), Text: strings.Join(cur, "\n")})
		cur = cur[:0]
	}
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) == "" {
			flush()
			continue
		}
		cur = append(cur, l)
	}
	flush()
	return out
}

// BatchOptions 離線批次展開設定。
type BatchOptions struct {
	Workers  int    // 併發數，<=0 視為 1
	Progress bool   // 顯示進度條
	Title    string // 報表標題，空字串用 round 名稱

	// OnBill 每張單據展開後呼叫（由各 worker 併發呼叫，實作需自行同步）。
	OnBill func(session.Bill)
}

// ExpandBills 依 round 設定並行展開多張單據，合併統計後回傳報表與用時。
//
// 無法解析的行不會中斷批次，只計入 Skipped。ctx 取消時回傳 ctx 的錯誤。
func (h *HuayLab) ExpandBills(ctx context.Context, round string, bills []BillText, opt BatchOptions) (*stats.BillReport, time.Duration, error) {
	rs, err := h.RoundSetting(round)
	if err != nil {
		return nil, 0, err
	}
	if len(bills) == 0 {
		return nil, 0, errs.NewWarn("no bills to expand")
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, errs.Wrap(err, "expand bills canceled")
	}
	mp := max(1, min(opt.Workers, len(bills)))
	title := opt.Title
	if title == "" {
		title = rs.RoundName
	}
	eo := expand.Options{SetPrice: rs.SetPrice, Lottery: rs.LotteryType}

	recs := make([]*recorder.BillRecorder, mp)
	for i := range recs {
		recs[i] = recorder.NewBillRecorder(title)
	}
	bar := pb.StartNew(len(bills))
	if !opt.Progress {
		bar.SetWriter(io.Discard)
	}

	jobs := make(chan BillText)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, b := range bills {
			select {
			case jobs <- b:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < mp; w++ {
		rec := recs[w]
		g.Go(func() error {
			for b := range jobs {
				bill, skipped := expandBill(b, eo)
				rec.Record(bill, skipped)
				if opt.OnBill != nil {
					opt.OnBill(bill)
				}
				bar.Increment()
			}
			return nil
		})
	}
	err = g.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, used, errs.Wrap(err, "expand bills canceled")
	}

	merged, err := recorder.MergeBillRecorder(title, recs)
	if err != nil {
		return nil, used, err
	}
	return merged.Done(), used, nil
}

func expandBill(b BillText, eo expand.Options) (session.Bill, int) {
	bill := session.Bill{BillNote: b.Name}
	skipped := 0
	for _, line := range strings.Split(b.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_, es, err := ExpandLine(line, uuid.NewString(), eo)
		if err != nil {
			skipped++
			continue
		}
		bill.RawLines = append(bill.RawLines, line)
		bill.Entries = append(bill.Entries, es...)
	}
	return bill, skipped
}
