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

package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/huaylab/bet"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// BillReport 一批注單的統計報告
type BillReport struct {
	Summary *SummaryReport `json:"Summary"`
	ByType  []TypeReport   `json:"ByType"`
	Dist    *DistReport    `json:"Dist"`
	isDone  bool
}

type SummaryReport struct {
	Title       string `json:"Title"`
	Bills       int    `json:"Bills"`
	Lines       int    `json:"Lines"`
	Skipped     int    `json:"Skipped"`
	Entries     int    `json:"Entries"`
	TotalAmount int    `json:"TotalAmount"`
	MaxEntry    int    `json:"MaxEntry"`
}

// TypeReport 單一玩法的合計
type TypeReport struct {
	BetType bet.BetType `json:"BetType"`
	Entries int         `json:"Entries"`
	Amount  int         `json:"Amount"`
	Share   float64     `json:"Share"` // 佔總金額比例
}

// DistReport 單筆注單金額落點統計
type DistReport struct {
	AmountBucket  []string  `json:"AmountBucket"`
	EntryCollect  []int     `json:"EntryCollect"`
	AmountCollect []int     `json:"AmountCollect"`
	EntryDist     []float64 `json:"EntryDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為比例並鎖定 isDone 標記。
func (s *BillReport) Done() {
	if s.isDone {
		return
	}
	total := float64(s.Summary.TotalAmount)
	for i := range s.ByType {
		if total > 0 {
			s.ByType[i].Share = float64(s.ByType[i].Amount) / total
		}
	}
	if s.Dist != nil {
		s.Dist.EntryDist = make([]float64, len(s.Dist.EntryCollect))
		if s.Summary.Entries > 0 {
			n := float64(s.Summary.Entries)
			for i, c := range s.Dist.EntryCollect {
				s.Dist.EntryDist[i] = float64(c) / n
			}
		}
	}
	s.isDone = true
}

// Avg 平均每筆注單金額
func (s *BillReport) Avg() float64 {
	if s.Summary.Entries == 0 {
		return 0
	}
	return float64(s.Summary.TotalAmount) / float64(s.Summary.Entries)
}

// RenderBill 以文字表格輸出摘要與各玩法合計（泰文寬度以 runewidth 計算）。
func RenderBill(w io.Writer, s *BillReport) error {
	s.Done()
	sk, sm := s.fmtBasic()
	if _, err := io.WriteString(w, fmtTable(s.Summary.Title, sk, sm)); err != nil {
		return err
	}
	if len(s.ByType) == 0 {
		return nil
	}
	tk, tm := s.fmtByType()
	_, err := io.WriteString(w, fmtTable("By Bet Type", tk, tm))
	return err
}

func (s *BillReport) StdOut(ut time.Duration) {
	formatDuration(ut, s.Summary.Lines)
	var sb strings.Builder
	_ = RenderBill(&sb, s)
	fmt.Print(sb.String())
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, lines int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	lps := int(float64(lines) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nlps : %d lines/sec\n", sec, lps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nlps : %d lines/sec\n", m, s, lps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nlps : %d lines/sec\n", h, m, s, lps)
}

func (s *BillReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Bills":        p.Sprintf("%d", s.Summary.Bills),
		"Lines":        p.Sprintf("%d", s.Summary.Lines),
		"Skipped":      p.Sprintf("%d", s.Summary.Skipped),
		"Entries":      p.Sprintf("%d", s.Summary.Entries),
		"Total Amount": p.Sprintf("%d", s.Summary.TotalAmount),
		"Avg / Entry":  p.Sprintf("%.2f", s.Avg()),
		"Max Entry":    p.Sprintf("%d", s.Summary.MaxEntry),
	}
	keys := []string{"Bills", "Lines", "Skipped", "Entries", "Total Amount", "Avg / Entry", "Max Entry"}
	return keys, basic
}

func (s *BillReport) fmtByType() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.ByType))
	m := make(map[string]string, len(s.ByType))
	for _, t := range s.ByType {
		k := string(t.BetType)
		keys = append(keys, k)
		m[k] = p.Sprintf("%d (%d) %.1f%%", t.Amount, t.Entries, 100.0*t.Share)
	}
	return keys, m
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	// 標題比兩欄加起來還寬時，加寬值欄
	if tw := runewidth.StringWidth(title); tw > maxKeyLen+maxValLen+1 {
		maxValLen = tw - maxKeyLen - 1
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
