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

package stats_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/session"
	"github.com/zintix-labs/huaylab/stats"
	"gopkg.in/yaml.v3"
)

func buildBillReport() *stats.BillReport {
	return &stats.BillReport{
		Summary: &stats.SummaryReport{
			Title:       "งวด 16/10",
			Bills:       2,
			Lines:       3,
			Entries:     4,
			TotalAmount: 1200,
			MaxEntry:    1000,
		},
		ByType: []stats.TypeReport{
			{BetType: bet.TwoTop, Entries: 3, Amount: 200},
			{BetType: bet.ThreeTod, Entries: 1, Amount: 1000},
		},
		Dist: &stats.DistReport{
			AmountBucket:  stats.AmountBuckets.Labels(),
			EntryCollect:  []int{0, 0, 2, 1, 0, 1, 0},
			AmountCollect: []int{0, 0, 100, 100, 0, 1000, 0},
		},
	}
}

func TestBillReportDone(t *testing.T) {
	rep := buildBillReport()
	rep.Done()
	if got := rep.ByType[1].Share; math.Abs(got-1000.0/1200.0) > 1e-12 {
		t.Fatalf("share got %.6f", got)
	}
	if got := rep.Avg(); got != 300 {
		t.Fatalf("avg got %.2f", got)
	}
	sum := 0.0
	for _, d := range rep.Dist.EntryDist {
		sum += d
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("entry dist sums to %.6f", sum)
	}
	rep.Done() // idempotent
}

func TestRenderBillAlignsThai(t *testing.T) {
	var buf bytes.Buffer
	if err := stats.RenderBill(&buf, buildBillReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "1,200") || !strings.Contains(out, "3_tod") {
		t.Fatalf("missing content:\n%s", out)
	}
	// 同一張表的每一行顯示寬度一致
	lines := strings.Split(strings.TrimSpace(out), "\n")
	width := runewidth.StringWidth(lines[0])
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "+") && runewidth.StringWidth(l) != width {
			// 第二張表
			width = runewidth.StringWidth(l)
		}
		if w := runewidth.StringWidth(l); w != width {
			t.Fatalf("misaligned line %q (%d != %d)\n%s", l, w, width, out)
		}
	}
}

func TestWriteFormats(t *testing.T) {
	var jb bytes.Buffer
	if err := stats.Write(&jb, stats.FormatJSON, buildBillReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(jb.String(), `"TotalAmount":1200`) || !strings.Contains(jb.String(), `"Share":0.8333`) {
		t.Fatalf("json should be written after Done: %s", jb.String())
	}

	var yb bytes.Buffer
	if err := stats.Write(&yb, stats.FormatYAML, buildBillReport()); err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &back); err != nil {
		t.Fatalf("yaml: %v\n%s", err, yb.String())
	}
	if !strings.Contains(yb.String(), "[0, 0, 2, 1, 0, 1, 0]") {
		t.Fatalf("inner lists should be flow style:\n%s", yb.String())
	}

	var tb bytes.Buffer
	if err := stats.Write(&tb, stats.FormatTable, buildBillReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tb.String(), "By Bet Type") {
		t.Fatalf("table:\n%s", tb.String())
	}
	if err := stats.Write(&tb, stats.FormatTable, map[string]int{"x": 1}); err == nil {
		t.Fatalf("plain maps have no table layout")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]stats.Format{"": stats.FormatTable, "JSON": stats.FormatJSON, " yaml ": stats.FormatYAML} {
		got, err := stats.ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := stats.ParseFormat("csv"); err == nil {
		t.Fatalf("csv is not supported")
	}
}

func slipEntries() []bet.Entry {
	return []bet.Entry{
		{Numbers: "12", Amount: 50, BetType: bet.TwoTop, EntryID: "a", DisplayText: "12=50*30 บนกลับ", DisplayAmount: 80},
		{Numbers: "21", Amount: 30, BetType: bet.TwoTop, EntryID: "a", DisplayText: "12=50*30 บนกลับ", DisplayAmount: 80},
		{Numbers: "55", Amount: 50, BetType: bet.TwoTop, EntryID: "b", DisplayText: "55=50 2 ตัวบน", DisplayAmount: 50},
	}
}

func TestSlipGroupsByLine(t *testing.T) {
	slip := stats.NewBillSlip(session.Bill{BillNote: "โต๊ะ 3", Entries: slipEntries()})
	want := session.Totals{Lines: 2, Entries: 3, Amount: 130}
	if slip.Title != "โต๊ะ 3" || slip.Totals != want {
		t.Fatalf("slip: %+v", slip)
	}
	if l := slip.Lines[0]; l.Text != "12=50*30 บนกลับ" || l.Entries != 2 || l.Amount != 80 {
		t.Fatalf("first line: %+v", l)
	}

	var buf bytes.Buffer
	if err := stats.Write(&buf, stats.FormatTable, slip); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "1. 12=50*30 บนกลับ") || !strings.Contains(out, "80 (2)") || !strings.Contains(out, "130") {
		t.Fatalf("table:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, l := range lines {
		if runewidth.StringWidth(l) != runewidth.StringWidth(lines[0]) {
			t.Fatalf("misaligned %q\n%s", l, out)
		}
	}

	var yb bytes.Buffer
	if err := stats.Write(&yb, stats.FormatYAML, slip); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(yb.String(), "amount: 130") {
		t.Fatalf("yaml:\n%s", yb.String())
	}
}

func TestAmountBuckets(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 9: 0, 10: 1, 49: 1, 50: 2, 100: 3, 999: 4, 1000: 5, 5000: 6, 1 << 30: 6}
	for amount, want := range cases {
		if got := stats.AmountBuckets.Index(amount); got != want {
			t.Fatalf("Index(%d) got %d want %d", amount, got, want)
		}
	}
}
