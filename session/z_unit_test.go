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
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/prefs"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock 只記錄計時，由測試呼叫 fire 觸發。
type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Stopper {
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fire() {
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

type fakeSink struct {
	mu    sync.Mutex
	bills []Bill
	edits []EditBill
	err   error
	block chan struct{}
}

func (f *fakeSink) Submit(ctx context.Context, b Bill) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bills = append(f.bills, b)
	return nil
}

func (f *fakeSink) EditSubmit(ctx context.Context, b EditBill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.edits = append(f.edits, b)
	return nil
}

func newSession(t *testing.T, opt Options) *Session {
	t.Helper()
	seq := 0
	if opt.NewID == nil {
		opt.NewID = func() string {
			seq++
			return "id-" + strconv.Itoa(seq)
		}
	}
	s, err := New(opt)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func typeKeys(t *testing.T, s *Session, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if err := s.Key(k); err != nil {
			t.Fatalf("key %q: %v (buffer %q)", k, err, s.Buffer())
		}
	}
}

func typeString(t *testing.T, s *Session, str string) {
	t.Helper()
	for _, r := range str {
		typeKeys(t, s, string(r))
	}
}

func TestEnterAutoCompletes(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "123")

	steps := []struct {
		digits string
		want   string
		state  State
	}{
		{"", "123=", StateNumbersEq},
		{"50", "123=50*", StateAmount1Star},
		{"", "123=50*50", StateAmount2},
	}
	for _, st := range steps {
		typeString(t, s, st.digits)
		typeKeys(t, s, KeyEnter)
		if got := s.Buffer(); got != st.want {
			t.Fatalf("buffer: got %q want %q", got, st.want)
		}
		if s.State() != st.state {
			t.Fatalf("state: got %v want %v", s.State(), st.state)
		}
	}

	typeKeys(t, s, KeyEnter)
	if s.Buffer() != "" {
		t.Fatalf("buffer should be cleared, got %q", s.Buffer())
	}
	lines := s.Lines()
	if len(lines) != 1 || lines[0] != "123=50*50 เต็งโต๊ด" {
		t.Fatalf("lines: %v", lines)
	}

	// 空緩衝 Enter：帶回最後一行去掉玩法字
	typeKeys(t, s, KeyEnter)
	if s.Buffer() != "123=50*50" {
		t.Fatalf("recall: %q", s.Buffer())
	}
}

func TestEnterFourDigitsSkipsStar(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "1234")
	typeKeys(t, s, KeyEnter)
	typeString(t, s, "20")
	typeKeys(t, s, KeyEnter)
	lines := s.Lines()
	if len(lines) != 1 || lines[0] != "1234=20 ลอยแพ" {
		t.Fatalf("lines: %v", lines)
	}
}

func TestDigitRejections(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "12345")
	err := s.Digit('6')
	if errs.CodeOf(err) != errs.CodeCapability {
		t.Fatalf("6th digit: %v", err)
	}
	typeKeys(t, s, KeyEqual)
	if err := s.Digit('0'); err == nil {
		t.Fatalf("leading zero in amount should be rejected")
	}
	if err := s.Equal(); err == nil {
		t.Fatalf("second '=' should be rejected")
	}
	typeString(t, s, "10")
	if err := s.Star(); errs.CodeOf(err) != errs.CodeCapability {
		t.Fatalf("'*' on 5 digits: %v", err)
	}
	if s.Buffer() != "12345=10" {
		t.Fatalf("buffer changed: %q", s.Buffer())
	}
}

func TestStarRules(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "12")
	if err := s.Star(); err == nil {
		t.Fatalf("'*' before '=' should fail")
	}
	typeKeys(t, s, KeyEqual)
	if err := s.Star(); err == nil {
		t.Fatalf("'*' before amount should fail")
	}
	typeString(t, s, "5")
	typeKeys(t, s, KeyStar)
	if err := s.Star(); err == nil {
		t.Fatalf("duplicate '*' should fail")
	}
	if err := s.Digit('0'); err == nil {
		t.Fatalf("leading zero in second amount should fail")
	}
}

func TestBackspaceRemovesLabel(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "12")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "50")
	if err := s.ClickType("2_bottom"); err == nil {
		t.Fatalf("bottom label should not be offered while side is top")
	}
	typeKeys(t, s, KeySide)
	if err := s.ClickType("2_bottom"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if s.Buffer() != "12=50 2 ตัวล่าง" {
		t.Fatalf("buffer: %q", s.Buffer())
	}
	if err := s.Digit('1'); err == nil {
		t.Fatalf("digit after label should be rejected")
	}
	s.Backspace()
	if s.Buffer() != "12=50" {
		t.Fatalf("after backspace: %q", s.Buffer())
	}
	s.Backspace()
	if s.Buffer() != "12=5" {
		t.Fatalf("after second backspace: %q", s.Buffer())
	}
}

func TestClickTypeAmounts(t *testing.T) {
	cases := []struct {
		name  string
		input string
		value string
		want  string
	}{
		{"reverse copies amount", "12=50", "2_top+reverse", "12=50*50 บนกลับ"},
		{"reverse keeps second", "12=50*30", "2_top+reverse", "12=50*30 บนกลับ"},
		{"tengTod copies amount", "123=20", "3_top+tengTod", "123=20*20 เต็งโต๊ด"},
		{"set uses perm count", "123=10", "3_top+set", "123=10*6 คูณชุด"},
		{"set with double digit", "112=10", "3_top+set", "112=10*3 คูณชุด"},
		{"four digit run", "1234=10", "4_run", "1234=10 ลอยแพ"},
		{"five digit perm", "12345=10", "3_top+3xPerm", "12345=10 คูณชุด"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession(t, Options{})
			for _, r := range tc.input {
				switch r {
				case '=':
					typeKeys(t, s, KeyEqual)
				case '*':
					typeKeys(t, s, KeyStar)
				default:
					typeKeys(t, s, string(r))
				}
			}
			if err := s.ClickType(tc.value); err != nil {
				t.Fatalf("click: %v", err)
			}
			if s.Buffer() != tc.want {
				t.Fatalf("got %q want %q", s.Buffer(), tc.want)
			}
		})
	}
}

func TestReverseLineNeedsCommit(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "12")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "50")
	if err := s.ClickType("2_top+reverse"); err != nil {
		t.Fatal(err)
	}
	typeKeys(t, s, KeyCommit)
	es, err := s.Preview()
	if err != nil || es != nil {
		t.Fatalf("empty preview: %v %v", es, err)
	}
	tot := s.Totals()
	if tot.Lines != 1 || tot.Entries != 2 || tot.Amount != 100 {
		t.Fatalf("totals: %+v", tot)
	}
}

func TestAutoSubmitClick(t *testing.T) {
	s := newSession(t, Options{AutoSubmit: true})
	typeString(t, s, "55")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "20")
	if err := s.ClickType("2_teng"); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() != "" {
		t.Fatalf("buffer: %q", s.Buffer())
	}
	if l := s.Lines(); len(l) != 1 || l[0] != "55=20 2 ตัวลอย" {
		t.Fatalf("lines: %v", l)
	}
}

func TestLockedAmount(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "12")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "50")
	typeKeys(t, s, KeyStar)
	typeString(t, s, "30")
	typeKeys(t, s, KeyLock)
	if s.Locked() != "50*30" {
		t.Fatalf("locked: %q", s.Locked())
	}
	typeKeys(t, s, KeyClear)

	// 2 位數帶入兩個金額
	typeString(t, s, "34")
	typeKeys(t, s, KeyEqual)
	if s.Buffer() != "34=50*30" {
		t.Fatalf("equal with lock: %q", s.Buffer())
	}
	typeKeys(t, s, KeyClear)

	// 4 位數只帶主金額；Enter 直接確認
	typeString(t, s, "1234")
	typeKeys(t, s, KeyEnter)
	if l := s.Lines(); len(l) != 1 || l[0] != "1234=50 ลอยแพ" {
		t.Fatalf("lines: %v", l)
	}

	// 只有號碼 + 玩法按鈕
	typeString(t, s, "99")
	if err := s.ClickType("2_top+reverse"); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() != "99=50*30 บนกลับ" {
		t.Fatalf("click with lock: %q", s.Buffer())
	}

	typeKeys(t, s, KeyLock)
	if s.Locked() != "" {
		t.Fatalf("lock should toggle off")
	}
}

func TestDeleteLastLineClearsLock(t *testing.T) {
	s := newSession(t, Options{})
	if n, fails := s.AddText("12=10 บน"); n != 1 || fails != nil {
		t.Fatalf("add: %d %v", n, fails)
	}
	typeString(t, s, "12")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "5")
	typeKeys(t, s, KeyLock)
	if err := s.DeleteLine(0); err != nil {
		t.Fatal(err)
	}
	if s.Locked() != "" {
		t.Fatalf("lock should be cleared when no lines remain")
	}
	if err := s.DeleteLine(0); err == nil {
		t.Fatalf("delete out of range should fail")
	}
}

func TestEditLine(t *testing.T) {
	s := newSession(t, Options{})
	n, fails := s.AddText("12=10 บน\n34=20 ล่าง\n56=30 2 ตัวบน")
	if n != 3 || fails != nil {
		t.Fatalf("add: %d %v", n, fails)
	}
	if err := s.EditLine(2); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() != "56=30 2 ตัวบน" {
		t.Fatalf("edit buffer: %q", s.Buffer())
	}
	if err := s.DeleteLine(0); err != nil {
		t.Fatal(err)
	}
	if s.EditIndex() != 1 {
		t.Fatalf("edit index should shift: %d", s.EditIndex())
	}
	s.Backspace()
	if s.Buffer() != "56=30" {
		t.Fatalf("label should be removed: %q", s.Buffer())
	}
	typeString(t, s, "0")
	if err := s.ClickType("2_top"); err != nil {
		t.Fatal(err)
	}
	typeKeys(t, s, KeyCommit)
	lines := s.Lines()
	if len(lines) != 2 || lines[1] != "56=300 2 ตัวบน" {
		t.Fatalf("lines: %v", lines)
	}
	if s.EditIndex() != -1 {
		t.Fatalf("edit should end after commit")
	}

	if err := s.EditLine(0); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteLine(0); err != nil {
		t.Fatal(err)
	}
	if s.EditIndex() != -1 || s.Buffer() != "" {
		t.Fatalf("deleting the edited line should cancel edit")
	}
}

func TestAddTextReportsLines(t *testing.T) {
	s := newSession(t, Options{})
	n, fails := s.AddText("12=10\n\nabc\n123=5 3 ตัวบน\n12345=5*5 ลอยแพ")
	if n != 2 {
		t.Fatalf("added: %d", n)
	}
	if len(fails) != 2 {
		t.Fatalf("fails: %v", fails)
	}
	if !strings.Contains(errs.UserMessage(fails[0]), "line 3") {
		t.Fatalf("first failure: %v", fails[0])
	}
	if !strings.Contains(errs.UserMessage(fails[1]), "line 5") {
		t.Fatalf("second failure: %v", fails[1])
	}
	if l := s.Lines(); l[0] != "12=10 2 ตัวบน" {
		t.Fatalf("default type not applied: %v", l)
	}
}

func TestLaoHidesThreeBottom(t *testing.T) {
	s := newSession(t, Options{Lottery: bet.Lao})
	if _, fails := s.AddText("123=10 3 ตัวล่าง"); len(fails) != 1 || errs.CodeOf(fails[0]) != errs.CodeCapability {
		t.Fatalf("3 ตัวล่าง on lao: %v", fails)
	}
	typeString(t, s, "1234")
	found := false
	for _, b := range s.Candidates() {
		if b.BetType == bet.FourSet {
			found = true
		}
	}
	if !found {
		t.Fatalf("lao should offer 4 ตัวชุด")
	}
}

func TestCandidatesMarkDefault(t *testing.T) {
	store := prefs.NewMemStore()
	_ = store.Set(2, "2_teng")
	s := newSession(t, Options{Store: store})
	typeString(t, s, "12")
	var def []string
	for _, b := range s.Candidates() {
		if b.IsDefault {
			def = append(def, b.Value)
		}
	}
	if len(def) != 1 || def[0] != "2_teng" {
		t.Fatalf("default: %v", def)
	}
}

func TestLongPressSavesDefault(t *testing.T) {
	clk := &fakeClock{}
	store := prefs.NewMemStore()
	s := newSession(t, Options{Clock: clk, Store: store})
	typeString(t, s, "12")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "40")

	s.PressStart("2_front")
	clk.fire()
	long, err := s.PressEnd()
	if err != nil || !long {
		t.Fatalf("long press: %v %v", long, err)
	}
	if v, _ := store.Get(2); v != "2_front" {
		t.Fatalf("store: %q", v)
	}
	if s.Buffer() != "12=40" {
		t.Fatalf("long press must not click: %q", s.Buffer())
	}

	typeKeys(t, s, KeyCommit)
	if l := s.Lines(); l[0] != "12=40 2 ตัวหน้า" {
		t.Fatalf("learned default not used: %v", l)
	}
}

func TestShortPressClicks(t *testing.T) {
	clk := &fakeClock{}
	store := prefs.NewMemStore()
	s := newSession(t, Options{Clock: clk, Store: store})
	typeString(t, s, "12")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "40")

	s.PressStart("2_tang")
	long, err := s.PressEnd()
	if err != nil || long {
		t.Fatalf("short press: %v %v", long, err)
	}
	clk.fire()
	if _, ok := store.Get(2); ok {
		t.Fatalf("short press must not save a default")
	}
	if s.Buffer() != "12=40 2 ตัวถ่าง" {
		t.Fatalf("buffer: %q", s.Buffer())
	}

	s.Backspace()
	s.PressStart("2_tang")
	s.PressLeave()
	if _, err := s.PressEnd(); err != nil {
		t.Fatal(err)
	}
	if s.Buffer() != "12=40" {
		t.Fatalf("leave must not click: %q", s.Buffer())
	}
}

func TestSubmit(t *testing.T) {
	sink := &fakeSink{}
	s := newSession(t, Options{Sink: sink})
	if _, fails := s.AddText("12=100 บน"); fails != nil {
		t.Fatal(fails)
	}
	typeString(t, s, "55")
	typeKeys(t, s, KeyEqual)
	typeString(t, s, "50")
	typeKeys(t, s, KeyCommit)

	bill, err := s.Submit(context.Background(), "note")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sink.bills) != 1 {
		t.Fatalf("sink calls: %d", len(sink.bills))
	}
	got := sink.bills[0]
	if len(got.RawLines) != 2 || got.RawLines[1] != "55=50 2 ตัวบน" {
		t.Fatalf("raw lines: %v", got.RawLines)
	}
	if len(got.Entries) != 2 || bet.SumAmount(got.Entries) != 150 || got.BillNote != "note" {
		t.Fatalf("entries: %+v", got.Entries)
	}
	if got.Entries[0].EntryID == got.Entries[1].EntryID {
		t.Fatalf("each line should get its own entry id")
	}
	if bill.BillNote != "note" {
		t.Fatalf("bill: %+v", bill)
	}
	if len(s.Lines()) != 0 || s.Submitting() {
		t.Fatalf("session should reset after submit")
	}
	if _, err := s.Submit(context.Background(), ""); errs.CodeOf(err) != errs.CodeComposition {
		t.Fatalf("empty submit: %v", err)
	}
}

func TestSubmitFailureKeepsLines(t *testing.T) {
	sink := &fakeSink{err: errors.New("credit limit exceeded")}
	s := newSession(t, Options{Sink: sink})
	s.AddText("12=100 บน")
	_, err := s.Submit(context.Background(), "")
	if errs.CodeOf(err) != errs.CodeSubmit {
		t.Fatalf("code: %v", err)
	}
	if !strings.Contains(errs.UserMessage(err), "credit limit exceeded") {
		t.Fatalf("message: %q", errs.UserMessage(err))
	}
	if len(s.Lines()) != 1 {
		t.Fatalf("lines must survive a failed submit")
	}
}

func TestSubmitRejectsReentry(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	s := newSession(t, Options{Sink: sink})
	s.AddText("12=100 บน")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "")
		done <- err
	}()
	deadline := time.Now().Add(time.Second)
	for !s.Submitting() {
		if time.Now().After(deadline) {
			t.Fatal("submit never started")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := s.Submit(context.Background(), ""); err == nil {
		t.Fatalf("second submit should be rejected")
	}
	close(sink.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if len(sink.bills) != 1 {
		t.Fatalf("sink calls: %d", len(sink.bills))
	}
}

func waitSubmitting(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !s.Submitting() {
		if time.Now().After(deadline) {
			t.Fatal("submit never started")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubmitKeepsLinesAddedInFlight(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	s := newSession(t, Options{Sink: sink})
	s.AddText("12=100 บน")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "")
		done <- err
	}()
	waitSubmitting(t, s)

	if n, failed := s.AddText("55=50"); n != 1 || len(failed) != 0 {
		t.Fatalf("add during submit: %d %v", n, failed)
	}
	if err := s.DeleteLine(0); errs.CodeOf(err) != errs.CodeComposition {
		t.Fatalf("delete during submit: %v", err)
	}
	if err := s.EditLine(0); errs.CodeOf(err) != errs.CodeComposition {
		t.Fatalf("edit during submit: %v", err)
	}
	typeString(t, s, "34")

	close(sink.block)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := sink.bills[0].RawLines; len(got) != 1 || got[0] != "12=100 บน" {
		t.Fatalf("submitted: %v", got)
	}
	if got := s.Lines(); len(got) != 1 || got[0] != "55=50 2 ตัวบน" {
		t.Fatalf("kept lines: %v", got)
	}
	if s.Buffer() != "34" {
		t.Fatalf("buffer typed during submit was dropped: %q", s.Buffer())
	}

	// 下一張單只送剩下的行
	if _, err := s.Submit(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if got := sink.bills[1].RawLines; len(got) != 1 || got[0] != "55=50 2 ตัวบน" {
		t.Fatalf("second bill: %v", got)
	}
	if len(s.Lines()) != 0 || s.Buffer() != "" {
		t.Fatalf("after second submit: %v %q", s.Lines(), s.Buffer())
	}
}

func TestFourSetOnlyForSetLotteries(t *testing.T) {
	s := newSession(t, Options{Lottery: bet.Thai})
	n, failed := s.AddText("1234=3 ชุด")
	if n != 0 || len(failed) != 1 || errs.CodeOf(failed[0]) != errs.CodeCapability {
		t.Fatalf("thai 4_set: %d %v", n, failed)
	}

	lao := newSession(t, Options{Lottery: bet.Lao})
	if n, failed := lao.AddText("1234=3 ชุด"); n != 1 || len(failed) != 0 {
		t.Fatalf("lao 4_set: %d %v", n, failed)
	}
}

func TestEditSubmit(t *testing.T) {
	sink := &fakeSink{}
	s := newSession(t, Options{Sink: sink, Edit: &EditTarget{
		BillID: "bill-9",
		Lines:  []string{"12 = 10 บน", "  "},
	}})
	if l := s.Lines(); len(l) != 1 || l[0] != "12=10 บน" {
		t.Fatalf("seed: %v", l)
	}
	if _, err := s.Submit(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if len(sink.edits) != 1 || sink.edits[0].OriginalBillID != "bill-9" {
		t.Fatalf("edits: %+v", sink.edits)
	}
}

func TestSnapshot(t *testing.T) {
	s := newSession(t, Options{})
	typeString(t, s, "12")
	snap := s.Snapshot()
	if snap.State != "NUMBERS" || snap.Side != "top" || len(snap.Candidates) == 0 || snap.EditIndex != -1 {
		t.Fatalf("snapshot: %+v", snap)
	}
}
