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

package pgsink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/session"
)

// fakeTx 只實作 Sink 用到的方法，其餘呼叫會 panic。
type fakeTx struct {
	pgx.Tx
	execs      []string
	args       [][]any
	copied     [][]any
	copyTable  pgx.Identifier
	affected   int64
	copyErr    error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	t.args = append(t.args, args)
	if strings.HasPrefix(sql, "UPDATE") {
		if t.affected == 0 {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	if t.copyErr != nil {
		return 0, t.copyErr
	}
	t.copyTable = table
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		t.copied = append(t.copied, vals)
	}
	return int64(len(t.copied)), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct{ tx *fakeTx }

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) { return d.tx, nil }

func newSink(t *testing.T, tx *fakeTx) *Sink {
	t.Helper()
	s, err := New(&fakeDB{tx: tx}, Options{
		Round: "thai",
		NewID: func() string { return "bill-1" },
		Now:   func() time.Time { return time.Unix(0, 0) },
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testBill() session.Bill {
	return session.Bill{
		Entries: []bet.Entry{
			{Numbers: "12", Amount: 50, BetType: bet.TwoTop, EntryID: "e1", DisplayText: "12=50*30 บนกลับ", DisplayAmount: 80},
			{Numbers: "21", Amount: 30, BetType: bet.TwoTop, EntryID: "e1", DisplayText: "12=50*30 บนกลับ", DisplayAmount: 80},
		},
		BillNote: "n",
		RawLines: []string{"12=50*30 บนกลับ"},
	}
}

func TestSubmitWritesBillAndEntries(t *testing.T) {
	tx := &fakeTx{}
	s := newSink(t, tx)
	if err := s.Submit(context.Background(), testBill()); err != nil {
		t.Fatal(err)
	}
	if !tx.committed || tx.rolledBack {
		t.Fatalf("commit=%v rollback=%v", tx.committed, tx.rolledBack)
	}
	if len(tx.execs) != 1 || tx.args[0][0] != "bill-1" || tx.args[0][4] != 80 {
		t.Fatalf("insert bill: %v %v", tx.execs, tx.args)
	}
	if tx.copyTable[0] != "huay_entries" || len(tx.copied) != 2 {
		t.Fatalf("copy: %v %v", tx.copyTable, tx.copied)
	}
	if row := tx.copied[1]; row[0] != "bill-1" || row[2] != "21" || row[4] != "2_top" || len(row) != len(entryColumns) {
		t.Fatalf("row: %v", row)
	}
}

func TestEditSubmitReplaces(t *testing.T) {
	tx := &fakeTx{affected: 1}
	s := newSink(t, tx)
	err := s.EditSubmit(context.Background(), session.EditBill{Bill: testBill(), OriginalBillID: "old"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tx.execs) != 2 || !strings.HasPrefix(tx.execs[0], "UPDATE") {
		t.Fatalf("execs: %v", tx.execs)
	}
	if rep, ok := tx.args[1][5].(*string); !ok || *rep != "old" {
		t.Fatalf("replaces: %v", tx.args[1][5])
	}
}

func TestEditSubmitMissingOriginal(t *testing.T) {
	tx := &fakeTx{}
	s := newSink(t, tx)
	err := s.EditSubmit(context.Background(), session.EditBill{Bill: testBill(), OriginalBillID: "gone"})
	if errs.CodeOf(err) != errs.CodeSubmit {
		t.Fatalf("err: %v", err)
	}
	if !tx.rolledBack || tx.committed {
		t.Fatalf("should roll back")
	}
	if err := s.EditSubmit(context.Background(), session.EditBill{Bill: testBill()}); err == nil {
		t.Fatalf("empty original id should fail")
	}
}

func TestCopyFailureRollsBack(t *testing.T) {
	tx := &fakeTx{copyErr: errors.New("disk full")}
	s := newSink(t, tx)
	err := s.Submit(context.Background(), testBill())
	if err == nil || !tx.rolledBack {
		t.Fatalf("err=%v rollback=%v", err, tx.rolledBack)
	}
	if !strings.Contains(err.Error(), "copy entries failed") {
		t.Fatalf("err: %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(nil, Options{Round: "x"}); err == nil {
		t.Fatalf("nil db should fail")
	}
	if _, err := New(&fakeDB{}, Options{}); err == nil {
		t.Fatalf("empty round should fail")
	}
}
