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

// Package pgsink 把送出的單據寫進 Postgres（pgx）。
//
// 一張單 = huay_bills 一列 + huay_entries 多列（CopyFrom），同一個交易內完成。
// 修改單會把原單標記為 replaced，並以新單號寫入新內容。
package pgsink

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/session"
)

// Schema 建表語法，EnsureSchema 使用。
const Schema = `
CREATE TABLE IF NOT EXISTS huay_bills (
	bill_id      TEXT PRIMARY KEY,
	round        TEXT NOT NULL,
	note         TEXT NOT NULL DEFAULT '',
	raw_lines    TEXT[] NOT NULL,
	total_amount BIGINT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'active',
	replaces     TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS huay_entries (
	bill_id        TEXT NOT NULL REFERENCES huay_bills(bill_id),
	entry_id       TEXT NOT NULL,
	numbers        TEXT NOT NULL,
	amount         BIGINT NOT NULL,
	bet_type       TEXT NOT NULL,
	display_text   TEXT NOT NULL,
	display_amount BIGINT NOT NULL,
	position       INT NOT NULL DEFAULT 0,
	set_count      INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS huay_entries_bill_idx ON huay_entries (bill_id);
`

const (
	insertBill = `INSERT INTO huay_bills (bill_id, round, note, raw_lines, total_amount, replaces, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	replaceBill = `UPDATE huay_bills SET status = 'replaced' WHERE bill_id = $1 AND status = 'active'`
)

var entryColumns = []string{
	"bill_id", "entry_id", "numbers", "amount", "bet_type",
	"display_text", "display_amount", "position", "set_count",
}

// Beginner 開啟交易；*pgxpool.Pool 與 *pgx.Conn 皆滿足。
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Execer 執行單一語句；EnsureSchema 使用。
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Options struct {
	Round string
	NewID func() string
	Now   func() time.Time
	Log   *slog.Logger
}

type Sink struct {
	db  Beginner
	opt Options
}

func New(db Beginner, opt Options) (*Sink, error) {
	if db == nil {
		return nil, errs.NewFatal("pgsink: db required")
	}
	if opt.Round == "" {
		return nil, errs.NewFatal("pgsink: round required")
	}
	if opt.NewID == nil {
		opt.NewID = uuid.NewString
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Log == nil {
		opt.Log = slog.New(slog.DiscardHandler)
	}
	return &Sink{db: db, opt: opt}, nil
}

// Connect 以 DSN 建立連線池並 Ping。
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(err, "pgsink: parse dsn failed")
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(cctx, cfg)
	if err != nil {
		return nil, errs.Wrap(err, "pgsink: create pool failed")
	}
	if err := pool.Ping(cctx); err != nil {
		pool.Close()
		return nil, errs.Wrap(err, "pgsink: ping failed")
	}
	return pool, nil
}

func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return errs.Wrap(err, "pgsink: ensure schema failed")
	}
	return nil
}

// Submit session.Sink
func (s *Sink) Submit(ctx context.Context, b session.Bill) error {
	_, err := s.write(ctx, b, "")
	return err
}

// EditSubmit session.Sink
func (s *Sink) EditSubmit(ctx context.Context, b session.EditBill) error {
	if b.OriginalBillID == "" {
		return errs.Coded(errs.CodeSubmit, "original bill id required")
	}
	_, err := s.write(ctx, b.Bill, b.OriginalBillID)
	return err
}

func (s *Sink) write(ctx context.Context, b session.Bill, replaces string) (billID string, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", errs.Wrap(err, "pgsink: begin failed")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if replaces != "" {
		tag, err := tx.Exec(ctx, replaceBill, replaces)
		if err != nil {
			return "", errs.Wrap(err, "pgsink: replace bill failed")
		}
		if tag.RowsAffected() == 0 {
			return "", errs.Codedf(errs.CodeSubmit, "bill %s not found or already replaced", replaces)
		}
	}

	billID = s.opt.NewID()
	var rep *string
	if replaces != "" {
		rep = &replaces
	}
	if _, err := tx.Exec(ctx, insertBill,
		billID, s.opt.Round, b.BillNote, b.RawLines, bet.SumAmount(b.Entries), rep, s.opt.Now()); err != nil {
		return "", errs.Wrap(err, "pgsink: insert bill failed")
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"huay_entries"}, entryColumns, pgx.CopyFromRows(entryRows(billID, b.Entries)))
	if err != nil {
		return "", errs.Wrap(err, "pgsink: copy entries failed")
	}
	if err := tx.Commit(ctx); err != nil {
		return "", errs.Wrap(err, "pgsink: commit failed")
	}
	s.opt.Log.Info("bill stored",
		slog.String("bill", billID),
		slog.String("round", s.opt.Round),
		slog.Int64("entries", n),
	)
	return billID, nil
}

func entryRows(billID string, es []bet.Entry) [][]any {
	rows := make([][]any, 0, len(es))
	for _, e := range es {
		rows = append(rows, []any{
			billID, e.EntryID, e.Numbers, e.Amount, string(e.BetType),
			e.DisplayText, e.DisplayAmount, e.Position, e.SetCount,
		})
	}
	return rows
}
