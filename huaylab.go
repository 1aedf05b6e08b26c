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

// Package huaylab 提供號碼彩（หวย）下注引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// HuayLab 把下列地基組裝在一起，並提供開啟輸入面板（session.Session）的入口：
//  1. Catalog：round 目錄，定義有哪些開獎期與各自的設定檔（彩種、每套價格、預設玩法…）。
//  2. DefaultTypeStore：使用者長按設定的預設玩法（偏好），所有面板共用。
//  3. SinkFactory：依 round 取得送單的外部協作者（記憶體紀錄員、Postgres…）。
//
// HuayLab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 HuayLab 建立 SessionRuntime，依 session id 轉送按鍵。
//   - 離線批次（cmd/run）：直接呼叫 ExpandLine 展開整份單據文字。
package huaylab

import (
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/catalog"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/prefs"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/sdk/parse"
	"github.com/zintix-labs/huaylab/session"
	"github.com/zintix-labs/huaylab/setting"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//   - go:embed 把 configs 直接編進 binary（例如 setting/defaults.FS）。
//   - os.DirFS 在本機讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// SinkFactory 依 round 名稱取得送單協作者。
type SinkFactory func(round string) (session.Sink, error)

// StaticSink 所有 round 共用同一個 sink。
func StaticSink(s session.Sink) SinkFactory {
	return func(string) (session.Sink, error) { return s, nil }
}

// Options 建立 HuayLab 的可選依賴。
type Options struct {
	Store session.DefaultTypeStore // nil 用記憶體
	Sinks SinkFactory              // nil 時面板無法送單（Submit 回 Fatal）
	Clock session.Clock            // 長按計時，nil 用真實時鐘
	Log   *slog.Logger
}

// HuayLab 是「組裝器」與「運行入口」。
//
// 使用流程分兩階段：
//   - 註冊/組裝階段：建立 catalog、RegisterAll 掃描設定檔、Freeze。
//   - 執行階段：依 round 名稱開啟 Session，或建立 SessionRuntime 對外服務。
//
// runtime 開始後不建議再變更 Catalog。
type HuayLab struct {
	cat *catalog.Catalog
	opt Options
	sum []catalog.Summary
}

// New 建立一個 HuayLab instance（組裝階段）。cfgs 至少一個。
func New(cfgs []fs.FS, opt Options) (*HuayLab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	if opt.Store == nil {
		opt.Store = prefs.NewMemStore()
	}
	if opt.Log == nil {
		opt.Log = slog.New(slog.DiscardHandler)
	}
	return &HuayLab{cat: cata, opt: opt}, nil
}

// NewAuto 建立一個直接進入執行階段的 HuayLab：掃描並註冊所有設定檔後凍結目錄。
func NewAuto(cfgs []fs.FS, opt Options) (*HuayLab, error) {
	lab, err := New(cfgs, opt)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (h *HuayLab) Register(ents ...catalog.Entry) error {
	return h.cat.Register(ents...)
}

// RegisterAll 見 catalog.Catalog.RegisterAll。
func (h *HuayLab) RegisterAll() error {
	return h.cat.RegisterAll()
}

func (h *HuayLab) Freeze() {
	h.cat.Freeze()
}

func (h *HuayLab) Rounds() []string {
	return h.cat.Names()
}

func (h *HuayLab) Log() *slog.Logger {
	return h.opt.Log
}

func (h *HuayLab) Store() session.DefaultTypeStore {
	return h.opt.Store
}

func (h *HuayLab) Summary() ([]catalog.Summary, error) {
	if !h.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if h.sum != nil {
		return h.sum, nil
	}
	sum, err := h.cat.Summaries()
	if err != nil {
		return nil, err
	}
	h.sum = sum
	return h.sum, nil
}

func (h *HuayLab) RoundSetting(round string) (*setting.RoundSetting, error) {
	if !h.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return h.cat.RoundSetting(round)
}

// NewSession 依 round 設定開啟一個輸入面板。edit 非 nil 時以既有單據開啟（修改單）。
func (h *HuayLab) NewSession(round string, edit *session.EditTarget) (*session.Session, error) {
	rs, err := h.RoundSetting(round)
	if err != nil {
		return nil, err
	}
	return h.newSession(rs, edit)
}

func (h *HuayLab) newSession(rs *setting.RoundSetting, edit *session.EditTarget) (*session.Session, error) {
	var sink session.Sink
	if h.opt.Sinks != nil {
		s, err := h.opt.Sinks(rs.RoundName)
		if err != nil {
			return nil, errs.Wrap(err, "build sink failed")
		}
		sink = s
	}
	return session.New(session.Options{
		Lottery:    rs.LotteryType,
		SetPrice:   rs.SetPrice,
		AutoSubmit: rs.AutoSubmit,
		LongPress:  rs.LongPress(),
		Defaults:   rs.DefaultTypes,
		Store:      h.opt.Store,
		Sink:       sink,
		Clock:      h.opt.Clock,
		Log:        h.opt.Log.With(slog.String("round", rs.RoundName)),
		Edit:       edit,
	})
}

// ExpandLine 解析並展開單行（不經過面板）。空行回傳 (nil, nil, nil)。
func ExpandLine(line, entryID string, opt expand.Options) (*bet.ParsedBet, []bet.Entry, error) {
	p, err := parse.Parse(line)
	if err != nil || p == nil {
		return nil, nil, err
	}
	return p, expand.Expand(p, entryID, line, opt), nil
}
