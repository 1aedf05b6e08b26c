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

// Package perf 以 pprof 包住一段批次工作（cmd/run -p cpu|heap|allocs）。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/huaylab/errs"
)

const DefaultDir = "build/profiling" // pprof檔案寫入路徑

// Modes 支援的 profile 種類。
var Modes = []string{"", "cpu", "heap", "allocs"}

// Run 依 mode 決定如何包住 exe。mode 為空字串時直接執行。
// exe 的錯誤原樣回傳；profile 檔寫入失敗則回傳 Fatal。
func Run(exe func() error, mode string, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return exe()
	case "cpu":
		return cpu(exe, dir)
	case "heap":
		return after(exe, dir, "heap")
	case "allocs":
		return after(exe, dir, "allocs")
	default:
		return errs.Warnf("unknown pprof mode: %q (cpu|heap|allocs)", mode)
	}
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, name+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name+".pprof")
	}
	return f, nil
}

// cpu 在 exe 期間收集 CPU profile，也可作為 PGO 的輸入。
func cpu(exe func() error, dir string) error {
	f, err := create(dir, "cpu")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// after 在 exe 完成後寫出 heap（in-use）或 allocs（累積配置）快照。
func after(exe func() error, dir, name string) error {
	if err := exe(); err != nil {
		return err
	}
	f, err := create(dir, name)
	if err != nil {
		return err
	}
	defer f.Close()

	if name == "heap" {
		// 盡量讓快照貼近最新狀態
		runtime.GC()
	}
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Fatalf("profile %s not found", name)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}
