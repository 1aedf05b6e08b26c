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

package server

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/server/api"
	"github.com/zintix-labs/huaylab/server/app"
	"github.com/zintix-labs/huaylab/server/netsvr"
	"github.com/zintix-labs/huaylab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger、HuayLab）。
//  2. 建立 SessionRuntime（面板容器，定期回收閒置面板）。
//  3. 建立 HTTP server（netsvr）並註冊路由與 middleware。
//  4. 啟動 app.Run()，收到信號後依序關閉 server 與 runtime。
//
// Run 不綁定任何「檔案路徑」或「環境變數」策略；所有依賴都應透過 SvrCfg 明確注入。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	// 寫回應的時限要涵蓋整個 request timeout
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, netsvr.WithWriteTimeout(sCfg.RequestTimeout+5*time.Second)))
}

// RunWithSvr 與 Run() 相同，但允許呼叫端注入自訂的 NetSvr
// （自訂 listener、TLS、或把 HuayLab 的路由掛到既有服務）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}

	rt, err := sCfg.Lab.NewRuntime(sCfg.RuntimeOptions())
	if err != nil {
		sCfg.Log.Error("build session runtime failed", slog.Any("err", err))
		return err
	}
	if err := api.RegisterRoutes(svr, sCfg, rt); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return err
	}

	app := app.NewWith(svr, rt).WithLog(sCfg.Log)
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[huaylab] listening on http://localhost" + s.Address())
	}
	if err := app.Run(); err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
		return err
	}
	return nil
}
