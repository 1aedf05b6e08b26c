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

package svrcfg

import (
	"log/slog"
	"strings"
	"time"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/server/logger"
)

const DefaultAddr = ":5808"

type SvrCfg struct {
	Log  *slog.Logger
	Addr string
	Lab  *huaylab.HuayLab

	// 面板容器
	MaxSessions int
	IdleTimeout time.Duration

	// 每個請求的處理上限（送單會等外部 sink）
	RequestTimeout time.Duration
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if !strings.Contains(sc.Addr, ":") {
		return errs.Warnf("invalid listen address: %q", sc.Addr)
	}

	// 0 交給 runtime 預設值
	sc.MaxSessions = max(0, sc.MaxSessions)
	sc.IdleTimeout = max(0, sc.IdleTimeout)

	// 1s <= RequestTimeout <= 30s
	if sc.RequestTimeout == 0 {
		sc.RequestTimeout = 5 * time.Second
	}
	sc.RequestTimeout = max(time.Second, sc.RequestTimeout)
	sc.RequestTimeout = min(30*time.Second, sc.RequestTimeout)
	if sc.Lab == nil {
		return errs.NewFatal("huaylab is required")
	}
	return nil
}

// RuntimeOptions 轉成面板容器設定。
func (sc *SvrCfg) RuntimeOptions() huaylab.RuntimeOptions {
	return huaylab.RuntimeOptions{MaxSessions: sc.MaxSessions, IdleTimeout: sc.IdleTimeout}
}
