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

package api

import (
	"log/slog"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/server/api/index"
	v1 "github.com/zintix-labs/huaylab/server/api/v1"
	"github.com/zintix-labs/huaylab/server/netsvr"
	"github.com/zintix-labs/huaylab/server/netsvr/middleware"
	"github.com/zintix-labs/huaylab/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *huaylab.SessionRuntime) error {
	registerMiddleware(svr, sCfg.Log)   // 1. 註冊 middleware
	registerIndex(svr, sCfg)            // 2. 註冊主頁
	return registerV1API(svr, sCfg, rt) // 3. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 註冊主頁
func registerIndex(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Get("/", index.NewIndexHandler(sCfg.Lab))
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *huaylab.SessionRuntime) error {
	l, err := v1.NewLineHandler(sCfg.Lab)
	if err != nil {
		return err
	}
	s, err := v1.NewSessionHandler(sCfg, rt)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/parse", l.Parse)
		vOne.Get("/expand", l.Expand)
		vOne.Get("/labels", l.Labels)
		vOne.Get("/rounds", l.Rounds)
		vOne.Get("/stats", s.Stats)

		vOne.Post("/parse", l.Parse)
		vOne.Post("/expand", l.Expand)

		vOne.Group("/sessions", func(ss netsvr.NetRouter) {
			ss.Post("/", s.Open)
			ss.Session(func(one netsvr.NetRouter) {
				one.Get("/", s.View)
				one.Delete("/", s.Close)
				one.Post("/keys", s.Keys)
				one.Post("/type", s.Type)
				one.Post("/press", s.Press)
				one.Post("/text", s.Text)
				one.Post("/submit", s.Submit)
				one.Post(netsvr.LinePath, s.EditLine)
				one.Delete(netsvr.LinePath, s.DeleteLine)
			})
		})
	})
	return nil
}
