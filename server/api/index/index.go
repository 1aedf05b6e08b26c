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

// Package index 提供服務首頁：列出可用 round 與 API 入口，方便前端 / 維運確認部署內容。
package index

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/catalog"
	"github.com/zintix-labs/huaylab/server/httperr"
)

// Endpoint 首頁列出的 API。
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Desc   string `json:"desc"`
}

var Endpoints = []Endpoint{
	{http.MethodGet, "/v1/parse", "parse one bet line"},
	{http.MethodGet, "/v1/expand", "parse and expand one bet line into entries"},
	{http.MethodGet, "/v1/labels", "bet type buttons (?lottery= or ?round=)"},
	{http.MethodGet, "/v1/rounds", "configured rounds"},
	{http.MethodGet, "/v1/stats", "session runtime counters"},
	{http.MethodPost, "/v1/sessions", "open an input session"},
	{http.MethodGet, "/v1/sessions/{id}", "session state and live preview"},
	{http.MethodDelete, "/v1/sessions/{id}", "close a session"},
	{http.MethodPost, "/v1/sessions/{id}/keys", "send key presses"},
	{http.MethodPost, "/v1/sessions/{id}/type", "click a bet type button"},
	{http.MethodPost, "/v1/sessions/{id}/press", "press/release a bet type button (long press saves default)"},
	{http.MethodPost, "/v1/sessions/{id}/text", "paste multi-line text"},
	{http.MethodPost, "/v1/sessions/{id}/lines/{i}", "load a committed line for editing"},
	{http.MethodDelete, "/v1/sessions/{id}/lines/{i}", "delete a committed line"},
	{http.MethodPost, "/v1/sessions/{id}/submit", "submit the bill"},
}

type page struct {
	Name      string            `json:"name"`
	Rounds    []catalog.Summary `json:"rounds"`
	Endpoints []Endpoint        `json:"endpoints"`
}

// NewIndexHandler 回傳首頁 handler。
func NewIndexHandler(lab *huaylab.HuayLab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := lab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(page{Name: "huaylab", Rounds: sum, Endpoints: Endpoints})
	}
}
