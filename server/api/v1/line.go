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

package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/dto"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/server/httperr"
)

// writeJSON 統一的成功回應。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ============================================================
// ** LineHandler **
// ============================================================

// LineHandler 無狀態的單行工具：解析、展開、玩法表、round 清單。
type LineHandler struct {
	lab *huaylab.HuayLab
}

func NewLineHandler(lab *huaylab.HuayLab) (*LineHandler, error) {
	if lab == nil {
		return nil, errs.NewFatal("huaylab is required")
	}
	return &LineHandler{lab: lab}, nil
}

func (c *LineHandler) decode(w http.ResponseWriter, q *http.Request) (*dto.LineRequest, bool) {
	req, err := dto.DecodeLineRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return nil, false
	}
	if req.Lottery != "" && !req.Lottery.Valid() {
		httperr.Errs(w, errs.Warnf("invalid lottery type: %s", req.Lottery))
		return nil, false
	}
	return req, true
}

// Parse GET/POST /v1/parse
func (c *LineHandler) Parse(w http.ResponseWriter, q *http.Request) {
	req, ok := c.decode(w, q)
	if !ok {
		return
	}
	p, _, err := huaylab.ExpandLine(req.Line, "", expand.Options{})
	if err == nil && p == nil {
		err = errs.Coded(errs.CodeFormat, "empty line")
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLineResult(req.Line, p, nil))
}

// Expand GET/POST /v1/expand
func (c *LineHandler) Expand(w http.ResponseWriter, q *http.Request) {
	req, ok := c.decode(w, q)
	if !ok {
		return
	}
	p, es, err := huaylab.ExpandLine(req.Line, req.EntryID, expand.Options{SetPrice: req.SetPrice, Lottery: req.Lottery})
	if err == nil && p == nil {
		err = errs.Coded(errs.CodeFormat, "empty line")
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLineResult(req.Line, p, es))
}

// Labels GET /v1/labels?lottery=lao 或 ?round=thai
func (c *LineHandler) Labels(w http.ResponseWriter, q *http.Request) {
	lt := bet.LotteryType(q.URL.Query().Get("lottery"))
	if round := q.URL.Query().Get("round"); round != "" {
		rs, err := c.lab.RoundSetting(round)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		lt = rs.LotteryType
	}
	if lt != "" && !lt.Valid() {
		httperr.Errs(w, errs.Warnf("invalid lottery type: %s", lt))
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLabelDTOs(lt))
}

// Rounds GET /v1/rounds
func (c *LineHandler) Rounds(w http.ResponseWriter, q *http.Request) {
	sum, err := c.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
