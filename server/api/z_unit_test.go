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
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/dto"
	"github.com/zintix-labs/huaylab/recorder"
	"github.com/zintix-labs/huaylab/server/netsvr"
	"github.com/zintix-labs/huaylab/server/svrcfg"
	"github.com/zintix-labs/huaylab/setting/defaults"
)

type testSvr struct {
	t   *testing.T
	h   http.Handler
	rec *recorder.BillRecorder
	rt  *huaylab.SessionRuntime
}

func newTestSvr(t *testing.T) *testSvr {
	t.Helper()
	rec := recorder.NewBillRecorder("api")
	lab, err := huaylab.NewAuto(huaylab.Configs(defaults.FS), huaylab.Options{Sinks: huaylab.StaticSink(rec)})
	if err != nil {
		t.Fatal(err)
	}
	sCfg := &svrcfg.SvrCfg{Lab: lab, Log: slog.New(slog.DiscardHandler)}
	if err := sCfg.Valid(); err != nil {
		t.Fatal(err)
	}
	rt, err := lab.NewRuntime(sCfg.RuntimeOptions())
	if err != nil {
		t.Fatal(err)
	}
	svr := netsvr.NewChiServer(":0")
	if err := RegisterRoutes(svr, sCfg, rt); err != nil {
		t.Fatal(err)
	}
	return &testSvr{t: t, h: svr.Handler(), rec: rec, rt: rt}
}

func (s *testSvr) do(method, path string, body any, out any) int {
	s.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestIndex(t *testing.T) {
	s := newTestSvr(t)
	var page struct {
		Name   string `json:"name"`
		Rounds []struct {
			Name string `json:"name"`
		} `json:"rounds"`
	}
	if code := s.do(http.MethodGet, "/", nil, &page); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if page.Name != "huaylab" || len(page.Rounds) != 4 {
		t.Fatalf("page: %+v", page)
	}
}

func TestParseAndExpand(t *testing.T) {
	s := newTestSvr(t)

	q := url.Values{"line": {"12=50*30 บนกลับ"}}
	var res dto.LineResult
	if code := s.do(http.MethodGet, "/v1/parse?"+q.Encode(), nil, &res); code != http.StatusOK {
		t.Fatalf("parse status %d", code)
	}
	if res.Parsed == nil || res.Parsed.Numbers != "12" || res.Parsed.ReverseAmount == nil || *res.Parsed.ReverseAmount != 30 {
		t.Fatalf("parsed: %+v", res.Parsed)
	}
	if len(res.Entries) != 0 {
		t.Fatalf("parse should not expand")
	}

	res = dto.LineResult{}
	code := s.do(http.MethodPost, "/v1/expand", dto.LineRequest{Line: "123=10 3 ตัวกลับ", EntryID: "e1"}, &res)
	if code != http.StatusOK || len(res.Entries) != 6 || res.DisplayAmount != 60 || res.Entries[0].EntryID != "e1" {
		t.Fatalf("expand: %d %+v", code, res)
	}

	var e dto.ErrorDTO
	if code := s.do(http.MethodGet, "/v1/parse?line="+url.QueryEscape("12="), nil, &e); code != http.StatusBadRequest || e.Code != "format" {
		t.Fatalf("bad line: %d %+v", code, e)
	}
	if code := s.do(http.MethodGet, "/v1/parse", nil, &e); code != http.StatusBadRequest {
		t.Fatalf("empty line: %d", code)
	}
	if code := s.do(http.MethodGet, "/v1/expand?lottery=mars&line=12%3D1", nil, &e); code != http.StatusBadRequest {
		t.Fatalf("bad lottery: %d", code)
	}
	if code := s.do(http.MethodPost, "/v1/expand", map[string]any{"line": "12=1", "x": 1}, &e); code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", code)
	}
}

func TestLabelsAndRounds(t *testing.T) {
	s := newTestSvr(t)
	var all, thai, lao []dto.LabelDTO
	s.do(http.MethodGet, "/v1/labels", nil, &all)
	s.do(http.MethodGet, "/v1/labels?lottery=thai", nil, &thai)
	s.do(http.MethodGet, "/v1/labels?round=lao", nil, &lao)
	if len(all) == 0 || len(thai) >= len(all) || len(lao) >= len(all) {
		t.Fatalf("labels: all=%d thai=%d lao=%d", len(all), len(thai), len(lao))
	}
	if code := s.do(http.MethodGet, "/v1/labels?round=nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown round: %d", code)
	}
	var rounds []map[string]any
	if code := s.do(http.MethodGet, "/v1/rounds", nil, &rounds); code != http.StatusOK || len(rounds) != 4 {
		t.Fatalf("rounds: %d %v", code, rounds)
	}
}

func (s *testSvr) open(round string) dto.SessionView {
	s.t.Helper()
	var v dto.SessionView
	if code := s.do(http.MethodPost, "/v1/sessions", dto.OpenRequest{Round: round}, &v); code != http.StatusCreated {
		s.t.Fatalf("open status %d", code)
	}
	if v.ID == "" {
		s.t.Fatalf("missing session id")
	}
	return v
}

func TestSessionFlow(t *testing.T) {
	s := newTestSvr(t)
	v := s.open("thai")
	base := "/v1/sessions/" + v.ID

	var kr dto.KeysResult
	s.do(http.MethodPost, base+"/keys", dto.KeysRequest{Keys: []string{"1", "2", "=", "1", "0", "0"}}, &kr)
	if kr.Applied != 6 || kr.Error != nil || kr.View.Buffer != "12=100" {
		t.Fatalf("keys: %+v", kr)
	}
	if len(kr.View.Preview) != 1 || kr.View.Preview[0].Amount != 100 {
		t.Fatalf("preview: %+v", kr.View.Preview)
	}

	kr = dto.KeysResult{}
	s.do(http.MethodPost, base+"/keys", dto.KeysRequest{Keys: []string{"clear", "x", "1"}}, &kr)
	if kr.Applied != 1 || kr.Error == nil || kr.Error.Code != "composition" || kr.View.Buffer != "" {
		t.Fatalf("rejected key: %+v", kr)
	}

	var tr dto.TextResult
	s.do(http.MethodPost, base+"/text", dto.TextRequest{Text: "12=100 2 ตัวบน\nabc\n55=50 2 ตัวบน"}, &tr)
	if tr.Added != 2 || len(tr.Errors) != 1 || !strings.Contains(tr.Errors[0].Message, "line 2") {
		t.Fatalf("text: %+v", tr)
	}
	if tr.View.Totals.Amount != 150 || len(tr.View.Lines) != 2 {
		t.Fatalf("totals: %+v", tr.View.Totals)
	}

	var sr dto.SubmitResult
	if code := s.do(http.MethodPost, base+"/submit", dto.SubmitRequest{Note: "n1"}, &sr); code != http.StatusOK {
		t.Fatalf("submit status %d", code)
	}
	if sr.Amount != 150 || sr.Bill == nil || sr.Bill.BillNote != "n1" {
		t.Fatalf("submit: %+v", sr)
	}
	if len(s.rec.Bills()) != 1 {
		t.Fatalf("recorder bills: %d", len(s.rec.Bills()))
	}

	var e dto.ErrorDTO
	if code := s.do(http.MethodPost, base+"/submit", nil, &e); code != http.StatusBadRequest || e.Code != "composition" {
		t.Fatalf("empty submit: %d %+v", code, e)
	}

	if code := s.do(http.MethodDelete, base, nil, nil); code != http.StatusNoContent {
		t.Fatalf("close status %d", code)
	}
	if code := s.do(http.MethodGet, base, nil, &e); code != http.StatusNotFound || e.Code != "not_found" {
		t.Fatalf("closed session: %d %+v", code, e)
	}
}

func TestSessionLines(t *testing.T) {
	s := newTestSvr(t)
	base := "/v1/sessions/" + s.open("thai").ID
	s.do(http.MethodPost, base+"/text", dto.TextRequest{Text: "12=100 2 ตัวบน\n34=20 2 ตัวล่าง"}, nil)

	var v dto.SessionView
	if code := s.do(http.MethodPost, base+"/lines/1", nil, &v); code != http.StatusOK || v.EditIndex != 1 || v.Buffer != "34=20 2 ตัวล่าง" {
		t.Fatalf("edit line: %d %+v", code, v)
	}
	v = dto.SessionView{}
	if code := s.do(http.MethodDelete, base+"/lines/0", nil, &v); code != http.StatusOK || len(v.Lines) != 1 || v.EditIndex != 0 {
		t.Fatalf("delete line: %d %+v", code, v)
	}
	if code := s.do(http.MethodDelete, base+"/lines/9", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("out of range: %d", code)
	}
	if code := s.do(http.MethodDelete, base+"/lines/x", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad index: %d", code)
	}
}

func TestSessionPress(t *testing.T) {
	s := newTestSvr(t)
	base := "/v1/sessions/" + s.open("thai").ID
	s.do(http.MethodPost, base+"/keys", dto.KeysRequest{Keys: []string{"1", "2", "=", "5", "0"}}, nil)

	if code := s.do(http.MethodPost, base+"/press", dto.PressRequest{Action: "start", Value: "nope"}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown button: %d", code)
	}
	if code := s.do(http.MethodPost, base+"/press", dto.PressRequest{Action: "hold"}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown action: %d", code)
	}
	var pr dto.PressResult
	s.do(http.MethodPost, base+"/press", dto.PressRequest{Action: "start", Value: "2_top"}, &pr)
	s.do(http.MethodPost, base+"/press", dto.PressRequest{Action: "leave"}, &pr)
	if pr.LongPress || pr.View.Buffer != "12=50" {
		t.Fatalf("leave should not click: %+v", pr)
	}

	pr = dto.PressResult{}
	s.do(http.MethodPost, base+"/press", dto.PressRequest{Action: "start", Value: "2_top"}, nil)
	s.do(http.MethodPost, base+"/press", dto.PressRequest{Action: "end"}, &pr)
	if pr.LongPress || pr.Error != nil {
		t.Fatalf("short press: %+v", pr)
	}
}

func TestSessionNotFoundAndStats(t *testing.T) {
	s := newTestSvr(t)
	if code := s.do(http.MethodPost, "/v1/sessions/missing/keys", dto.KeysRequest{Keys: []string{"1"}}, nil); code != http.StatusNotFound {
		t.Fatalf("missing session: %d", code)
	}
	if code := s.do(http.MethodPost, "/v1/sessions", dto.OpenRequest{Round: "nope"}, nil); code != http.StatusNotFound {
		t.Fatalf("unknown round: %d", code)
	}
	if code := s.do(http.MethodPost, "/v1/sessions", map[string]any{"round": "thai", "edit": map[string]any{"lines": []string{"12=1"}}}, nil); code != http.StatusBadRequest {
		t.Fatalf("edit without bill id: %d", code)
	}
	s.open("lao")
	var st huaylab.RuntimeStats
	if code := s.do(http.MethodGet, "/v1/stats", nil, &st); code != http.StatusOK || st.Active != 1 || st.Opened != 1 {
		t.Fatalf("stats: %d %+v", code, st)
	}
}
