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
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/dto"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/server/httperr"
	"github.com/zintix-labs/huaylab/server/netsvr"
	"github.com/zintix-labs/huaylab/server/svrcfg"
	"github.com/zintix-labs/huaylab/session"
)

// ============================================================
// ** SessionHandler **
// ============================================================

// SessionHandler 把 HTTP 請求轉成面板操作。面板本身的狀態都在 SessionRuntime。
type SessionHandler struct {
	rt      *huaylab.SessionRuntime
	log     *slog.Logger
	timeout time.Duration
}

func NewSessionHandler(sCfg *svrcfg.SvrCfg, rt *huaylab.SessionRuntime) (*SessionHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("session runtime is required")
	}
	return &SessionHandler{rt: rt, log: sCfg.Log, timeout: sCfg.RequestTimeout}, nil
}

func (c *SessionHandler) ctx(q *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(q.Context(), c.timeout)
}

func (c *SessionHandler) fail(w http.ResponseWriter, q *http.Request, err error) {
	httperr.Log(c.log, "session api: "+q.URL.Path, err)
	httperr.Errs(w, err)
}

// do 解碼 body 後對 {id} 面板執行 fn，並回傳 fn 產生的結果。
func do[T any, R any](c *SessionHandler, w http.ResponseWriter, q *http.Request, fn func(*session.Session, *T) (R, error)) {
	req, err := dto.DecodeJSON[T](q)
	if err != nil {
		c.fail(w, q, err)
		return
	}
	ctx, cancel := c.ctx(q)
	defer cancel()

	var out R
	err = c.rt.Do(ctx, netsvr.SessionID(q), func(s *session.Session) error {
		r, err := fn(s, req)
		out = r
		return err
	})
	if err != nil {
		c.fail(w, q, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Open POST /v1/sessions
func (c *SessionHandler) Open(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeJSON[dto.OpenRequest](q)
	if err != nil {
		c.fail(w, q, err)
		return
	}
	var edit *session.EditTarget
	if req.Edit != nil {
		if req.Edit.BillID == "" {
			c.fail(w, q, errs.Coded(errs.CodeFormat, "edit.bill_id is required"))
			return
		}
		edit = &session.EditTarget{BillID: req.Edit.BillID, Lines: req.Edit.Lines, Items: req.Edit.Items}
	}
	ctx, cancel := c.ctx(q)
	defer cancel()

	s, err := c.rt.Open(ctx, req.Round, edit)
	if err != nil {
		c.fail(w, q, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, dto.NewSessionView(s))
}

// View GET /v1/sessions/{id}
func (c *SessionHandler) View(w http.ResponseWriter, q *http.Request) {
	s, err := c.rt.Get(netsvr.SessionID(q))
	if err != nil {
		c.fail(w, q, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionView(s))
}

// Close DELETE /v1/sessions/{id}
func (c *SessionHandler) Close(w http.ResponseWriter, q *http.Request) {
	if err := c.rt.CloseSession(netsvr.SessionID(q)); err != nil {
		c.fail(w, q, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Keys POST /v1/sessions/{id}/keys
//
// 按鍵被拒絕是正常的輸入回饋：回 200 並在 error 欄位說明，已套用的按鍵不回滾。
func (c *SessionHandler) Keys(w http.ResponseWriter, q *http.Request) {
	do(c, w, q, func(s *session.Session, req *dto.KeysRequest) (dto.KeysResult, error) {
		res := dto.KeysResult{}
		for _, k := range req.Keys {
			if err := s.Key(k); err != nil {
				if errs.CodeOf(err) == errs.CodeInternal {
					return res, err
				}
				res.Error = dto.NewErrorDTO(err)
				break
			}
			res.Applied++
		}
		res.View = dto.NewSessionView(s)
		return res, nil
	})
}

// Type POST /v1/sessions/{id}/type
func (c *SessionHandler) Type(w http.ResponseWriter, q *http.Request) {
	do(c, w, q, func(s *session.Session, req *dto.TypeRequest) (dto.KeysResult, error) {
		res := dto.KeysResult{}
		if err := s.ClickType(req.Value); err != nil {
			res.Error = dto.NewErrorDTO(err)
		} else {
			res.Applied = 1
		}
		res.View = dto.NewSessionView(s)
		return res, nil
	})
}

// Press POST /v1/sessions/{id}/press
func (c *SessionHandler) Press(w http.ResponseWriter, q *http.Request) {
	do(c, w, q, func(s *session.Session, req *dto.PressRequest) (dto.PressResult, error) {
		res := dto.PressResult{}
		switch req.Action {
		case dto.PressStart:
			if !knownButton(req.Value) {
				return res, errs.Codedf(errs.CodeFormat, "unknown bet type button: %q", req.Value)
			}
			s.PressStart(req.Value)
		case dto.PressEnd:
			long, err := s.PressEnd()
			res.LongPress = long
			res.Error = dto.NewErrorDTO(err)
		case dto.PressLeave:
			s.PressLeave()
		default:
			return res, errs.Codedf(errs.CodeFormat, "unknown press action: %q", req.Action)
		}
		res.View = dto.NewSessionView(s)
		return res, nil
	})
}

// Text POST /v1/sessions/{id}/text
func (c *SessionHandler) Text(w http.ResponseWriter, q *http.Request) {
	do(c, w, q, func(s *session.Session, req *dto.TextRequest) (dto.TextResult, error) {
		n, es := s.AddText(req.Text)
		return dto.TextResult{Added: n, Errors: dto.NewErrorDTOs(es), View: dto.NewSessionView(s)}, nil
	})
}

// Submit POST /v1/sessions/{id}/submit
func (c *SessionHandler) Submit(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeJSON[dto.SubmitRequest](q)
	if err != nil {
		c.fail(w, q, err)
		return
	}
	ctx, cancel := c.ctx(q)
	defer cancel()

	var bill *session.Bill
	err = c.rt.Do(ctx, netsvr.SessionID(q), func(s *session.Session) error {
		b, err := s.Submit(ctx, req.Note)
		bill = b
		return err
	})
	if err != nil {
		c.fail(w, q, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SubmitResult{Bill: bill, Amount: bet.SumAmount(bill.Entries)})
}

func knownButton(value string) bool {
	for _, l := range bet.Labels {
		if l.Value() == value {
			return true
		}
	}
	return false
}

// EditLine POST /v1/sessions/{id}/lines/{i}
func (c *SessionHandler) EditLine(w http.ResponseWriter, q *http.Request) {
	c.line(w, q, (*session.Session).EditLine)
}

// DeleteLine DELETE /v1/sessions/{id}/lines/{i}
func (c *SessionHandler) DeleteLine(w http.ResponseWriter, q *http.Request) {
	c.line(w, q, (*session.Session).DeleteLine)
}

func (c *SessionHandler) line(w http.ResponseWriter, q *http.Request, op func(*session.Session, int) error) {
	i, err := netsvr.LineIndex(q)
	if err != nil {
		c.fail(w, q, err)
		return
	}
	ctx, cancel := c.ctx(q)
	defer cancel()

	var view dto.SessionView
	err = c.rt.Do(ctx, netsvr.SessionID(q), func(s *session.Session) error {
		if err := op(s, i); err != nil {
			return err
		}
		view = dto.NewSessionView(s)
		return nil
	})
	if err != nil {
		c.fail(w, q, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Stats GET /v1/stats
func (c *SessionHandler) Stats(w http.ResponseWriter, q *http.Request) {
	writeJSON(w, http.StatusOK, c.rt.Stats())
}
