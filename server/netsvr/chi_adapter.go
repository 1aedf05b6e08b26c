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

package netsvr

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/server/httperr"
)

const (
	defaultAddr  = ":5808"
	sessionParam = "id"
	lineParam    = "i"
)

// SessionID 取出 Session scope 底下的面板 ID。
func SessionID(r *http.Request) string {
	return chi.URLParam(r, sessionParam)
}

// LineIndex 取出 /lines/{i} 的行號。
func LineIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, lineParam)
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, errs.Codedf(errs.CodeFormat, "invalid line index: %q", raw)
	}
	return i, nil
}

// LinePath 行操作的路由樣式，與 LineIndex 成對使用。
const LinePath = "/lines/{" + lineParam + "}"

// sessionGuard 面板 ID 都是 uuid；其他字串不可能存在，直接回 not found。
func sessionGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := SessionID(r)
		if _, err := uuid.Parse(id); err != nil {
			httperr.Errs(w, errs.Codedf(errs.CodeNotFound, "session not found: %s", id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -----------------------------------------------------------------------------
//  Chi 服務
// -----------------------------------------------------------------------------

// ServerOption 調整底層 http.Server。
type ServerOption func(*http.Server)

// WithWriteTimeout 要比 handler 的 request timeout 長，否則送單逾時回應寫不出去。
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d
		}
	}
}

func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *http.Server) {
		if d > 0 {
			s.ReadTimeout = d
		}
	}
}

// ChiAdapter 以 chi 實作 NetSvr。
type ChiAdapter struct {
	router chi.Router
	server *http.Server
	addr   string
}

// NewChiServer 建立監聽 addr 的 ChiAdapter。
// 面板請求都是小 JSON，header 與 body 的讀取時間給短一點；閒置連線留久一點給逐鍵呼叫重用。
func NewChiServer(addr string, opts ...ServerOption) *ChiAdapter {
	cr := chi.NewRouter()
	srv := &http.Server{
		Addr:              addr,
		Handler:           cr,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    16 << 10,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return &ChiAdapter{router: cr, server: srv, addr: addr}
}

// NewChiServerDefault 建立監聽 :5808 的 ChiAdapter。
func NewChiServerDefault() *ChiAdapter {
	return NewChiServer(defaultAddr)
}

func (c *ChiAdapter) Ready() bool {
	if c == nil || c.router == nil || c.server == nil || c.server.Handler != c.router {
		return false
	}
	_, port, err := net.SplitHostPort(c.addr)
	return err == nil && port != ""
}

func (c *ChiAdapter) Run() error {
	return c.server.ListenAndServe()
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) {
	c.router.Use(mw)
}

func (c *ChiAdapter) Get(path string, h http.HandlerFunc) {
	c.router.Get(path, h)
}

func (c *ChiAdapter) Post(path string, h http.HandlerFunc) {
	c.router.Post(path, h)
}

func (c *ChiAdapter) Delete(path string, h http.HandlerFunc) {
	c.router.Delete(path, h)
}

func (c *ChiAdapter) Group(path string, fn func(NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&ChiAdapter{router: r})
	})
}

// Session 掛上 /{id}，所有子路由先經過 sessionGuard。
func (c *ChiAdapter) Session(fn func(NetRouter)) {
	c.router.Route("/{"+sessionParam+"}", func(r chi.Router) {
		r.Use(sessionGuard)
		fn(&ChiAdapter{router: r})
	})
}

func (c *ChiAdapter) Address() string {
	return c.addr
}

// Handler 回傳根 router，方便 httptest 直接掛載。
func (c *ChiAdapter) Handler() http.Handler {
	return c.router
}
