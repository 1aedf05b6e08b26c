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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

type App struct {
	comps   []Component
	log     *slog.Logger
	timeout time.Duration
	quit    chan os.Signal
}

func New() *App {
	return &App{
		log:     slog.New(slog.DiscardHandler),
		timeout: DefaultShutdownTimeout,
		quit:    make(chan os.Signal, 1),
	}
}

func NewWith(copms ...Component) *App {
	app := New()
	for _, c := range copms {
		app.Register(c)
	}
	return app
}

// WithLog 關閉過程的錯誤寫到 log。
func (a *App) WithLog(log *slog.Logger) *App {
	if log != nil {
		a.log = log
	}
	return a
}

func (a *App) WithShutdownTimeout(td time.Duration) *App {
	if td > 0 {
		a.timeout = td
	}
	return a
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// Stop 觸發與收到 SIGTERM 相同的關閉流程（測試 / 內嵌使用）。
func (a *App) Stop() {
	select {
	case a.quit <- syscall.SIGTERM:
	default:
	}
}

// Run 啟動所有 Component，直到收到終止信號或任一 Component 結束，然後依註冊順序關閉。
// http.ErrServerClosed 視為正常結束。
func (a *App) Run() error {
	// errCh 用於收集任一 Component 首次返回的錯誤
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	signal.Notify(a.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.quit)

	select {
	case sig := <-a.quit:
		a.log.Info("shutting down", slog.String("signal", sig.String()))
		a.gracefulShutdown()
		return nil
	case err := <-errCh:
		a.gracefulShutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Warn("shutdown err", slog.Any("err", err))
		}
	}
}
