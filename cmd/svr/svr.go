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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/prefs"
	"github.com/zintix-labs/huaylab/recorder"
	"github.com/zintix-labs/huaylab/server"
	"github.com/zintix-labs/huaylab/server/logger"
	"github.com/zintix-labs/huaylab/server/svrcfg"
	"github.com/zintix-labs/huaylab/session"
	"github.com/zintix-labs/huaylab/setting/defaults"
	"github.com/zintix-labs/huaylab/sink/pgsink"
)

// 環境變數（可放在 .env）
const (
	envAddr    = "HUAY_ADDR"
	envLogMode = "HUAY_LOG_MODE"
	envPgDSN   = "HUAY_PG_DSN"
	envPrefs   = "HUAY_PREFS"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type config struct {
	Addr        string
	LogMode     string
	ConfigDir   string
	PrefsPath   string
	PgDSN       string
	MaxSessions int
	IdleTimeout time.Duration
}

func loadConfig() *config {
	// .env 不存在是正常的（容器內直接給環境變數）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", envOr(envAddr, svrcfg.DefaultAddr), "listen address")
	flag.StringVar(&cfg.LogMode, "log-mode", envOr(envLogMode, "dev"), "log mode: dev|prod|silence")
	flag.StringVar(&cfg.ConfigDir, "configs", "", "extra round config directory")
	flag.StringVar(&cfg.PrefsPath, "prefs", os.Getenv(envPrefs), "default bet type preference file (empty: in memory)")
	flag.StringVar(&cfg.PgDSN, "pg", os.Getenv(envPgDSN), "postgres dsn for submitted bills (empty: in-memory recorder)")
	flag.IntVar(&cfg.MaxSessions, "max-sessions", huaylab.DefaultMaxSessions, "max open input sessions")
	flag.DurationVar(&cfg.IdleTimeout, "idle", huaylab.DefaultIdleTimeout, "close sessions idle longer than this")
	flag.Parse()
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run() error {
	cfg := loadConfig()
	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return err
	}
	log, ah := logger.NewAsync(4096, mode)
	defer func() {
		ah.Close()
		if n := ah.DroppedWarn(); n > 0 {
			fmt.Fprintf(os.Stderr, "logger: %d warn/error records dropped (%d total)\n", n, ah.Dropped())
		}
	}()

	opt := huaylab.Options{Log: log}
	if cfg.PrefsPath != "" {
		st, err := prefs.OpenFileStore(cfg.PrefsPath)
		if err != nil {
			return err
		}
		opt.Store = st
	}

	sinks, closeSinks, err := buildSinks(cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()
	opt.Sinks = sinks

	cfgs := huaylab.Configs(defaults.FS)
	if cfg.ConfigDir != "" {
		cfgs = append(cfgs, os.DirFS(cfg.ConfigDir))
	}
	lab, err := huaylab.NewAuto(cfgs, opt)
	if err != nil {
		return err
	}

	return server.Run(&svrcfg.SvrCfg{
		Log:         log,
		Addr:        cfg.Addr,
		Lab:         lab,
		MaxSessions: cfg.MaxSessions,
		IdleTimeout: cfg.IdleTimeout,
	})
}

// buildSinks 有 DSN 時寫入 Postgres，否則每個 round 一個記憶體紀錄員。
func buildSinks(cfg *config, log *slog.Logger) (huaylab.SinkFactory, func(), error) {
	var (
		mu    sync.Mutex
		cache = make(map[string]session.Sink)
	)
	cached := func(build func(round string) (session.Sink, error)) huaylab.SinkFactory {
		return func(round string) (session.Sink, error) {
			mu.Lock()
			defer mu.Unlock()
			if s, ok := cache[round]; ok {
				return s, nil
			}
			s, err := build(round)
			if err != nil {
				return nil, err
			}
			cache[round] = s
			return s, nil
		}
	}

	if cfg.PgDSN == "" {
		log.Warn("no postgres dsn: submitted bills are kept in memory only")
		return cached(func(round string) (session.Sink, error) {
			return recorder.NewBillRecorder(round), nil
		}), func() {}, nil
	}

	ctx := context.Background()
	pool, err := pgsink.Connect(ctx, cfg.PgDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pgsink.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info("bills are written to postgres")
	return cached(func(round string) (session.Sink, error) {
		return pgsink.New(pool, pgsink.Options{Round: round, Log: log})
	}), pool.Close, nil
}
