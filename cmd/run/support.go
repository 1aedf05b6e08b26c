package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/zintix-labs/huaylab"
	"github.com/zintix-labs/huaylab/session"
	"github.com/zintix-labs/huaylab/setting/defaults"
	"github.com/zintix-labs/huaylab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	round     string
	worker    int
	format    string
	output    stats.Format
	slips     bool
	configDir string
	quiet     bool
	pprofmode string
	files     []string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.round, "round", "thai", "round name (see setting/defaults or -configs)")
	flag.IntVar(&cfg.worker, "worker", runtime.NumCPU(), "number of workers")
	flag.StringVar(&cfg.format, "o", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.configDir, "configs", "", "extra round config directory")
	flag.BoolVar(&cfg.quiet, "q", false, "hide progress bar")
	flag.BoolVar(&cfg.slips, "slips", false, "also print every bill line by line")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: run [flags] bill.txt [more.txt ...]\n\nbills in a file are separated by blank lines\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	cfg.files = flag.Args()
}

// 讀檔、展開、輸出報表
func executeBatch() error {
	if err := cfg.valid(); err != nil {
		return err
	}

	cfgs := huaylab.Configs(defaults.FS)
	if cfg.configDir != "" {
		cfgs = append(cfgs, os.DirFS(cfg.configDir))
	}
	lab, err := huaylab.NewAuto(cfgs, huaylab.Options{})
	if err != nil {
		return err
	}

	var bills []huaylab.BillText
	for _, f := range cfg.files {
		raw, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		bills = append(bills, huaylab.SplitBills(filepath.Base(f), string(raw))...)
	}

	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	if cfg.output == stats.FormatTable {
		p.Printf("%s[ROUND:%s] [FILES:%d] [BILLS:%d] [WORKERS:%d]%s\n", green, cfg.round, len(cfg.files), len(bills), cfg.worker, reset)
	}

	var (
		mu    sync.Mutex
		slips []*stats.Slip
	)
	opt := huaylab.BatchOptions{
		Workers:  cfg.worker,
		Progress: !cfg.quiet && cfg.output == stats.FormatTable,
	}
	if cfg.slips {
		opt.OnBill = func(b session.Bill) {
			slip := stats.NewBillSlip(b)
			mu.Lock()
			slips = append(slips, slip)
			mu.Unlock()
		}
	}

	rep, used, err := lab.ExpandBills(context.Background(), cfg.round, bills, opt)
	if err != nil {
		return err
	}

	// worker 完成順序不定，排回讀檔順序
	order := make(map[string]int, len(bills))
	for i, b := range bills {
		order[b.Name] = i
	}
	slices.SortFunc(slips, func(a, b *stats.Slip) int { return order[a.Title] - order[b.Title] })
	for _, slip := range slips {
		if err := stats.Write(os.Stdout, cfg.output, slip); err != nil {
			return err
		}
	}

	if cfg.output == stats.FormatTable {
		rep.StdOut(used)
		return nil
	}
	return stats.Write(os.Stdout, cfg.output, rep)
}

func (cfg *config) valid() error {
	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return fmt.Errorf("value err : workers must > 0")
	}
	out, err := stats.ParseFormat(cfg.format)
	if err != nil {
		return fmt.Errorf("value err : %w", err)
	}
	cfg.output = out
	if len(cfg.files) == 0 {
		flag.Usage()
		return fmt.Errorf("value err : no bill files")
	}
	if cfg.configDir != "" {
		if st, err := os.Stat(cfg.configDir); err != nil || !st.IsDir() {
			return fmt.Errorf("value err : configs %q is not a directory", cfg.configDir)
		}
	}
	return nil
}

func init() {
	log.SetFlags(0)
}
