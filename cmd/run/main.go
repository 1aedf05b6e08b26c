package main

import (
	"log"

	"github.com/zintix-labs/huaylab/sdk/perf"
)

// makefile runner
func main() {
	bindVar()
	if err := perf.Run(executeBatch, cfg.pprofmode, ""); err != nil {
		log.Fatal(err)
	}
}
