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
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/huaylab/sink/pgsink"
)

func main() {
	exeCmd()
}

func exeCmd() {
	// 如果沒有送任何參數進來，我們告訴用戶需要帶上 task
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-detail|schema|samples]")
		os.Exit(1)
	}
	selectTask(os.Args[1])
}

func selectTask(task string) {
	switch task {
	case "test":
		runGoTest(false)
	case "test-detail":
		runGoTest(true)
	case "schema":
		fmt.Print(pgsink.Schema)
	case "samples":
		writeSamples("build/samples", 20, 200)
	default:
		warnf("unknown task: %s", task)
		os.Exit(1)
	}
}

// runGoTest 清除 test cache 後跑全部測試。
// detail=false 只印 ok/FAIL 行；detail=true 印出全部，但略過 "[no test files]"。
func runGoTest(detail bool) {
	okf("running tests")
	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		failf("%v", err)
	}

	args := []string{"test", "./...", "-count=1", "-cover"}
	if detail {
		args = append(args, "-v")
	}
	cmd := exec.Command("go", args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		failf("%v", err)
		os.Exit(1)
	}
	// 編譯錯誤在 stderr，一起讀
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		failf("start go test: %v", err)
		os.Exit(1)
	}

	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "ok"):
			okf("%s", line)
		case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
			failf("%s", line)
		case detail && !strings.Contains(line, "[no test files]"):
			fmt.Println(line)
		}
	}
	if err := cmd.Wait(); err != nil {
		failf("tests finished with errors")
		os.Exit(1)
	}
}

var sampleTypes = map[int][]string{
	1: {"วิ่งบน", "วิ่งล่าง"},
	2: {"2 ตัวบน", "2 ตัวล่าง", "บนกลับ", "ล่างกลับ"},
	3: {"3 ตัวบน", "3 ตัวโต๊ด", "3 ตัวกลับ", "เต็งโต๊ด"},
}

// writeSamples 產生 cmd/run 用的範例單據：每個檔案 bills 張、單據之間空一行。
func writeSamples(dir string, files, bills int) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		failf("%v", err)
		os.Exit(1)
	}
	r := rand.New(rand.NewPCG(20251016, 1))
	for f := 1; f <= files; f++ {
		var sb strings.Builder
		for b := 0; b < bills; b++ {
			for n := 1 + r.IntN(8); n > 0; n-- {
				sb.WriteString(sampleLine(r))
				sb.WriteByte('\n')
			}
			sb.WriteByte('\n')
		}
		name := filepath.Join(dir, fmt.Sprintf("bills_%02d.txt", f))
		if err := os.WriteFile(name, []byte(sb.String()), 0o644); err != nil {
			failf("%v", err)
			os.Exit(1)
		}
	}
	okf("wrote %d files to %s", files, dir)
}

func sampleLine(r *rand.Rand) string {
	digits := 1 + r.IntN(3)
	num := fmt.Sprintf("%0*d", digits, r.IntN(pow10(digits)))
	amount := 5 * (1 + r.IntN(40))
	types := sampleTypes[digits]
	t := types[r.IntN(len(types))]
	if t == "บนกลับ" || t == "ล่างกลับ" || t == "เต็งโต๊ด" {
		return fmt.Sprintf("%s=%d*%d %s", num, amount, amount, t)
	}
	return fmt.Sprintf("%s=%d %s", num, amount, t)
}

func pow10(n int) int {
	v := 1
	for range n {
		v *= 10
	}
	return v
}

// ANSI 顏色；設了 NO_COLOR 就輸出純文字（CI log）
const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

var noColor = os.Getenv("NO_COLOR") != ""

func colorf(color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if noColor {
		fmt.Println(msg)
		return
	}
	fmt.Printf("%s%s%s\n", color, msg, ansiReset)
}

func okf(format string, args ...any)   { colorf(ansiGreen, format, args...) }
func warnf(format string, args ...any) { colorf(ansiYellow, format, args...) }
func failf(format string, args ...any) { colorf(ansiRed, format, args...) }
