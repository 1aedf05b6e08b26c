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

// Package parse 把一行下注文字解析成 bet.ParsedBet。
//
// 支援兩種寫法：
//
//	12 100 บน          舊式：號碼 空白 金額 [玩法字]
//	12=100*50 บนกลับ   結構式：號碼=金額1[*金額2] [玩法字]
//
// 玩法由「位數」加上「玩法字關鍵字」共同決定，關鍵字依固定優先序比對，先命中者勝。
package parse

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/perm"
	"golang.org/x/text/unicode/norm"
)

const (
	MinDigits = 1
	MaxDigits = 5
)

// Parse 解析單行。空白行回傳 (nil, nil)：不是錯誤，只是沒有東西。
func Parse(line string) (*bet.ParsedBet, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	f, err := split(line)
	if err != nil {
		return nil, err
	}

	if !IsDigits(f.numbers) || len(f.numbers) < MinDigits || len(f.numbers) > MaxDigits {
		return nil, errs.Codedf(errs.CodeFormat, "invalid numbers: %q (need %d-%d digits)", f.numbers, MinDigits, MaxDigits)
	}

	amount, ok := positive(f.amount1)
	if !ok {
		return nil, errs.Coded(errs.CodeFormat, "invalid amount")
	}
	var reverse *int
	if f.hasStar {
		a2, ok := positive(f.amount2)
		if !ok {
			return nil, errs.Coded(errs.CodeFormat, "invalid amount set 2")
		}
		reverse = &a2
	}

	typeText := NormalizeType(f.typeText)
	r, ok := dispatch(f.numbers, typeText)
	if !ok {
		return nil, errs.Codedf(errs.CodeFormat, "cannot determine bet type for %d digits", len(f.numbers))
	}

	return &bet.ParsedBet{
		Numbers:       f.numbers,
		Amount:        amount,
		BetType:       r.betType,
		Special:       r.special,
		ReverseAmount: reverse,
	}, nil
}

// NormalizeType 玩法字統一為小寫 + NFC，避免泰文聲調符號輸入順序不同而比對失敗。
func NormalizeType(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// fields 一行拆解後的各段原始字串。
type fields struct {
	numbers  string
	amount1  string
	hasStar  bool
	amount2  string
	typeText string
}

func split(line string) (fields, error) {
	var f fields
	var rest string

	if i := strings.IndexByte(line, '='); i >= 0 {
		f.numbers = strings.TrimSpace(line[:i])
		rest = strings.TrimSpace(line[i+1:])
		if j := strings.IndexByte(rest, '*'); j >= 0 {
			f.hasStar = true
			f.amount1 = strings.TrimSpace(rest[:j])
			f.amount2, f.typeText = leadingNumber(strings.TrimSpace(rest[j+1:]))
			return f, nil
		}
	} else {
		i := strings.IndexFunc(line, unicode.IsSpace)
		if i < 0 {
			return f, errs.Coded(errs.CodeFormat, "invalid format")
		}
		f.numbers = line[:i]
		rest = strings.TrimSpace(line[i:])
	}

	f.amount1, f.typeText = leadingNumber(rest)
	return f, nil
}

// leadingNumber 拆出開頭的連續數字，其餘為玩法字。
func leadingNumber(s string) (num string, remainder string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func positive(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// IsDigits 是否為非空的純 ASCII 數字。
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// 3 位數 คูณชุด 依排列數決定 set3 / set6 / set<N>
func setSpecial(numbers string) bet.SpecialType {
	switch c := perm.Count(numbers); c {
	case 3:
		return bet.SpecialSet3
	case 6:
		return bet.SpecialSet6
	default:
		return bet.SetSpecial(c)
	}
}

// Canonical 把一行改寫成結構式 "numbers=amount1[*amount2] type"。
// 無法拆解的行原樣（去頭尾空白）回傳；不做數值驗證。
func Canonical(line string) string {
	line = strings.TrimSpace(line)
	f, err := split(line)
	if err != nil || f.numbers == "" {
		return line
	}
	out := f.numbers + "=" + f.amount1
	if f.hasStar {
		out += "*" + f.amount2
	}
	if f.typeText != "" {
		out += " " + f.typeText
	}
	return out
}

// StripType 去掉玩法字，只留 "numbers=amount1[*amount2]"。
func StripType(line string) string {
	line = strings.TrimSpace(line)
	f, err := split(line)
	if err != nil || f.numbers == "" {
		return line
	}
	out := f.numbers + "=" + f.amount1
	if f.hasStar {
		out += "*" + f.amount2
	}
	return out
}
