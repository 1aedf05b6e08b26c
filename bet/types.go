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

// Package bet 定義號碼彩（หวย）下注的領域型別。
//
// 三個層次：
//   - BetType / SpecialType：玩法與展開方式（兩個正交維度）。
//   - ParsedBet：單行輸入解析後的結果。
//   - Entry：展開後真正落地的注單單位（一行輸入可展開成多筆 Entry，共用同一個 EntryID）。
package bet

import (
	"slices"
	"strconv"
)

// BetType 玩法代碼，直接對應賠率/佣金表的 key。
type BetType string

const (
	RunTop      BetType = "run_top"
	RunBottom   BetType = "run_bottom"
	FrontTop    BetType = "front_top"
	FrontBottom BetType = "front_bottom"
	MiddleTop   BetType = "middle_top"
	BackTop     BetType = "back_top"
	BackBottom  BetType = "back_bottom"
	TwoTop      BetType = "2_top"
	TwoBottom   BetType = "2_bottom"
	TwoTeng     BetType = "2_teng"
	TwoFront    BetType = "2_front"
	TwoTang     BetType = "2_tang"
	ThreeTop    BetType = "3_top"
	ThreeTod    BetType = "3_tod"
	ThreeBottom BetType = "3_bottom"
	FourSet     BetType = "4_set"
	FourRun     BetType = "4_run"
	FiveRun     BetType = "5_run"
)

// AllBetTypes 依位數排序，供列舉/驗證使用。
var AllBetTypes = []BetType{
	RunTop, RunBottom, FrontTop, FrontBottom, MiddleTop, BackTop, BackBottom,
	TwoTop, TwoBottom, TwoTeng, TwoFront, TwoTang,
	ThreeTop, ThreeTod, ThreeBottom,
	FourSet, FourRun, FiveRun,
}

func (b BetType) Valid() bool {
	return slices.Contains(AllBetTypes, b)
}

// SpecialType 疊加在 BetType 上的展開方式。空字串代表不展開。
type SpecialType string

const (
	SpecialNone    SpecialType = ""
	SpecialReverse SpecialType = "reverse"
	SpecialSet3    SpecialType = "set3"
	SpecialSet6    SpecialType = "set6"
	SpecialTengTod SpecialType = "tengTod"
	SpecialPerm3x  SpecialType = "3xPerm"

	// SpecialSet 只出現在標籤表：實際解析結果會依排列數變成 set3 / set6 / set<N>。
	SpecialSet SpecialType = "set"
)

// SetSpecial 依排列數回傳 set<N>。
func SetSpecial(permCount int) SpecialType {
	return SpecialType("set" + strconv.Itoa(permCount))
}

// IsSet 判斷是否為 set<N> 家族。
func (s SpecialType) IsSet() bool {
	return len(s) > 3 && s[:3] == "set"
}

// LotteryType 彩種，決定哪些玩法/按鈕可用。
type LotteryType string

const (
	Thai  LotteryType = "thai"
	Lao   LotteryType = "lao"
	Hanoi LotteryType = "hanoi"
	Stock LotteryType = "stock"
)

func (l LotteryType) Valid() bool {
	switch l {
	case Thai, Lao, Hanoi, Stock:
		return true
	default:
		return false
	}
}

// SellsSets 4 ตัวชุด 以「套」計價只在寮國/河內彩。
func (l LotteryType) SellsSets() bool {
	return l == Lao || l == Hanoi
}

// ParsedBet 單行解析結果。
type ParsedBet struct {
	Numbers       string      `json:"numbers"`
	Amount        int         `json:"amount"`
	BetType       BetType     `json:"bet_type"`
	Special       SpecialType `json:"special_type,omitempty"`
	ReverseAmount *int        `json:"reverse_amount,omitempty"`
}

// SecondAmount 回傳第二金額；未提供時退回主金額。
func (p *ParsedBet) SecondAmount() int {
	if p.ReverseAmount != nil {
		return *p.ReverseAmount
	}
	return p.Amount
}

// Entry 實際落地的注單單位。
// 同一行輸入展開出的所有 Entry 共用 EntryID / DisplayText / DisplayAmount，
// 且 sum(Amount) == DisplayAmount。
type Entry struct {
	Numbers       string  `json:"numbers"`
	Amount        int     `json:"amount"`
	BetType       BetType `json:"bet_type"`
	EntryID       string  `json:"entry_id"`
	DisplayText   string  `json:"display_text"`
	DisplayAmount int     `json:"display_amount"`
	Position      int     `json:"position,omitempty"`  // 1-based，僅 4_run/5_run 展開時使用
	SetCount      int     `json:"set_count,omitempty"` // 僅 4_set（寮國/河內）使用
}

// SumAmount 加總 Entry 金額。
func SumAmount(es []Entry) int {
	total := 0
	for _, e := range es {
		total += e.Amount
	}
	return total
}
