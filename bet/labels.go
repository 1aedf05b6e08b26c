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

package bet

import (
	"slices"
	"strings"
)

// Side 上/下（บน/ล่าง）偏向，對應輸入面板的切換鍵。
type Side uint8

const (
	SideAny Side = iota
	SideTop
	SideBottom
)

// Label 是「按鈕文字」與「解析關鍵字」共用的一列。
//
// 同一份表同時被輸入面板（產生按鈕）與解析器測試（確認每個按鈕文字都解析回自己）使用，
// 兩邊不會各自維護一份字串。
type Label struct {
	Digits  int         // 適用位數
	Text    string      // 按鈕文字，同時是寫進輸入行的玩法字尾
	BetType BetType     // 解析後的玩法
	Special SpecialType // 解析後的展開方式（SpecialSet 表示依排列數決定）
	Side    Side
	Single  bool          // 只有一個金額時可用
	Pair    bool          // 有第二金額（'*'）時可用
	Only    []LotteryType // 非空：只在這些彩種出現
	Except  []LotteryType // 這些彩種不出現
}

// Value 為按鈕值，也是「預設玩法」偏好存放的字串。
func (l Label) Value() string {
	if l.Special == SpecialNone {
		return string(l.BetType)
	}
	return string(l.BetType) + "+" + string(l.Special)
}

// AvailableFor 判斷此彩種是否提供該按鈕。
func (l Label) AvailableFor(lt LotteryType) bool {
	if len(l.Only) > 0 && !slices.Contains(l.Only, lt) {
		return false
	}
	return !slices.Contains(l.Except, lt)
}

// NeedsSecondAmount 寫入時是否要補第二金額（กลับ / เต็งโต๊ด 預設沿用主金額，3 位數 คูณชุด 填排列數）。
func (l Label) NeedsSecondAmount() bool {
	switch l.Special {
	case SpecialReverse, SpecialTengTod:
		return true
	case SpecialSet:
		return l.Digits == 3
	}
	return false
}

var setLotteries = []LotteryType{Lao, Hanoi}

// Labels 依位數、再依面板顯示順序排列；每組（位數, 上下, 金額數）中的第一個即為系統預設玩法。
var Labels = []Label{
	// 1 位數
	{Digits: 1, Text: "วิ่งบน", BetType: RunTop, Side: SideTop, Single: true},
	{Digits: 1, Text: "หน้าบน", BetType: FrontTop, Side: SideTop, Single: true},
	{Digits: 1, Text: "กลางบน", BetType: MiddleTop, Side: SideTop, Single: true},
	{Digits: 1, Text: "หลังบน", BetType: BackTop, Side: SideTop, Single: true},
	{Digits: 1, Text: "วิ่งล่าง", BetType: RunBottom, Side: SideBottom, Single: true},
	{Digits: 1, Text: "หน้าล่าง", BetType: FrontBottom, Side: SideBottom, Single: true},
	{Digits: 1, Text: "หลังล่าง", BetType: BackBottom, Side: SideBottom, Single: true},

	// 2 位數
	{Digits: 2, Text: "2 ตัวบน", BetType: TwoTop, Side: SideTop, Single: true},
	{Digits: 2, Text: "บนกลับ", BetType: TwoTop, Special: SpecialReverse, Side: SideTop, Single: true, Pair: true},
	{Digits: 2, Text: "2 ตัวลอย", BetType: TwoTeng, Side: SideTop, Single: true},
	{Digits: 2, Text: "2 ตัวหน้า", BetType: TwoFront, Side: SideTop, Single: true},
	{Digits: 2, Text: "หน้ากลับ", BetType: TwoFront, Special: SpecialReverse, Side: SideTop, Single: true, Pair: true},
	{Digits: 2, Text: "2 ตัวถ่าง", BetType: TwoTang, Side: SideTop, Single: true},
	{Digits: 2, Text: "ถ่างกลับ", BetType: TwoTang, Special: SpecialReverse, Side: SideTop, Single: true, Pair: true},
	{Digits: 2, Text: "2 ตัวล่าง", BetType: TwoBottom, Side: SideBottom, Single: true},
	{Digits: 2, Text: "ล่างกลับ", BetType: TwoBottom, Special: SpecialReverse, Side: SideBottom, Single: true, Pair: true},

	// 3 位數
	{Digits: 3, Text: "3 ตัวบน", BetType: ThreeTop, Side: SideTop, Single: true},
	{Digits: 3, Text: "เต็งโต๊ด", BetType: ThreeTop, Special: SpecialTengTod, Side: SideTop, Single: true, Pair: true},
	{Digits: 3, Text: "3 ตัวโต๊ด", BetType: ThreeTod, Side: SideTop, Single: true},
	{Digits: 3, Text: "3 ตัวกลับ", BetType: ThreeTop, Special: SpecialReverse, Side: SideTop, Single: true, Pair: true},
	{Digits: 3, Text: "คูณชุด", BetType: ThreeTop, Special: SpecialSet, Side: SideTop, Single: true},
	{Digits: 3, Text: "3 ตัวล่าง", BetType: ThreeBottom, Side: SideBottom, Single: true, Except: setLotteries},

	// 4 位數
	{Digits: 4, Text: "ลอยแพ", BetType: FourRun, Single: true},
	{Digits: 4, Text: "คูณชุด", BetType: ThreeTop, Special: SpecialPerm3x, Single: true},
	{Digits: 4, Text: "4 ตัวชุด", BetType: FourSet, Single: true, Only: setLotteries},

	// 5 位數
	{Digits: 5, Text: "ลอยแพ", BetType: FiveRun, Single: true},
	{Digits: 5, Text: "คูณชุด", BetType: ThreeTop, Special: SpecialPerm3x, Single: true},
}

// LabelsFor 回傳某位數的所有標籤（不過濾彩種/上下）。
func LabelsFor(digits int) []Label {
	out := make([]Label, 0, 10)
	for _, l := range Labels {
		if l.Digits == digits {
			out = append(out, l)
		}
	}
	return out
}

// FindLabel 依位數與按鈕值找標籤。
func FindLabel(digits int, value string) (Label, bool) {
	for _, l := range Labels {
		if l.Digits == digits && l.Value() == value {
			return l, true
		}
	}
	return Label{}, false
}

// Candidates 回傳目前輸入狀態可點的玩法按鈕。
//
// 1~3 位數依 side 過濾；4/5 位數不分上下。
// 有第二金額時只留 Pair 按鈕，否則只留 Single 按鈕。
func Candidates(digits int, hasSecond bool, side Side, lt LotteryType) []Label {
	out := make([]Label, 0, 8)
	for _, l := range Labels {
		if l.Digits != digits || !l.AvailableFor(lt) {
			continue
		}
		if hasSecond && !l.Pair {
			continue
		}
		if !hasSecond && !l.Single {
			continue
		}
		if l.Side != SideAny && l.Side != side {
			continue
		}
		out = append(out, l)
	}
	return out
}

// suffixes 依長度由長到短排序的所有按鈕文字（去重），供「刪除整個玩法字尾」比對。
var suffixes = func() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(Labels))
	for _, l := range Labels {
		if _, ok := seen[l.Text]; ok {
			continue
		}
		seen[l.Text] = struct{}{}
		out = append(out, l.Text)
	}
	slices.SortStableFunc(out, func(a, b string) int { return len(b) - len(a) })
	return out
}()

// TrailingLabel 若 s 以「空白 + 按鈕文字」結尾，回傳該文字。
func TrailingLabel(s string) (string, bool) {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, " "+suf) {
			return suf, true
		}
	}
	return "", false
}
