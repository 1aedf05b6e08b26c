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

package parse

import (
	"strings"

	"github.com/zintix-labs/huaylab/bet"
)

// rule 一條 (predicate, result)。同一位數的規則依序比對，先命中者勝。
type rule struct {
	match   func(typeText string) bool
	betType bet.BetType
	special bet.SpecialType
}

// result 命中的結果；special 可能在比對後再依號碼補上（คูณชุด）。
type result struct {
	betType bet.BetType
	special bet.SpecialType
}

func has(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func always(string) bool { return true }

// 2 位數「กลับ」單獨出現時視為 บนกลับ，但不能搶走 ล่าง/หน้า/ถ่าง 的กลับ
func bareReverse(s string) bool {
	return strings.Contains(s, "บนกลับ") ||
		(strings.Contains(s, "กลับ") && !has("ล่าง", "หน้า", "ถ่าง")(s))
}

var rules = map[int][]rule{
	1: {
		{has("ลอยล่าง", "วิ่งล่าง"), bet.RunBottom, bet.SpecialNone},
		{has("ลอยบน", "วิ่งบน"), bet.RunTop, bet.SpecialNone},
		{has("หน้าบน"), bet.FrontTop, bet.SpecialNone},
		{has("หน้าล่าง"), bet.FrontBottom, bet.SpecialNone},
		{has("กลางบน"), bet.MiddleTop, bet.SpecialNone},
		{has("หลังบน"), bet.BackTop, bet.SpecialNone},
		{has("หลังล่าง"), bet.BackBottom, bet.SpecialNone},
		{has("ล่าง"), bet.RunBottom, bet.SpecialNone},
		{always, bet.RunTop, bet.SpecialNone},
	},
	2: {
		{has("ล่างกลับ"), bet.TwoBottom, bet.SpecialReverse},
		{bareReverse, bet.TwoTop, bet.SpecialReverse},
		{has("หน้ากลับ"), bet.TwoFront, bet.SpecialReverse},
		{has("ถ่างกลับ"), bet.TwoTang, bet.SpecialReverse},
		{has("ลอย"), bet.TwoTeng, bet.SpecialNone},
		{has("หน้า"), bet.TwoFront, bet.SpecialNone},
		{has("ถ่าง"), bet.TwoTang, bet.SpecialNone},
		{has("ล่าง"), bet.TwoBottom, bet.SpecialNone},
		{has("บน"), bet.TwoTop, bet.SpecialNone},
		{always, bet.TwoTop, bet.SpecialNone},
	},
	3: {
		{has("คูณชุด"), bet.ThreeTop, bet.SpecialSet},
		{has("เต็งโต๊ด"), bet.ThreeTop, bet.SpecialTengTod},
		{has("โต๊ด"), bet.ThreeTod, bet.SpecialNone},
		{has("กลับ"), bet.ThreeTop, bet.SpecialReverse},
		{has("ล่าง"), bet.ThreeBottom, bet.SpecialNone},
		{has("ตรง", "บน"), bet.ThreeTop, bet.SpecialNone},
		{always, bet.ThreeTop, bet.SpecialNone},
	},
	4: {
		{has("คูณชุด"), bet.ThreeTop, bet.SpecialPerm3x},
		{has("ชุด"), bet.FourSet, bet.SpecialNone},
		{has("ลอยแพ", "ลอย"), bet.FourRun, bet.SpecialNone},
		{always, bet.FourRun, bet.SpecialNone},
	},
	5: {
		{has("คูณชุด"), bet.ThreeTop, bet.SpecialPerm3x},
		{has("ลอยแพ", "ลอย"), bet.FiveRun, bet.SpecialNone},
		{always, bet.FiveRun, bet.SpecialNone},
	},
}

func dispatch(numbers, typeText string) (result, bool) {
	for _, r := range rules[len(numbers)] {
		if !r.match(typeText) {
			continue
		}
		res := result{betType: r.betType, special: r.special}
		if res.special == bet.SpecialSet {
			res.special = setSpecial(numbers)
		}
		return res, true
	}
	return result{}, false
}

// Classify 只做玩法判定（不驗證金額），供輸入面板推測目前輸入行的玩法。
func Classify(numbers, typeText string) (bet.BetType, bet.SpecialType, bool) {
	if !IsDigits(numbers) {
		return "", bet.SpecialNone, false
	}
	r, ok := dispatch(numbers, NormalizeType(typeText))
	return r.betType, r.special, ok
}
