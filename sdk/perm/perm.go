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

// Package perm 提供號碼排列相關的純函數：
//   - Permutations：去重後的全排列（กลับ / คูณชุด / โต๊ด 展開用）
//   - Count：去重排列數，用來分辨「三個數字都不同（6）」與「有重複（3/1）」
//   - ThreeDigitCombos：由 4/5 位數取出 3 位數組合（4/5 位數 คูณชุด 展開用）
package perm

import (
	"slices"

	"gonum.org/v1/gonum/stat/combin"
)

// Permutations 回傳 s 所有「不重複」的字元排列，順序為遞迴移除字元時的首次出現順序。
//
//	Permutations("")    -> [""]
//	Permutations("112") -> ["112", "121", "211"]
func Permutations(s string) []string {
	rs := []rune(s)
	if len(rs) <= 1 {
		return []string{s}
	}
	seen := make(map[string]struct{}, factorial(len(rs)))
	out := make([]string, 0, factorial(len(rs)))
	for i, r := range rs {
		rest := make([]rune, 0, len(rs)-1)
		rest = append(rest, rs[:i]...)
		rest = append(rest, rs[i+1:]...)
		for _, tail := range Permutations(string(rest)) {
			p := string(r) + tail
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Count 去重後的排列數。
func Count(s string) int {
	return len(Permutations(s))
}

// ThreeDigitCombos 由 4/5 位數取出 3 位數字串。
//
// 取法為所有「索引互不相同的有序三元組 (i,j,k)」，依巢狀迴圈順序輸出 digits[i]+digits[j]+digits[k] 並去重。
// 注意這是有序選取而非組合：數字互不相同時，"1234" 會得到 24 組而不是 4 組。
// 下游金額總和依賴這個數量，請勿改成組合。
// 長度不足 3 時回傳 nil。
func ThreeDigitCombos(s string) []string {
	digits := []rune(s)
	n := len(digits)
	if n < 3 {
		return nil
	}
	triples := combin.Permutations(n, 3)
	slices.SortFunc(triples, func(a, b []int) int { return slices.Compare(a, b) })

	seen := make(map[string]struct{}, len(triples))
	out := make([]string, 0, len(triples))
	for _, t := range triples {
		c := string([]rune{digits[t[0]], digits[t[1]], digits[t[2]]})
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// SortedDigits 將數字字串由小到大排序（โต๊ด 的標準形）。
func SortedDigits(s string) string {
	rs := []rune(s)
	slices.Sort(rs)
	return string(rs)
}

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}
