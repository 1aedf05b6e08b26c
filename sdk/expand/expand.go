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

// Package expand 把解析後的單行下注展開成實際落地的 bet.Entry。
//
// 展開規則依序判斷（先命中者勝）：
//  1. 4_set 且彩種為寮國/河內：金額視為「套數」，乘上每套價格，只產生一筆。
//  2. 3xPerm：4/5 位數取出所有 3 位數有序組合，每組一筆 3_top。
//  3. reverse：原號碼用主金額，其餘排列用第二金額（未給則用主金額）。
//  4. set3/set6：每個排列一筆，金額相同。
//  5. tengTod：3_top 一筆 + 3_tod（號碼排序後）一筆。
//  6. 4_run/5_run：每個位置一筆 run_top，帶位置編號。
//  7. 其餘：原樣一筆。
package expand

import (
	"fmt"
	"strconv"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/sdk/perm"
)

const DefaultSetPrice = 120

// Options 展開時需要的外部設定。零值會套用預設（每套 120、泰國彩）。
type Options struct {
	SetPrice int
	Lottery  bet.LotteryType
}

func (o Options) norm() Options {
	if o.SetPrice <= 0 {
		o.SetPrice = DefaultSetPrice
	}
	if o.Lottery == "" {
		o.Lottery = bet.Thai
	}
	return o
}

// Expand 展開一行。p 為 nil 時回傳 nil。
//
// entryID 由呼叫端提供（可為空字串），同一行展開出的所有 Entry 共用。
// rawLine 為空時 DisplayText 以 "<numbers>=<amount>" 代替。
func Expand(p *bet.ParsedBet, entryID string, rawLine string, opt Options) []bet.Entry {
	if p == nil {
		return nil
	}
	opt = opt.norm()

	display := rawLine
	if display == "" {
		display = p.Numbers + "=" + strconv.Itoa(p.Amount)
	}
	b := builder{id: entryID, display: display}

	switch {
	case p.BetType == bet.FourSet && opt.Lottery.SellsSets():
		sets := p.Amount
		b.display = fmt.Sprintf("%s=%d 4ตัวชุด(%d)", p.Numbers, sets, sets)
		b.add(bet.Entry{Numbers: p.Numbers, Amount: sets * opt.SetPrice, BetType: p.BetType, SetCount: sets})

	case p.Special == bet.SpecialPerm3x:
		for _, c := range perm.ThreeDigitCombos(p.Numbers) {
			b.add(bet.Entry{Numbers: c, Amount: p.Amount, BetType: bet.ThreeTop})
		}

	case p.Special == bet.SpecialReverse:
		second := p.SecondAmount()
		b.add(bet.Entry{Numbers: p.Numbers, Amount: p.Amount, BetType: p.BetType})
		for _, n := range perm.Permutations(p.Numbers) {
			if n == p.Numbers {
				continue
			}
			b.add(bet.Entry{Numbers: n, Amount: second, BetType: p.BetType})
		}

	case p.Special == bet.SpecialSet3 || p.Special == bet.SpecialSet6:
		for _, n := range perm.Permutations(p.Numbers) {
			b.add(bet.Entry{Numbers: n, Amount: p.Amount, BetType: p.BetType})
		}

	case p.Special == bet.SpecialTengTod:
		b.add(bet.Entry{Numbers: p.Numbers, Amount: p.Amount, BetType: bet.ThreeTop})
		b.add(bet.Entry{Numbers: perm.SortedDigits(p.Numbers), Amount: p.SecondAmount(), BetType: bet.ThreeTod})

	case p.BetType == bet.FourRun || p.BetType == bet.FiveRun:
		for i, d := range p.Numbers {
			b.add(bet.Entry{Numbers: string(d), Amount: p.Amount, BetType: bet.RunTop, Position: i + 1})
		}

	default:
		b.add(bet.Entry{Numbers: p.Numbers, Amount: p.Amount, BetType: p.BetType})
	}

	return b.done()
}

// DisplayAmount 一行展開後的總額（即每筆 Entry 上的 DisplayAmount）。
func DisplayAmount(es []bet.Entry) int {
	if len(es) == 0 {
		return 0
	}
	return es[0].DisplayAmount
}

type builder struct {
	id      string
	display string
	out     []bet.Entry
}

func (b *builder) add(e bet.Entry) {
	b.out = append(b.out, e)
}

// done 補上共用欄位：EntryID、DisplayText、DisplayAmount（= 本行所有金額總和）。
func (b *builder) done() []bet.Entry {
	total := bet.SumAmount(b.out)
	for i := range b.out {
		b.out[i].EntryID = b.id
		b.out[i].DisplayText = b.display
		b.out[i].DisplayAmount = total
	}
	return b.out
}
