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

package session

import (
	"strings"

	"github.com/zintix-labs/huaylab/sdk/parse"
)

// State 組字緩衝目前所處的階段。
type State uint8

const (
	StateEmpty       State = iota // ""
	StateNumbers                  // "123"
	StateNumbersEq                // "123="
	StateAmount1                  // "123=50"
	StateAmount1Star              // "123=50*"
	StateAmount2                  // "123=50*20"
	StateTyped                    // "123=50 3 ตัวบน"
)

var stateNames = [...]string{"EMPTY", "NUMBERS", "NUMBERS_EQ", "AMOUNT1", "AMOUNT1_STAR", "AMOUNT2", "TYPED"}

func (st State) String() string {
	if int(st) < len(stateNames) {
		return stateNames[st]
	}
	return "UNKNOWN"
}

// composition 把緩衝拆成各段。玩法字從第一個空白之後開始（金額內不會有空白）。
type composition struct {
	numbers  string
	hasEq    bool
	amount1  string
	hasStar  bool
	amount2  string
	typeText string
}

func decompose(buf string) composition {
	var c composition
	head := buf
	if i := strings.IndexByte(buf, ' '); i >= 0 {
		head = buf[:i]
		c.typeText = strings.TrimSpace(buf[i+1:])
	}
	if i := strings.IndexByte(head, '='); i >= 0 {
		c.hasEq = true
		c.numbers = head[:i]
		rest := head[i+1:]
		if j := strings.IndexByte(rest, '*'); j >= 0 {
			c.hasStar = true
			c.amount1 = rest[:j]
			c.amount2 = rest[j+1:]
		} else {
			c.amount1 = rest
		}
	} else {
		c.numbers = head
	}
	return c
}

func (c composition) state() State {
	switch {
	case c.typeText != "":
		return StateTyped
	case c.hasStar && c.amount2 != "":
		return StateAmount2
	case c.hasStar:
		return StateAmount1Star
	case c.hasEq && c.amount1 != "":
		return StateAmount1
	case c.hasEq:
		return StateNumbersEq
	case c.numbers != "":
		return StateNumbers
	default:
		return StateEmpty
	}
}

func (c composition) digits() int {
	if !parse.IsDigits(c.numbers) {
		return 0
	}
	return len(c.numbers)
}

// bareDigits "123"：只有號碼，沒有 '=' 也沒有玩法字。
func (c composition) bareDigits() bool {
	return c.digits() > 0 && !c.hasEq && c.typeText == ""
}

func (c composition) hasSecond() bool {
	return c.hasStar && c.amount2 != ""
}

// amounts 回傳 "amount1[*amount2]"。
func (c composition) amounts() string {
	if c.hasSecond() {
		return c.amount1 + "*" + c.amount2
	}
	return c.amount1
}

// pairDigits 只有 2、3 位數可以下兩個金額。
func pairDigits(n int) bool {
	return n == 2 || n == 3
}

// State 目前的組字階段。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decompose(s.buf).state()
}
