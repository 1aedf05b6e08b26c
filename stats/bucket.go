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

package stats

import "sort"

// AmountBuckets 單筆注單金額區間
//
// 請勿修改預設值
//   - 區間: [1,10), [10,50), [50,100), [100,500), [500,1000), [1000,5000), [5000,+inf)
var AmountBuckets = &Buckets{
	bounds: []int{1, 10, 50, 100, 500, 1000, 5000},
	labels: []string{"[1,10)", "[10,50)", "[50,100)", "[100,500)", "[500,1000)", "[1000,5000)", "[5000,+inf)"},
}

type Buckets struct {
	bounds []int
	labels []string
}

func (b *Buckets) Labels() []string {
	return b.labels
}

func (b *Buckets) Len() int {
	return len(b.labels)
}

// Index 金額 -> 區間位置；小於下限的金額歸入第一格。
func (b *Buckets) Index(amount int) int {
	i := sort.SearchInts(b.bounds, amount+1) - 1
	if i < 0 {
		return 0
	}
	return i
}
