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

package dto

import (
	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/session"
)

// LineResult 單行解析/展開的回應。
type LineResult struct {
	Line          string         `json:"line"`
	Parsed        *bet.ParsedBet `json:"parsed,omitempty"`
	Entries       []bet.Entry    `json:"entries,omitempty"`
	DisplayAmount int            `json:"display_amount"`
}

func NewLineResult(line string, p *bet.ParsedBet, es []bet.Entry) LineResult {
	return LineResult{
		Line:          line,
		Parsed:        p,
		Entries:       es,
		DisplayAmount: expand.DisplayAmount(es),
	}
}

// LabelDTO 對外輸出的玩法按鈕定義。
type LabelDTO struct {
	Digits     int             `json:"digits"`
	Text       string          `json:"text"`
	Value      string          `json:"value"`
	BetType    bet.BetType     `json:"bet_type"`
	Special    bet.SpecialType `json:"special_type,omitempty"`
	Side       string          `json:"side,omitempty"`
	Single     bool            `json:"single"`
	Pair       bool            `json:"pair"`
	NeedsPair  bool            `json:"needs_second_amount"`
	Lotteries  []string        `json:"only,omitempty"`
	Exceptions []string        `json:"except,omitempty"`
}

// NewLabelDTOs 列出標籤表；lottery 非空時只留該彩種提供的按鈕。
func NewLabelDTOs(lottery bet.LotteryType) []LabelDTO {
	out := make([]LabelDTO, 0, len(bet.Labels))
	for _, l := range bet.Labels {
		if lottery != "" && !l.AvailableFor(lottery) {
			continue
		}
		d := LabelDTO{
			Digits:    l.Digits,
			Text:      l.Text,
			Value:     l.Value(),
			BetType:   l.BetType,
			Special:   l.Special,
			Single:    l.Single,
			Pair:      l.Pair,
			NeedsPair: l.NeedsSecondAmount(),
		}
		switch l.Side {
		case bet.SideTop:
			d.Side = "top"
		case bet.SideBottom:
			d.Side = "bottom"
		}
		for _, lt := range l.Only {
			d.Lotteries = append(d.Lotteries, string(lt))
		}
		for _, lt := range l.Except {
			d.Exceptions = append(d.Exceptions, string(lt))
		}
		out = append(out, d)
	}
	return out
}

// SessionView 面板狀態 + 目前緩衝的即時預覽。
type SessionView struct {
	session.Snapshot
	Preview      []bet.Entry `json:"preview,omitempty"`
	PreviewError string      `json:"preview_error,omitempty"`
}

func NewSessionView(s *session.Session) SessionView {
	v := SessionView{Snapshot: s.Snapshot()}
	es, err := s.Preview()
	if err != nil {
		v.PreviewError = errs.UserMessage(err)
	}
	v.Preview = es
	return v
}

// KeysResult 按鍵序列的處理結果：遇到第一個被拒絕的按鍵就停止。
type KeysResult struct {
	Applied int         `json:"applied"`
	Error   *ErrorDTO   `json:"error,omitempty"`
	View    SessionView `json:"view"`
}

// PressResult 按壓事件結果。LongPress 為 true 代表已設為預設玩法（不點擊）。
type PressResult struct {
	LongPress bool        `json:"long_press"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	View      SessionView `json:"view"`
}

// TextResult 貼上多行文字的結果。
type TextResult struct {
	Added  int         `json:"added"`
	Errors []ErrorDTO  `json:"errors,omitempty"`
	View   SessionView `json:"view"`
}

// SubmitResult 送單結果。
type SubmitResult struct {
	Bill   *session.Bill `json:"bill"`
	Amount int           `json:"amount"`
}

// ErrorDTO 對外的錯誤格式。
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorDTO(err error) *ErrorDTO {
	if err == nil {
		return nil
	}
	return &ErrorDTO{Code: errs.CodeOf(err).String(), Message: errs.UserMessage(err)}
}

func NewErrorDTOs(es []error) []ErrorDTO {
	if len(es) == 0 {
		return nil
	}
	out := make([]ErrorDTO, 0, len(es))
	for _, e := range es {
		out = append(out, *NewErrorDTO(e))
	}
	return out
}
