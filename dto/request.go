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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
)

// 防止 body 過大（預設 1MiB）
const maxBody = 1 << 20

// LineRequest 單行解析 / 展開。
type LineRequest struct {
	Line     string          `json:"line"`                // 輸入行，例如 "12=50*30 บนกลับ"
	Lottery  bet.LotteryType `json:"lottery,omitempty"`   // 彩種，預設 thai
	SetPrice int             `json:"set_price,omitempty"` // 寮國/河內 4 ตัวชุด 每套價格，0 用預設
	EntryID  string          `json:"entry_id,omitempty"`  // 可選：指定 EntryID
}

// DecodeLineRequest 會把 HTTP 請求解碼成 LineRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（line/lottery/set_price/entry_id）。
//   - POST：從 JSON body 反序列化。
//
// 這裡只負責解碼與基本型別轉換；彩種是否合法由上層決定。
func DecodeLineRequest(r *http.Request) (*LineRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(LineRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Line = q.Get("line")
		req.Lottery = bet.LotteryType(q.Get("lottery"))
		req.EntryID = q.Get("entry_id")
		if s := q.Get("set_price"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid set_price: %v", err))
			}
			req.SetPrice = v
		}
		return req, nil

	case http.MethodPost:
		if err := decodeStrict(r.Body, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// OpenRequest 開啟輸入面板。
type OpenRequest struct {
	Round string       `json:"round"`          // catalog 內的 round 名稱
	Edit  *EditRequest `json:"edit,omitempty"` // 可選：修改既有單據
}

// EditRequest 修改既有單據時帶入的原始資料。
type EditRequest struct {
	BillID string      `json:"bill_id"`
	Lines  []string    `json:"lines"`
	Items  []bet.Entry `json:"items,omitempty"`
}

// KeysRequest 依序送出多個按鍵（"0"~"9"、"="、"*"、"enter"...）。
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// TypeRequest 點選玩法按鈕（value 例如 "2_top"、"3_top+tengTod"）。
type TypeRequest struct {
	Value string `json:"value"`
}

// PressRequest 玩法按鈕按壓事件。
type PressRequest struct {
	Value  string `json:"value,omitempty"`
	Action string `json:"action"` // start | end | leave
}

const (
	PressStart = "start"
	PressEnd   = "end"
	PressLeave = "leave"
)

// TextRequest 貼上多行文字。
type TextRequest struct {
	Text string `json:"text"`
}

// SubmitRequest 送單。
type SubmitRequest struct {
	Note string `json:"note,omitempty"`
}

// DecodeJSON 以 POST JSON body 解碼任意請求（限制大小、拒絕未知欄位）。
// 空 body 視為零值請求。
func DecodeJSON[T any](r *http.Request) (*T, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(T)
	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}
	if err := decodeStrict(r.Body, req); err != nil {
		if err == io.EOF {
			return req, nil
		}
		return nil, err
	}
	return req, nil
}

func decodeStrict(body io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return err
		}
		return errs.Codedf(errs.CodeFormat, "invalid json: %v", err)
	}
	return nil
}
