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

// Package errs 定義 huaylab 統一使用的錯誤型別。
//
// 每個錯誤同時帶有兩個維度：
//   - ErrLevel：嚴重程度（Fatal 需中止、Warn 為使用者可自行修正）。
//   - Code：錯誤類別（格式、位數能力、輸入組合、送單、內部）。
//
// 使用者看到的訊息一律是 Message；Error() 則保留分級/類別前綴，方便寫 log。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code 為錯誤類別。數值本身不對外承諾，只用於分流與測試。
type Code uint8

const (
	CodeNone        Code = iota
	CodeFormat           // 單行格式錯誤：缺金額、號碼非數字、位數超出 1~5、金額非正整數
	CodeCapability       // 位數不支援此玩法：例如 1/4/5 位數下兩個金額
	CodeComposition      // 按鍵組合不合法：重複 '='、'*' 在 '=' 前、金額前導 0 ...
	CodeSubmit           // 送單失敗（外部 sink 拒絕）
	CodeInternal         // 不應發生的內部狀態
	CodeNotFound         // 面板 / round 不存在或已過期
)

var codeMap = map[Code]string{
	CodeNone:        "",
	CodeFormat:      "format",
	CodeCapability:  "capability",
	CodeComposition: "composition",
	CodeSubmit:      "submit",
	CodeInternal:    "internal",
	CodeNotFound:    "not_found",
}

func (c Code) String() string {
	if str, ok := codeMap[c]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為使用者可讀的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Code 為錯誤類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Code != CodeNone {
		base += " code=" + e.Code.String()
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依分級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal, Code: CodeInternal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// Coded 建立一個帶類別的 Warn 錯誤。使用者輸入造成的錯誤都走這裡。
func Coded(code Code, msg string) *E {
	return &E{Message: msg, ErrLv: Warn, Code: code}
}

func Codedf(code Code, format string, a ...any) *E {
	return Coded(code, fmt.Sprintf(format, a...))
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Code 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code（保持原本嚴重度）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則視為 Fatal / CodeInternal。
func Wrap(cause error, msg string) *E {
	var e *E
	r := New(Fatal, msg)
	r.Code = CodeInternal
	if errors.As(cause, &e) {
		r.ErrLv = e.ErrLv
		r.Code = e.Code
	}
	r.Cause = cause
	return r
}

// WrapCode 以指定類別包裝錯誤，嚴重度固定為 Warn。
// 用於「下層失敗但使用者可重試」的情境，例如送單被外部拒絕。
func WrapCode(cause error, code Code, msg string) *E {
	r := Coded(code, msg)
	r.Cause = cause
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// CodeOf 取出錯誤類別；非 *E 一律視為 CodeInternal。
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	if e, ok := AsErr(err); ok {
		return e.Code
	}
	return CodeInternal
}

// UserMessage 回傳可直接顯示給使用者的訊息（不含分級前綴）。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := AsErr(err); ok {
		if e.Cause != nil && e.Code == CodeSubmit {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
