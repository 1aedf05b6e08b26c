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

// Package setting 定義一個開獎期（งวด）的下注面板設定。
package setting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/sdk/expand"
	"github.com/zintix-labs/huaylab/sdk/parse"
	"gopkg.in/yaml.v3"
)

// RoundSetting 開啟一個輸入面板所需的所有設定。
type RoundSetting struct {
	RoundName    string          `yaml:"round_name"    json:"round_name"`
	LotteryType  bet.LotteryType `yaml:"lottery_type"  json:"lottery_type"`
	SetPrice     int             `yaml:"set_price"     json:"set_price"`
	AutoSubmit   bool            `yaml:"auto_submit"   json:"auto_submit"`
	LongPressMs  int             `yaml:"long_press_ms" json:"long_press_ms"`
	DefaultTypes map[int]string  `yaml:"default_types" json:"default_types"`
}

// LongPress 長按門檻；0 代表使用面板預設值。
func (rs *RoundSetting) LongPress() time.Duration {
	return time.Duration(rs.LongPressMs) * time.Millisecond
}

// init
func (rs *RoundSetting) init() error {
	if rs.LotteryType == "" {
		rs.LotteryType = bet.Thai
	}
	if rs.SetPrice == 0 {
		rs.SetPrice = expand.DefaultSetPrice
	}
	return rs.valid()
}

// valid 執行最基本的設定檔檢查。
func (rs *RoundSetting) valid() error {
	if rs.RoundName == "" {
		return errs.NewFatal("empty round_name")
	}
	if !rs.LotteryType.Valid() {
		return errs.NewFatal(fmt.Sprintf("round_name: %s err:invalid lottery_type %q", rs.RoundName, rs.LotteryType))
	}
	if rs.SetPrice < 0 {
		return errs.NewFatal(fmt.Sprintf("round_name: %s err:invalid set_price", rs.RoundName))
	}
	if rs.LongPressMs < 0 {
		return errs.NewFatal(fmt.Sprintf("round_name: %s err:invalid long_press_ms", rs.RoundName))
	}

	// 預設玩法必須是該位數存在、且此彩種提供的按鈕
	for digits, v := range rs.DefaultTypes {
		if digits < parse.MinDigits || digits > parse.MaxDigits {
			return errs.NewFatal(fmt.Sprintf("round_name: %s err:default_types digits %d out of range", rs.RoundName, digits))
		}
		l, ok := bet.FindLabel(digits, v)
		if !ok || !l.AvailableFor(rs.LotteryType) {
			return errs.NewFatal(fmt.Sprintf("round_name: %s err:default_types[%d] %q not available", rs.RoundName, digits, v))
		}
	}
	return nil
}

// GetRoundSettingByYAML
// 會讀取 YAML 設定（嚴格欄位檢查）、補預設值並執行基本檢查後回傳
func GetRoundSettingByYAML(data []byte) (*RoundSetting, error) {
	rs := &RoundSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(rs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "round setting initialized err")
	}
	return rs, nil
}

// GetRoundSettingByJSON
// 會讀取 Json 設定、補預設值並執行基本檢查後回傳
func GetRoundSettingByJSON(data []byte) (*RoundSetting, error) {
	rs := &RoundSetting{}
	if err := json.Unmarshal(data, rs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "round setting initialized err")
	}
	return rs, nil
}
