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

// Package prefs 提供「各位數預設玩法」偏好的存放實作。
//
// 偏好只存在本機（process-local），不經過後端：
//   - MemStore：純記憶體，測試與無狀態部署用。
//   - FileStore：YAML 檔，重開程式後仍保留長按設定的預設玩法。
package prefs

import (
	"maps"
	"sync"
)

// MemStore 以 map 保存 digits -> 按鈕值。
type MemStore struct {
	mu sync.RWMutex
	m  map[int]string
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[int]string{}}
}

func (s *MemStore) Get(digits int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[digits]
	return v, ok
}

func (s *MemStore) Set(digits int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.m, digits)
		return nil
	}
	s.m[digits] = value
	return nil
}

// Snapshot 回傳目前所有偏好的複本。
func (s *MemStore) Snapshot() map[int]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.m)
}
