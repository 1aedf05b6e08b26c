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

package prefs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/zintix-labs/huaylab/errs"
	"gopkg.in/yaml.v3"
)

// fileDoc 檔案格式：
//
//	default_types:
//	  2: 2_top+reverse
//	  3: 3_top+tengTod
type fileDoc struct {
	DefaultTypes map[int]string `yaml:"default_types"`
}

// FileStore 把偏好寫到單一 YAML 檔。每次 Set 都整檔重寫（先寫暫存檔再 rename）。
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemStore
}

// OpenFileStore 開啟（或建立）偏好檔；檔案不存在視為空偏好。
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errs.NewFatal("prefs file path required")
	}
	fsr := &FileStore{path: path, mem: NewMemStore()}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fsr, nil
		}
		return nil, errs.Wrap(err, "read prefs file failed")
	}
	doc := fileDoc{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(err, "decode prefs file failed")
	}
	for d, v := range doc.DefaultTypes {
		_ = fsr.mem.Set(d, v)
	}
	return fsr, nil
}

func (s *FileStore) Get(digits int) (string, bool) {
	return s.mem.Get(digits)
}

func (s *FileStore) Set(digits int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.mem.Set(digits, value)
	return s.flush()
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) flush() error {
	data, err := yaml.Marshal(fileDoc{DefaultTypes: s.mem.Snapshot()})
	if err != nil {
		return errs.Wrap(err, "encode prefs failed")
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, "create prefs dir failed")
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(err, "write prefs failed")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errs.Wrap(err, "replace prefs file failed")
	}
	return nil
}
